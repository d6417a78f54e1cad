// @license
// Copyright (C) 2025  Dinko Korunic
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package classevivatest provides an in-process fake of the Classe Viva REST API for tests.
package classevivatest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	Username  = "S1234567X"
	Password  = "secret"
	StudentID = "1234567"
	FirstName = "Mario"
	LastName  = "Rossi"
	BasePath  = "/rest/v1"

	ExpiredMessage    = "auth token expired"
	AuthFailedMessage = "422 AuthenticationFailed: authentication failed"
)

// Route is a canned response for a student resource.
type Route struct {
	Status      int
	ContentType string
	Body        []byte
}

// Server is a fake remote API. Student resources are registered relative to /students/{id}/.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	password   string
	token      string
	issued     int
	loginCalls int
	calls      map[string]int
	expireNext map[string]int
	routes     map[string]Route
	headers    http.Header
}

// NewServer starts a fake remote API accepting Username and Password.
func NewServer() *Server {
	s := &Server{
		password:   Password,
		calls:      make(map[string]int),
		expireNext: make(map[string]int),
		routes:     make(map[string]Route),
	}

	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))

	return s
}

// BaseURL returns the API base URL to configure a session with.
func (s *Server) BaseURL() string {
	return s.URL + BasePath
}

// Handle registers a canned response for method and student resource path, eg. "GET", "grades".
func (s *Server) Handle(method, path string, r Route) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Status == 0 {
		r.Status = http.StatusOK
	}

	s.routes[routeKey(method, path)] = r
}

// HandleJSON registers a JSON response for method and student resource path.
func (s *Server) HandleJSON(method, path string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	s.Handle(method, path, Route{ContentType: "application/json", Body: b})
}

// ExpireNext makes the next n calls to method and path fail with an expired token error.
func (s *Server) ExpireNext(method, path string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireNext[routeKey(method, path)] = n
}

// InvalidateToken makes the currently issued token stale, as if it has expired.
func (s *Server) InvalidateToken() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
}

// ChangePassword makes the remote reject the old password from now on.
func (s *Server) ChangePassword(password string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.password = password
}

// Calls returns the number of calls made to method and student resource path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[routeKey(method, path)]
}

// TotalCalls returns the number of calls made to all student resources.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for _, c := range s.calls {
		n += c
	}

	return n
}

// LoginCalls returns the number of login attempts.
func (s *Server) LoginCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loginCalls
}

// LastHeaders returns the headers of the last request received.
func (s *Server) LastHeaders() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.headers.Clone()
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.headers = r.Header.Clone()

	path := strings.TrimPrefix(r.URL.Path, BasePath)

	if path == "/auth/login/" && r.Method == http.MethodPost {
		s.login(w, r)

		return
	}

	prefix := "/students/" + StudentID + "/"
	if !strings.HasPrefix(path, prefix) {
		writeJSON(w, http.StatusNotFound, map[string]any{"statusCode": 404, "error": "404 NotFound"})

		return
	}

	key := routeKey(r.Method, strings.TrimPrefix(path, prefix))
	s.calls[key]++

	if s.expireNext[key] > 0 {
		s.expireNext[key]--
		writeJSON(w, http.StatusUnauthorized, map[string]any{"statusCode": 401, "error": ExpiredMessage})

		return
	}

	if s.token == "" || r.Header.Get("Z-Auth-Token") != s.token {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"statusCode": 401, "error": ExpiredMessage})

		return
	}

	route, ok := s.routes[key]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"statusCode": 404, "error": "404 NotFound"})

		return
	}

	if route.ContentType != "" {
		w.Header().Set("Content-Type", route.ContentType)
	}

	w.WriteHeader(route.Status)
	_, _ = w.Write(route.Body)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	s.loginCalls++

	var req struct {
		UID  string `json:"uid"`
		Pass string `json:"pass"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"statusCode": 400, "error": "400 BadRequest"})

		return
	}

	if req.UID != Username || req.Pass != s.password {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"statusCode": 422,
			"error":      AuthFailedMessage,
			"info":       "username or password invalid",
		})

		return
	}

	s.issued++
	s.token = fmt.Sprintf("token-%d", s.issued)

	writeJSON(w, http.StatusOK, map[string]any{
		"ident":     Username,
		"firstName": FirstName,
		"lastName":  LastName,
		"token":     s.token,
		"release":   "2025-01-01T08:00:00+01:00",
		"expire":    "2025-01-01T09:30:00+01:00",
	})
}

func routeKey(method, path string) string {
	return method + " " + strings.Trim(path, "/")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
