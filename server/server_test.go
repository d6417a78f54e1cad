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

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dkorunic/classeviva-proxy/classeviva"
	"github.com/dkorunic/classeviva-proxy/classeviva/classevivatest"
	"github.com/dkorunic/classeviva-proxy/sqlitedb"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	srv    *Server
	remote *classevivatest.Server
	store  *sqlitedb.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	remote := classevivatest.NewServer()
	t.Cleanup(remote.Close)

	store, err := sqlitedb.New(context.Background(), filepath.Join(t.TempDir(), "proxy.db"))
	if err != nil {
		t.Fatalf("sqlitedb.New() failed: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	session := classeviva.New("", "", classeviva.WithBaseURL(remote.BaseURL()))

	srv, err := New(session, Options{Secret: testSecret, Revoker: store})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	return &fixture{srv: srv, remote: remote, store: store}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)

	return w
}

func (f *fixture) get(target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return f.do(req)
}

func (f *fixture) loginRequest(username, password string) *httptest.ResponseRecorder {
	form := url.Values{}
	form.Set(formUsername, username)
	form.Set(formPassword, password)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return f.do(req)
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()

	w := f.loginRequest(classevivatest.Username, classevivatest.Password)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /login = %d %v", w.Code, w.Body.String())
	}

	var body struct {
		JWT string `json:"jwt"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.JWT == "" {
		t.Fatalf("POST /login body = %v, err = %v", w.Body.String(), err)
	}

	return body.JWT
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var e errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("error body %q: %v", w.Body.String(), err)
	}

	return e
}

func TestNewRequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := New(classeviva.New("", ""), Options{}); err != ErrNoSecret {
		t.Errorf("New() error = %v, want %v", err, ErrNoSecret)
	}
}

func TestLoginAndFetch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.remote.HandleJSON(http.MethodGet, "grades/subject/215", map[string]any{"grades": []any{}})

	token := f.login(t)

	w := f.get("/grades?subject=215", token)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /grades = %d %v", w.Code, w.Body.String())
	}

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("GET /grades Content-Type = %q", ct)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}

	if _, ok := body["grades"]; !ok {
		t.Errorf("GET /grades body = %v", body)
	}

	claims, err := f.srv.tokens.parse(token)
	if err != nil {
		t.Fatalf("parse() failed: %v", err)
	}

	if claims.Subject != classevivatest.Username || claims.ID == "" {
		t.Errorf("token claims = %+v", claims)
	}

	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time); ttl != DefaultTTL {
		t.Errorf("token ttl = %v, want %v", ttl, DefaultTTL)
	}
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.loginRequest(classevivatest.Username, "wrong")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("POST /login = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	if e := decodeError(t, w); e != (errorBody{Status: 401, Message: "Bad username or password"}) {
		t.Errorf("POST /login body = %+v", e)
	}

	w = f.loginRequest("", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST /login without credentials = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRequireToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.remote.HandleJSON(http.MethodGet, "cards", map[string]any{"cards": []any{}})

	if w := f.get("/cards", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("GET /cards without token = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	if w := f.get("/cards", "garbage"); w.Code != http.StatusUnauthorized {
		t.Errorf("GET /cards with garbage token = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	other := &tokens{secret: []byte("another secret, another secret!!"), ttl: time.Hour, now: time.Now}

	forged, err := other.issue(classevivatest.Username)
	if err != nil {
		t.Fatal(err)
	}

	if w := f.get("/cards", forged); w.Code != http.StatusUnauthorized {
		t.Errorf("GET /cards with foreign token = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	if f.remote.TotalCalls() != 0 {
		t.Error("rejected requests must not reach the remote")
	}
}

func TestNotLoggedIn(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	// valid signature, but nobody is logged in
	token, err := f.srv.tokens.issue(classevivatest.Username)
	if err != nil {
		t.Fatal(err)
	}

	w := f.get("/subjects", token)
	if w.Code != http.StatusForbidden {
		t.Fatalf("GET /subjects = %d, want %d", w.Code, http.StatusForbidden)
	}

	if e := decodeError(t, w); e != (errorBody{Status: 403, Message: "User not logged in"}) {
		t.Errorf("GET /subjects body = %+v", e)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.remote.HandleJSON(http.MethodGet, "periods", map[string]any{"periods": []any{}})

	token := f.login(t)

	req := httptest.NewRequest(http.MethodDelete, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	if w := f.do(req); w.Code != http.StatusOK || w.Body.String() != "Logged out" {
		t.Fatalf("DELETE /logout = %d %q", w.Code, w.Body.String())
	}

	claims, err := f.srv.tokens.parse(token)
	if err != nil {
		t.Fatal(err)
	}

	revoked, err := f.store.IsRevoked(context.Background(), claims.ID)
	if err != nil || !revoked {
		t.Errorf("IsRevoked() = %v, %v, want true", revoked, err)
	}

	if w := f.get("/periods", token); w.Code != http.StatusUnauthorized {
		t.Errorf("GET /periods with revoked token = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	// a fresh login issues a new, valid token
	token = f.login(t)
	if w := f.get("/periods", token); w.Code != http.StatusOK {
		t.Errorf("GET /periods after new login = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestLogoutWithoutToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodDelete, "/logout", nil))
	if w.Code != http.StatusOK {
		t.Errorf("DELETE /logout = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.Local)

	testCases := []struct {
		name   string
		target string
		method string
		path   string
	}{
		{"Didactics", "/didactics", http.MethodGet, "didactics"},
		{"Schoolbooks", "/schoolbooks", http.MethodGet, "schoolbooks"},
		{"Calendar", "/calendar", http.MethodGet, "calendar/all"},
		{"Cards", "/cards", http.MethodGet, "cards"},
		{"Notes", "/notes", http.MethodGet, "notes/all"},
		{"Periods", "/periods", http.MethodGet, "periods"},
		{"Subjects", "/subjects", http.MethodGet, "subjects"},
		{"Noticeboard", "/noticeboard", http.MethodGet, "noticeboard"},
		{"Documents", "/documents", http.MethodPost, "documents"},
		{"GradesAll", "/grades", http.MethodGet, "grades"},
		{"AbsencesAll", "/absences", http.MethodGet, "absences/details"},
		{"AbsencesBegin", "/absences?begin=2025-03-01", http.MethodGet, "absences/details/20250301/20250310"},
		{"AbsencesRange", "/absences?begin=2025-03-01&end=2025-03-05", http.MethodGet,
			"absences/details/20250301/20250305"},
		{"AgendaDefault", "/agenda", http.MethodGet, "agenda/all/20250310/20250409"},
		{"AgendaHomework", "/agenda?begin=2025-03-01&end=2025-03-05&filter=homework", http.MethodGet,
			"agenda/AGHW/20250301/20250305"},
		{"LessonsDefault", "/lessons", http.MethodGet, "lessons/today"},
		{"LessonsToday", "/lessons?today", http.MethodGet, "lessons/today"},
		{"LessonsRange", "/lessons?begin=2025-03-01&end=2025-03-05", http.MethodGet, "lessons/20250301/20250305"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.srv.now = func() time.Time { return now }
			f.remote.HandleJSON(tc.method, tc.path, map[string]any{"ok": true})

			token := f.login(t)

			w := f.get(tc.target, token)
			if w.Code != http.StatusOK {
				t.Fatalf("GET %v = %d %v", tc.target, w.Code, w.Body.String())
			}

			if got := f.remote.Calls(tc.method, tc.path); got != 1 {
				t.Errorf("%v %v calls = %d, want 1", tc.method, tc.path, got)
			}
		})
	}
}

func TestBadRequests(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	token := f.login(t)

	for _, target := range []string{
		"/agenda?filter=bogus",
		"/agenda?begin=2025-13-45",
		"/agenda?begin=2025-03-05&end=2025-03-01",
		"/absences?end=2025-03-05",
		"/lessons?today=false",
		"/lessons?today=perhaps",
		"/lessons?begin=2025-03-01",
	} {
		w := f.get(target, token)
		if w.Code != http.StatusBadRequest {
			t.Errorf("GET %v = %d, want %d", target, w.Code, http.StatusBadRequest)

			continue
		}

		if e := decodeError(t, w); e.Status != http.StatusBadRequest || e.Message == "" {
			t.Errorf("GET %v body = %+v", target, e)
		}
	}

	if f.remote.TotalCalls() != 0 {
		t.Error("bad requests must not reach the remote")
	}
}

func TestTextAndRemoteFailures(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.remote.Handle(http.MethodGet, "schoolbooks", classevivatest.Route{
		Status:      http.StatusServiceUnavailable,
		ContentType: "text/html",
		Body:        []byte("<html><title>Maintenance</title></html>"),
	})

	token := f.login(t)

	w := f.get("/schoolbooks", token)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("GET /schoolbooks = %d %v", w.Code, w.Header().Get("Content-Type"))
	}

	if !strings.Contains(w.Body.String(), "Maintenance") {
		t.Errorf("GET /schoolbooks body = %q", w.Body.String())
	}

	f.remote.Close()

	if w := f.get("/schoolbooks", token); w.Code != http.StatusBadGateway {
		t.Errorf("GET /schoolbooks with remote down = %d, want %d", w.Code, http.StatusBadGateway)
	}
}

func TestAgendaCalendar(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.remote.HandleJSON(http.MethodGet, "agenda/all/20250301/20250331", map[string]any{
		"agenda": []any{
			map[string]any{
				"evtId":            1,
				"evtDatetimeBegin": "2025-03-05T08:00:00+01:00",
				"evtDatetimeEnd":   "2025-03-05T09:00:00+01:00",
				"notes":            "Verifica",
				"subjectDesc":      "MATEMATICA",
			},
			map[string]any{
				"evtId":            2,
				"evtDatetimeBegin": "2025-03-06T08:00:00+01:00",
				"evtDatetimeEnd":   "2025-03-06T09:00:00+01:00",
				"isFullDay":        true,
				"notes":            "Gita",
			},
		},
	})

	token := f.login(t)

	w := f.get("/agenda.ics?begin=2025-03-01&end=2025-03-31", token)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /agenda.ics = %d %v", w.Code, w.Body.String())
	}

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("GET /agenda.ics Content-Type = %q", ct)
	}

	if n := strings.Count(w.Body.String(), "BEGIN:VEVENT"); n != 2 {
		t.Errorf("GET /agenda.ics events = %d, want 2", n)
	}
}

func TestTokenReloginTransparent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.remote.HandleJSON(http.MethodGet, "notes/all", map[string]any{"notes": []any{}})

	token := f.login(t)
	f.remote.InvalidateToken()

	if w := f.get("/notes", token); w.Code != http.StatusOK {
		t.Fatalf("GET /notes after remote token expiry = %d %v", w.Code, w.Body.String())
	}

	if got := f.remote.LoginCalls(); got != 2 {
		t.Errorf("login calls = %d, want 2", got)
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		value    string
		expected string
		ok       bool
	}{
		{"Bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		got, ok := bearerToken(tc.value)
		if got != tc.expected || ok != tc.ok {
			t.Errorf("bearerToken(%q) = %q, %v, want %q, %v", tc.value, got, ok, tc.expected, tc.ok)
		}
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	go func() {
		errCh <- f.srv.Run(ctx, "127.0.0.1:0")
	}()

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop after cancellation")
	}
}
