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

// Package classeviva is a client for the Classe Viva (Spaggiari) student records REST API.
package classeviva

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dkorunic/classeviva-proxy/logger"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://web.spaggiari.eu/rest/v1"
	Timeout        = 60 * time.Second // remote API can get really slow sometimes
	UserAgent      = "zorro/1.0"      // client application identifier expected by the remote API
	DevAPIKey      = "+zorro+"
	LoginPath      = "/auth/login/"

	HeaderDevAPIKey = "Z-Dev-Apikey"
	HeaderAuthToken = "Z-Auth-Token"

	authFailedMessage = "authentication failed"
)

var nonDigitRegex = regexp.MustCompile(`\D`)

// Option configures a Session.
type Option func(*settings)

type settings struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// WithBaseURL overrides the remote API base URL.
func WithBaseURL(baseURL string) Option {
	return func(s *settings) {
		s.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		s.timeout = timeout
	}
}

// WithHTTPClient uses the given HTTP client as the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) {
		s.httpClient = hc
	}
}

// New creates a new logged out *Session with optional stored credentials, used whenever Login is called without
// explicit credentials and for transparent re-login on token expiry.
func New(username, password string, opts ...Option) *Session {
	cfg := settings{
		baseURL: DefaultBaseURL,
		timeout: Timeout,
	}

	for _, o := range opts {
		o(&cfg)
	}

	var client *resty.Client
	if cfg.httpClient != nil {
		client = resty.NewWithClient(cfg.httpClient)
	} else {
		client = resty.New()
	}

	client.SetLogger(restyLogger{}).
		SetBaseURL(cfg.baseURL).
		SetTimeout(cfg.timeout).
		SetHeader("User-Agent", UserAgent).
		SetHeader(HeaderDevAPIKey, DevAPIKey).
		SetHeader("Content-Type", "application/json")

	return &Session{
		http:     client,
		username: username,
		password: password,
	}
}

type loginRequest struct {
	UID  string `json:"uid"`
	Pass string `json:"pass"`
}

type loginResponse struct {
	Ident     string `json:"ident"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Token     string `json:"token"`
	Release   string `json:"release"`
	Expire    string `json:"expire"`
	Error     string `json:"error"`
}

// Login authenticates against the remote API. Empty username falls back to the stored credentials. On success the
// credentials used are stored for later re-login and the student identity is returned. A rejected login returns
// ErrAuthenticationFailed and leaves the session state untouched.
func (s *Session) Login(ctx context.Context, username, password string) (Identity, error) {
	if username == "" {
		username, password = s.username, s.password
	}

	body, err := json.Marshal(loginRequest{UID: username, Pass: password})
	if err != nil {
		return Identity{}, err
	}

	res, err := s.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(LoginPath)
	if err != nil {
		return Identity{}, err
	}

	var lr loginResponse
	if err := json.Unmarshal(res.Body(), &lr); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrLoginResponse, err)
	}

	if strings.Contains(lr.Error, authFailedMessage) {
		return Identity{}, ErrAuthenticationFailed
	}

	// ident is a prefixed student code, eg. S1234567X
	studentID := nonDigitRegex.ReplaceAllString(lr.Ident, "")
	if lr.Token == "" || studentID == "" {
		if lr.Error != "" {
			return Identity{}, fmt.Errorf("%w: %v", ErrLoginResponse, lr.Error)
		}

		return Identity{}, fmt.Errorf("%w: missing token or identity", ErrLoginResponse)
	}

	s.username, s.password = username, password
	s.state = state{
		loggedIn:  true,
		studentID: studentID,
		token:     lr.Token,
		firstName: lr.FirstName,
		lastName:  lr.LastName,
	}

	logger.Debug().Msgf("Logged in as student %v (%v %v), token expires at %v", studentID, lr.FirstName,
		lr.LastName, lr.Expire)

	return s.Identity(), nil
}

// Logout forgets the token and the student identity. It is safe to call on a logged out session.
func (s *Session) Logout() {
	s.state = state{}
}

// LoggedIn reports whether the session holds a token.
func (s *Session) LoggedIn() bool {
	return s.state.loggedIn
}

// Identity returns the identity of the logged in student.
func (s *Session) Identity() Identity {
	return Identity{
		ID:        s.state.studentID,
		FirstName: s.state.firstName,
		LastName:  s.state.lastName,
	}
}

// restyLogger routes HTTP client diagnostics through the global logger.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) {
	logger.Error().Msgf(strings.TrimSpace(format), v...)
}

func (restyLogger) Warnf(format string, v ...any) {
	logger.Warn().Msgf(strings.TrimSpace(format), v...)
}

func (restyLogger) Debugf(format string, v ...any) {
	logger.Debug().Msgf(strings.TrimSpace(format), v...)
}
