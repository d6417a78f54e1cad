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

// Package server exposes a Classe Viva session as a small JSON HTTP proxy with bearer token authentication.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dkorunic/classeviva-proxy/classeviva"
	"github.com/dkorunic/classeviva-proxy/logger"
	"github.com/gin-gonic/gin"
)

const (
	DefaultTTL        = 90 * time.Minute
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Revoker persists revoked token IDs until their expiry.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Options configures a Server.
type Options struct {
	Secret  []byte        // HS256 signing secret, required
	TTL     time.Duration // bearer token lifetime, DefaultTTL if zero
	Revoker Revoker       // optional, logout does not revoke tokens without it
}

// Server is the HTTP proxy. It owns a single Session and serializes all access to it.
type Server struct {
	mu       sync.Mutex
	session  *classeviva.Session
	username string // subject of valid bearer tokens, empty while logged out

	tokens  *tokens
	revoker Revoker
	engine  *gin.Engine
	now     func() time.Time
}

// New creates a proxy for the given session.
func New(session *classeviva.Session, opts Options) (*Server, error) {
	if len(opts.Secret) == 0 {
		return nil, ErrNoSecret
	}

	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}

	s := &Server{
		session: session,
		revoker: opts.Revoker,
		now:     time.Now,
	}

	s.tokens = &tokens{
		secret: opts.Secret,
		ttl:    opts.TTL,
		now:    func() time.Time { return s.now() },
	}

	s.engine = gin.New()
	s.engine.Use(requestLogger(), gin.Recovery())
	s.routes()

	return s, nil
}

// Handler returns the proxy http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr and serves the proxy until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	return s.Serve(ctx, ln)
}

// Serve serves the proxy on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info().Msgf("Proxy listening on %v", ln.Addr())

		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down proxy")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
