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
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/dkorunic/classeviva-proxy/classeviva"
	"github.com/dkorunic/classeviva-proxy/ical"
	"github.com/dkorunic/classeviva-proxy/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	formUsername = "credentials[username]"
	formPassword = "credentials[password]"
	claimsKey    = "claims"
	calendarType = "text/calendar; charset=utf-8"
)

// fetchFunc is a single Session resource fetch.
type fetchFunc func(ctx context.Context, c *gin.Context) (*classeviva.Response, error)

func (s *Server) routes() {
	s.engine.POST("/login", s.login)
	s.engine.DELETE("/logout", s.logout)

	auth := s.engine.Group("/", s.requireToken)

	auth.GET("/grades", s.fetch(func(ctx context.Context, c *gin.Context) (*classeviva.Response, error) {
		return s.session.Grades(ctx, c.Query("subject"))
	}))
	auth.GET("/absences", s.fetch(s.absences))
	auth.GET("/agenda", s.fetch(s.agenda))
	auth.GET("/agenda.ics", s.agendaCalendar)
	auth.GET("/lessons", s.fetch(s.lessons))

	simple := map[string]func(context.Context) (*classeviva.Response, error){
		"/didactics":   s.session.Didactics,
		"/schoolbooks": s.session.Schoolbooks,
		"/calendar":    s.session.Calendar,
		"/cards":       s.session.Cards,
		"/notes":       s.session.Notes,
		"/periods":     s.session.Periods,
		"/subjects":    s.session.Subjects,
		"/noticeboard": s.session.Noticeboard,
		"/documents":   s.session.Documents,
	}

	for path, call := range simple {
		auth.GET(path, s.fetch(func(ctx context.Context, _ *gin.Context) (*classeviva.Response, error) {
			return call(ctx)
		}))
	}
}

// login authenticates the session with the posted credentials and issues a bearer token.
func (s *Server) login(c *gin.Context) {
	username, password := c.PostForm(formUsername), c.PostForm(formPassword)
	if username == "" || password == "" {
		abortWithError(c, fmt.Errorf("%w: %v and %v are required", ErrBadRequest, formUsername, formPassword))

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.session.Login(c.Request.Context(), username, password)
	if err != nil {
		abortWithError(c, err)

		return
	}

	s.username = username

	token, err := s.tokens.issue(username)
	if err != nil {
		abortWithError(c, err)

		return
	}

	logger.Info().Msgf("Student %v (%v %v) logged in", id.ID, id.FirstName, id.LastName)

	c.JSON(http.StatusOK, gin.H{"jwt": token})
}

// logout clears the session and revokes the presented bearer token, if any.
func (s *Server) logout(c *gin.Context) {
	if tokenStr, ok := bearerToken(c.GetHeader("Authorization")); ok {
		if claims, err := s.tokens.parse(tokenStr); err == nil {
			s.revoke(c.Request.Context(), claims)
		}
	}

	s.mu.Lock()
	s.session.Logout()
	s.username = ""
	s.mu.Unlock()

	c.String(http.StatusOK, "Logged out")
}

func (s *Server) revoke(ctx context.Context, claims *jwt.RegisteredClaims) {
	if s.revoker == nil {
		return
	}

	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		logger.Error().Msgf("Unable to revoke token %v: %v", claims.ID, err)
	}
}

// requireToken rejects requests without a valid, unrevoked bearer token issued for the logged in user.
func (s *Server) requireToken(c *gin.Context) {
	tokenStr, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		abortWithError(c, ErrMissingToken)

		return
	}

	claims, err := s.tokens.parse(tokenStr)
	if err != nil {
		abortWithError(c, err)

		return
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			abortWithError(c, err)

			return
		}

		if revoked {
			abortWithError(c, ErrRevokedToken)

			return
		}
	}

	s.mu.Lock()
	current := s.username
	s.mu.Unlock()

	// token of a user whose session is gone
	if claims.Subject != current {
		abortWithError(c, classeviva.ErrNotLoggedIn)

		return
	}

	c.Set(claimsKey, claims)
	c.Next()
}

// fetch wraps a Session fetch into a handler, serializing Session access and writing the tagged response.
func (s *Server) fetch(call fetchFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := s.locked(c, call)
		if err != nil {
			abortWithError(c, err)

			return
		}

		writeResponse(c, r)
	}
}

func (s *Server) locked(c *gin.Context, call fetchFunc) (*classeviva.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return call(c.Request.Context(), c)
}

func (s *Server) absences(ctx context.Context, c *gin.Context) (*classeviva.Response, error) {
	begin, end, err := s.absenceRange(c)
	if err != nil {
		return nil, err
	}

	return s.session.Absences(ctx, begin, end)
}

func (s *Server) agenda(ctx context.Context, c *gin.Context) (*classeviva.Response, error) {
	begin, end, err := s.agendaRange(c)
	if err != nil {
		return nil, err
	}

	return s.session.Agenda(ctx, begin, end, agendaFilter(c))
}

func (s *Server) lessons(ctx context.Context, c *gin.Context) (*classeviva.Response, error) {
	today, begin, end, err := s.lessonsQuery(c)
	if err != nil {
		return nil, err
	}

	return s.session.Lessons(ctx, today, begin, end)
}

// agendaCalendar serves the agenda as an iCalendar feed.
func (s *Server) agendaCalendar(c *gin.Context) {
	r, err := s.locked(c, s.agenda)
	if err != nil {
		abortWithError(c, err)

		return
	}

	if r.Kind != classeviva.KindObject || r.RemoteError() != "" {
		abortWithError(c, fmt.Errorf("agenda: %v", r.Summary()))

		return
	}

	var buf bytes.Buffer
	if err := ical.Encode(&buf, r); err != nil {
		abortWithError(c, err)

		return
	}

	c.Header("Content-Disposition", `inline; filename="agenda.ics"`)
	c.Data(http.StatusOK, calendarType, buf.Bytes())
}

// writeResponse writes a tagged remote response in its natural representation.
func writeResponse(c *gin.Context, r *classeviva.Response) {
	switch r.Kind {
	case classeviva.KindObject:
		c.JSON(http.StatusOK, r.Object)
	case classeviva.KindText:
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(r.Text))
	case classeviva.KindBinary:
		c.Data(http.StatusOK, "application/octet-stream", r.Bytes)
	}
}
