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

package classeviva

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/dkorunic/classeviva-proxy/logger"
	"github.com/go-resty/resty/v2"
)

// maxAttempts bounds a request to the original call plus a single retry after re-login.
const maxAttempts = 2

// resourcePath builds the student resource path, escaping each segment and skipping empty ones.
func (s *Session) resourcePath(segments ...string) string {
	var sb strings.Builder

	sb.WriteString("/students/")
	sb.WriteString(url.PathEscape(s.state.studentID))

	for _, seg := range segments {
		if seg == "" {
			continue
		}

		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(seg))
	}

	return sb.String()
}

// execute issues a single authenticated request with the current token.
func (s *Session) execute(ctx context.Context, method string, segments []string) (*resty.Response, error) {
	if !s.state.loggedIn {
		return nil, ErrNotLoggedIn
	}

	return s.http.R().
		SetContext(ctx).
		SetHeader(HeaderAuthToken, s.state.token).
		Execute(method, s.resourcePath(segments...))
}

// request issues an authenticated request and resolves the response. If the remote reports an expired token, it logs
// in again with the stored credentials and retries exactly once, returning the retried response as is. A failed
// re-login logs the session out and returns the login error.
func (s *Session) request(ctx context.Context, method string, segments ...string) (*Response, error) {
	var attempt uint

	return retry.DoWithData(
		func() (*Response, error) {
			attempt++

			if attempt > 1 {
				logger.Debug().Msgf("Auth token expired for student %v, logging in again", s.state.studentID)

				if _, err := s.Login(ctx, "", ""); err != nil {
					s.Logout()

					return nil, err
				}
			}

			res, err := s.execute(ctx, method, segments)
			if err != nil {
				return nil, err
			}

			r := newResponse(res)

			if r.Kind == KindText {
				logger.Debug().Msgf("Non-JSON response for %v %v (HTTP %v): %v", method,
					strings.Join(segments, "/"), res.StatusCode(), r.Summary())
			}

			if attempt == 1 && r.tokenExpired() {
				return nil, errTokenExpired
			}

			return r, nil
		},
		retry.Attempts(maxAttempts),
		retry.Context(ctx),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errTokenExpired)
		}),
	)
}

// rawRequest issues an authenticated request and returns the unparsed response body, used for binary attachments.
// It never logs in again: a rejected token is reported as ErrTokenRejected.
func (s *Session) rawRequest(ctx context.Context, method string, segments ...string) ([]byte, error) {
	res, err := s.execute(ctx, method, segments)
	if err != nil {
		return nil, err
	}

	if res.StatusCode() == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: %w: %v", ErrUnexpectedStatus, ErrTokenRejected, res.StatusCode())
	}

	if res.IsError() {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedStatus, res.StatusCode())
	}

	return res.Body(), nil
}
