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
	"errors"
	"net/http"

	"github.com/dkorunic/classeviva-proxy/classeviva"
	"github.com/dkorunic/classeviva-proxy/logger"
	"github.com/gin-gonic/gin"
)

const (
	msgNotLoggedIn  = "User not logged in"
	msgAuthFailed   = "Bad username or password"
	msgUnauthorized = "Missing or invalid token"
	msgRemoteError  = "Remote service error"
)

var ErrBadRequest = errors.New("bad request")

// errorBody is the JSON body of every error reply.
type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// statusFor maps an error to the HTTP status and message sent to the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, classeviva.ErrNotLoggedIn):
		return http.StatusForbidden, msgNotLoggedIn
	case errors.Is(err, classeviva.ErrAuthenticationFailed):
		return http.StatusUnauthorized, msgAuthFailed
	case errors.Is(err, ErrMissingToken), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrRevokedToken):
		return http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, classeviva.ErrUnknownFilter),
		errors.Is(err, classeviva.ErrLessonsRange),
		errors.Is(err, classeviva.ErrUnsupportedItem):
		return http.StatusBadRequest, err.Error()
	}

	return http.StatusBadGateway, msgRemoteError
}

// abortWithError replies with the mapped error and stops the handler chain.
func abortWithError(c *gin.Context, err error) {
	status, msg := statusFor(err)

	if status == http.StatusBadGateway {
		logger.Error().Msgf("Request %v %v failed: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		logger.Debug().Msgf("Request %v %v rejected: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	c.AbortWithStatusJSON(status, errorBody{Status: status, Message: msg})
}
