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

import "errors"

var (
	ErrNotLoggedIn          = errors.New("not logged in")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNoAttachments        = errors.New("notice has no attachments")
	ErrLoginResponse        = errors.New("unexpected login response")
	ErrUnknownFilter        = errors.New("unknown agenda event filter")
	ErrLessonsRange         = errors.New("lessons require either today or both begin and end dates")
	ErrUnsupportedItem      = errors.New("unsupported didactics item type")
	ErrUnexpectedStatus     = errors.New("unexpected status code")
	ErrNotObject            = errors.New("response is not a JSON object")
	ErrRemote               = errors.New("remote error")
	ErrTokenRejected        = errors.New("auth token rejected")

	errTokenExpired = errors.New("auth token expired")
)
