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

//nolint:godot
package config

import (
	"net"
	stdmail "net/mail"
	"net/url"
	"regexp"
	"strconv"
)

var studentCodeRegex = regexp.MustCompile(`^[A-Za-z]\d{5,10}[A-Za-z]?$`)

// isValidUsername checks if the given string is a Classe Viva student code
// (eg. S1234567X) or an e-mail address.
func isValidUsername(user string) bool {
	return studentCodeRegex.MatchString(user) || isValidMail(user)
}

// isValidMail checks if the given string is a valid mail address in the
// format User@domain.tld.
//
// Parameters:
// - Mail: the mail address to validate
//
// Returns:
// - true if the mail address is valid, false otherwise
func isValidMail(mail string) bool {
	_, err := stdmail.ParseAddress(mail)

	return err == nil
}

// isValidListen checks if the given string is in host:port format with a
// numeric port. An empty host means all interfaces.
func isValidListen(addr string) bool {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}

	p, err := strconv.ParseUint(port, 10, 16)

	return err == nil && p > 0
}

// isValidBaseURL checks if the given string is an absolute http or https URL.
func isValidBaseURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
