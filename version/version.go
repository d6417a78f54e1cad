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

// Package version reports module versions compiled into the running binary.
package version

import (
	"runtime/debug"
	"strings"
)

// ReadVersion returns "path@version" for a module dependency compiled into the binary, or just the path when the
// version is not known (eg. a binary built without module support).
func ReadVersion(path string) string {
	if v, ok := Lookup(path); ok {
		return strings.Join([]string{path, v}, "@")
	}

	return path
}

// Lookup returns the version of a module dependency, following replace directives.
func Lookup(path string) (string, bool) {
	i, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}

	for _, d := range i.Deps {
		if d.Path != path {
			continue
		}

		if d.Replace != nil && d.Replace.Version != "" {
			return d.Replace.Version, true
		}

		return d.Version, true
	}

	return "", false
}
