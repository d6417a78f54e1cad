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

package config

import "time"

// User struct holds the Classe Viva credentials used for login and transparent re-login.
type User struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Remote struct holds the Classe Viva REST API endpoint configuration.
type Remote struct {
	BaseURL string        `toml:"baseurl"`
	Timeout time.Duration `toml:"timeout"`
}

// Server struct holds the HTTP proxy configuration.
type Server struct {
	Listen   string        `toml:"listen"`
	Secret   string        `toml:"secret"`
	TTL      time.Duration `toml:"ttl"`
	Database string        `toml:"database"`
}

// Download struct holds the didactics mirroring configuration.
type Download struct {
	Root    string `toml:"root"`
	Flatten bool   `toml:"flatten"`
}

// TomlConfig struct holds all other configuration structures.
type TomlConfig struct {
	User     User     `toml:"user"`
	Remote   Remote   `toml:"remote"`
	Server   Server   `toml:"server"`
	Download Download `toml:"download"`
}
