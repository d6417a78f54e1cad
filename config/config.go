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

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dkorunic/classeviva-proxy/logger"
)

const (
	DefaultBaseURL  = "https://web.spaggiari.eu/rest/v1"
	DefaultTimeout  = 60 * time.Second
	DefaultListen   = "127.0.0.1:8080"
	DefaultTTL      = 90 * time.Minute // matches remote auth token lifetime
	DefaultDatabase = ".classeviva-proxy.db"
	DefaultRoot     = "didactics"
	MinSecretLength = 32
)

var (
	ErrNoCredentials   = errors.New("configuration error: user requires both username and password")
	ErrInvalidUsername = errors.New("configuration error: username is neither a student code nor an e-mail address")
	ErrInvalidBaseURL  = errors.New("configuration error: remote base URL is not a valid http(s) URL")
	ErrInvalidListen   = errors.New("configuration error: server listen address is not in host:port format")
	ErrShortSecret     = errors.New("configuration error: server secret is too short")
	ErrInvalidDuration = errors.New("configuration error: duration must be positive")
)

// LoadConfig attempts to load and decode configuration file in TOML format, applying defaults for missing values and
// doing a minimal sanity checking, optionally returning an error.
func LoadConfig(file string) (TomlConfig, error) {
	var config TomlConfig
	if _, err := toml.DecodeFile(file, &config); err != nil {
		return config, err
	}

	setDefaults(&config)

	if err := checkUserConf(config); err != nil {
		return config, err
	}

	if err := checkRemoteConf(config); err != nil {
		return config, err
	}

	if err := checkServerConf(config); err != nil {
		return config, err
	}

	return config, nil
}

// HasCredentials reports whether the configuration stores user credentials.
func (c TomlConfig) HasCredentials() bool {
	return c.User.Username != "" && c.User.Password != ""
}

// setDefaults fills in every optional value left empty in the configuration file.
func setDefaults(config *TomlConfig) {
	if config.Remote.BaseURL == "" {
		config.Remote.BaseURL = DefaultBaseURL
	}

	if config.Remote.Timeout == 0 {
		config.Remote.Timeout = DefaultTimeout
	}

	if config.Server.Listen == "" {
		config.Server.Listen = DefaultListen
	}

	if config.Server.TTL == 0 {
		config.Server.TTL = DefaultTTL
	}

	if config.Server.Database == "" {
		config.Server.Database = DefaultDatabase
	}

	if config.Download.Root == "" {
		config.Download.Root = DefaultRoot
	}
}

// checkUserConf does a minimal sanity check on the User configuration block, ensuring that either both username and
// password are present or none is, and that the username is either a student code (eg. S1234567X) or an e-mail
// address. Without stored credentials the proxy still works, as clients log in on their own.
func checkUserConf(config TomlConfig) error {
	u := config.User

	if u.Username == "" && u.Password == "" {
		logger.Info().Msg("Configuration: no stored user credentials, download mode will be unavailable")

		return nil
	}

	if u.Username == "" || u.Password == "" {
		return ErrNoCredentials
	}

	if !isValidUsername(u.Username) {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, u.Username)
	}

	return nil
}

// checkRemoteConf ensures the remote API base URL is an absolute http(s) URL and the timeout is positive.
func checkRemoteConf(config TomlConfig) error {
	if !isValidBaseURL(config.Remote.BaseURL) {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, config.Remote.BaseURL)
	}

	if config.Remote.Timeout < 0 {
		return fmt.Errorf("%w: remote timeout %v", ErrInvalidDuration, config.Remote.Timeout)
	}

	return nil
}

// checkServerConf does a minimal sanity check on the Server configuration block. A missing secret is not an error
// (download mode does not need one), but a configured secret must be long enough for HS256 signing.
func checkServerConf(config TomlConfig) error {
	s := config.Server

	if !isValidListen(s.Listen) {
		return fmt.Errorf("%w: %q", ErrInvalidListen, s.Listen)
	}

	if s.TTL < 0 {
		return fmt.Errorf("%w: server ttl %v", ErrInvalidDuration, s.TTL)
	}

	if s.Secret == "" {
		logger.Warn().Msg("Configuration issue: server secret not set, proxy mode will be unavailable")

		return nil
	}

	if len(s.Secret) < MinSecretLength {
		return fmt.Errorf("%w: need at least %v characters", ErrShortSecret, MinSecretLength)
	}

	return nil
}
