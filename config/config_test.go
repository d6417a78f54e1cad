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
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return p
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	// Test with a valid config file.
	config, err := LoadConfig("test_config.toml")
	if err != nil {
		t.Fatalf("LoadConfig() with valid config failed: %v", err)
	}

	if config.User.Username != "S1234567X" || config.User.Password != "secret" {
		t.Errorf("LoadConfig() user = %+v", config.User)
	}

	if config.Remote.BaseURL != DefaultBaseURL || config.Remote.Timeout != 30*time.Second {
		t.Errorf("LoadConfig() remote = %+v", config.Remote)
	}

	if config.Server.Listen != ":8080" || config.Server.TTL != time.Hour || config.Server.Database != DefaultDatabase {
		t.Errorf("LoadConfig() server = %+v", config.Server)
	}

	if config.Download.Root != "material" || !config.Download.Flatten {
		t.Errorf("LoadConfig() download = %+v", config.Download)
	}

	// Test with a non-existent config file.
	_, err = LoadConfig("non_existent_config.toml")
	if err == nil {
		t.Fatal("LoadConfig() with non-existent config should have failed")
	}

	// Test with an invalid config file.
	_, err = LoadConfig(writeConfig(t, "invalid toml"))
	if err == nil {
		t.Fatal("LoadConfig() with invalid config should have failed")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	config, err := LoadConfig(writeConfig(t, "[user]\nusername = \"mario.rossi@example.com\"\npassword = \"x\"\n"))
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	expected := TomlConfig{
		User:     User{Username: "mario.rossi@example.com", Password: "x"},
		Remote:   Remote{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout},
		Server:   Server{Listen: DefaultListen, TTL: DefaultTTL, Database: DefaultDatabase},
		Download: Download{Root: DefaultRoot},
	}

	if config != expected {
		t.Errorf("LoadConfig() = %+v, want %+v", config, expected)
	}

	if !config.HasCredentials() {
		t.Error("HasCredentials() should be true")
	}
}

func TestLoadConfigWithoutUser(t *testing.T) {
	t.Parallel()

	config, err := LoadConfig(writeConfig(t, "[server]\nlisten = \":9000\"\n"))
	if err != nil {
		t.Fatalf("LoadConfig() without user failed: %v", err)
	}

	if config.HasCredentials() {
		t.Error("HasCredentials() should be false")
	}

	if config.Server.Listen != ":9000" {
		t.Errorf("LoadConfig() listen = %q, want %q", config.Server.Listen, ":9000")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		content  string
		expected error
	}{
		{
			name:     "NoCredentials",
			content:  "[user]\nusername = \"S1234567X\"\n",
			expected: ErrNoCredentials,
		},
		{
			name:     "BadUsername",
			content:  "[user]\nusername = \"not a user\"\npassword = \"x\"\n",
			expected: ErrInvalidUsername,
		},
		{
			name:     "BadBaseURL",
			content:  "[user]\nusername = \"S1234567X\"\npassword = \"x\"\n[remote]\nbaseurl = \"ftp://x\"\n",
			expected: ErrInvalidBaseURL,
		},
		{
			name:     "BadListen",
			content:  "[user]\nusername = \"S1234567X\"\npassword = \"x\"\n[server]\nlisten = \"localhost\"\n",
			expected: ErrInvalidListen,
		},
		{
			name:     "ShortSecret",
			content:  "[user]\nusername = \"S1234567X\"\npassword = \"x\"\n[server]\nsecret = \"short\"\n",
			expected: ErrShortSecret,
		},
		{
			name:     "NegativeTTL",
			content:  "[user]\nusername = \"S1234567X\"\npassword = \"x\"\n[server]\nttl = \"-1h\"\n",
			expected: ErrInvalidDuration,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadConfig(writeConfig(t, tc.content))
			if !errors.Is(err, tc.expected) {
				t.Errorf("LoadConfig() error = %v, want %v", err, tc.expected)
			}
		})
	}
}

func TestValidators(t *testing.T) {
	t.Parallel()
	// isValidUsername
	if !isValidUsername("S1234567X") {
		t.Error("isValidUsername() failed with a valid student code")
	}
	if !isValidUsername("test@example.com") {
		t.Error("isValidUsername() failed with a valid e-mail")
	}
	if isValidUsername("test") {
		t.Error("isValidUsername() passed with an invalid username")
	}

	// isValidMail
	if !isValidMail("test@example.com") {
		t.Error("isValidMail() failed with a valid email")
	}
	if isValidMail("test") {
		t.Error("isValidMail() passed with an invalid email")
	}

	// isValidListen
	if !isValidListen(":8080") || !isValidListen("127.0.0.1:8080") || !isValidListen("[::1]:80") {
		t.Error("isValidListen() failed with a valid address")
	}
	if isValidListen("localhost") || isValidListen("localhost:http") || isValidListen(":0") {
		t.Error("isValidListen() passed with an invalid address")
	}

	// isValidBaseURL
	if !isValidBaseURL("https://web.spaggiari.eu/rest/v1") {
		t.Error("isValidBaseURL() failed with a valid URL")
	}
	if isValidBaseURL("web.spaggiari.eu/rest/v1") {
		t.Error("isValidBaseURL() passed with an invalid URL")
	}
}
