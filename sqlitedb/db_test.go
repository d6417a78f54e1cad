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

package sqlitedb

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRevoke(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "revoked.db")

	s, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if s.Existing() {
		t.Error("Existing() should be false for a fresh database")
	}

	revoked, err := s.IsRevoked(ctx, "jti-1")
	if err != nil || revoked {
		t.Fatalf("IsRevoked() = %v, %v, want false, nil", revoked, err)
	}

	if err := s.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke() failed: %v", err)
	}

	revoked, err = s.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Fatalf("IsRevoked() = %v, %v, want true, nil", revoked, err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// revocations survive reopening
	s, err = New(ctx, dbPath)
	if err != nil {
		t.Fatalf("reopening New() failed: %v", err)
	}
	defer s.Close()

	if !s.Existing() {
		t.Error("Existing() should be true for a reopened database")
	}

	revoked, err = s.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Errorf("IsRevoked() after reopen = %v, %v, want true, nil", revoked, err)
	}

	revoked, err = s.IsRevoked(ctx, "jti-2")
	if err != nil || revoked {
		t.Errorf("IsRevoked(jti-2) = %v, %v, want false, nil", revoked, err)
	}
}

func TestRevokeExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	s, err := New(ctx, filepath.Join(t.TempDir(), "expired.sqlite"))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	if err := s.Revoke(ctx, "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke() failed: %v", err)
	}

	revoked, err := s.IsRevoked(ctx, "old")
	if err != nil || revoked {
		t.Errorf("IsRevoked() of expired revocation = %v, %v, want false, nil", revoked, err)
	}

	s.Cleanup(ctx)

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv").Scan(&n); err != nil {
		t.Fatal(err)
	}

	if n != 0 {
		t.Errorf("rows after Cleanup() = %d, want 0", n)
	}
}

func TestHashContent(t *testing.T) {
	t.Parallel()

	a := hashContent("revoked", "abc")
	b := hashContent("revoked", "abc")
	c := hashContent("revokeda", "bc")

	if len(a) != 32 {
		t.Errorf("hashContent() length = %d, want 32", len(a))
	}

	if !bytes.Equal(a, b) {
		t.Error("hashContent() should be deterministic")
	}

	if bytes.Equal(a, c) {
		t.Error("hashContent() should separate bucket and target")
	}
}
