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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkorunic/classeviva-proxy/logger"
	_ "modernc.org/sqlite" // register pure-Go sqlite database/sql driver
)

const (
	DefaultDBPath = ".classeviva-proxy.db"
	bucketRevoked = "revoked"
)

var (
	ErrSqliteOpen        = errors.New("could not open Sqlite database")
	ErrSqliteCreateTable = errors.New("could not create table")
)

// Store is a persistent list of revoked proxy bearer tokens, keyed by token ID.
type Store struct {
	db         *sql.DB
	isExisting bool // already created/initialized db
}

// New opens a new database, flagging if the database already preexisting. Expired revocations are purged on open.
func New(ctx context.Context, filePath string) (*Store, error) {
	if filePath == "" {
		filePath = DefaultDBPath
	}

	// Add .sqlite suffix if not present
	if !strings.HasSuffix(filePath, ".sqlite") {
		filePath = strings.Join([]string{filePath, ".sqlite"}, "")
	}

	isExisting := dbExists(filePath)

	logger.Debug().Msgf("Opening database: %v", filePath)

	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSqliteOpen, err)
	}

	// single connection, sqlite serializes writers anyway
	db.SetMaxOpenConns(1)

	query := `
	CREATE TABLE IF NOT EXISTS kv (
		key BLOB PRIMARY KEY,
		value BLOB,
		expires_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_expires_at ON kv(expires_at);
	`
	if _, err = db.ExecContext(ctx, query); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("%w: %w", ErrSqliteCreateTable, err)
	}

	s := &Store{db: db, isExisting: isExisting}

	s.cleanup(ctx)

	return s, nil
}

// Close closes database.
func (s *Store) Close() error {
	logger.Debug().Msg("Closing database")

	return s.db.Close()
}

// Existing returns if the database was already present before opening.
func (s *Store) Existing() bool {
	return s.isExisting
}

// Revoke marks the token ID as revoked until expiresAt, after which the token is rejected on its own.
func (s *Store) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	key := hashContent(bucketRevoked, tokenID)

	_, err := s.db.ExecContext(ctx, "INSERT OR REPLACE INTO kv (key, value, expires_at) VALUES (?, ?, ?)", key,
		[]byte(""), expiresAt.Unix())

	return err
}

// IsRevoked checks if the token ID has been revoked and the revocation has not expired yet.
func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := hashContent(bucketRevoked, tokenID)

	var expiresAt sql.NullInt64

	err := s.db.QueryRowContext(ctx, "SELECT expires_at FROM kv WHERE key = ?", key).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	if expiresAt.Valid && expiresAt.Int64 < time.Now().Unix() {
		return false, nil
	}

	return true, nil
}

// Cleanup removes expired revocations.
func (s *Store) Cleanup(ctx context.Context) {
	s.cleanup(ctx)
}

// cleanup removes expired keys.
func (s *Store) cleanup(ctx context.Context) {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at < ?",
		time.Now().Unix())
	if err != nil {
		logger.Error().Msgf("Failed to cleanup expired keys: %v", err)
	}
}
