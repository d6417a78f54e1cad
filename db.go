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

package main

import (
	"context"
	"time"

	"github.com/dkorunic/classeviva-proxy/logger"
	"github.com/dkorunic/classeviva-proxy/sqlitedb"
)

const cleanupInterval = time.Hour

// openDB opens the token revocation database and returns handle to it.
//
// If there is a problem while opening the database, it will log the error and
// exit the program.
func openDB(ctx context.Context, file string) *sqlitedb.Store {
	store, err := sqlitedb.New(ctx, file)
	if err != nil {
		logger.Fatal().Msgf("Unable to open token revocation database: %v", err)
	}

	if store.Existing() {
		logger.Debug().Msg("Reusing existing token revocation database")
	}

	return store
}

// closeDB closes the token revocation database.
func closeDB(store *sqlitedb.Store) {
	if err := store.Close(); err != nil {
		logger.Error().Msgf("Unable to close token revocation database: %v", err)
	}
}

// startCleanup periodically purges expired revocations until ctx is cancelled.
func startCleanup(ctx context.Context, store *sqlitedb.Store) {
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				store.Cleanup(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}
