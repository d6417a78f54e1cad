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

package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dkorunic/classeviva-proxy/classeviva"
	"github.com/dkorunic/classeviva-proxy/logger"
	"github.com/dustin/go-humanize"
	"github.com/google/renameio/v2/maybe"
)

const (
	DefaultRoot = "didactics"
	dirMode     = 0o755
	fileMode    = 0o644
)

var (
	ErrCreateRoot = errors.New("could not create download root directory")
	ErrListing    = errors.New("could not fetch didactics listing")
)

// Fetcher is the part of a Classe Viva session needed to mirror didactics material.
type Fetcher interface {
	DidacticsListing(ctx context.Context) (classeviva.DidacticsListing, error)
	DownloadDidacticsItem(ctx context.Context, item classeviva.DidacticsContent) (*classeviva.Response, error)
}

// Stats summarizes a single mirroring run.
type Stats struct {
	Written int
	Skipped int
	Failed  int
	Bytes   uint64
}

// String returns a human readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("%v written (%v), %v skipped, %v failed", s.Written, humanize.IBytes(s.Bytes), s.Skipped,
		s.Failed)
}

// Didactics mirrors all didactics files into root, as root/teacher/folder/file or, with flatten, as root/file.
// Existing files are never overwritten, so repeated runs only fetch new material. Links are skipped. Failing
// downloads of single files are logged and counted, while context cancellation, session errors and a rejected auth
// token abort the run.
func Didactics(ctx context.Context, f Fetcher, root string, flatten bool) (Stats, error) {
	var stats Stats

	if root == "" {
		root = DefaultRoot
	}

	if err := os.MkdirAll(root, dirMode); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrCreateRoot, err)
	}

	listing, err := f.DidacticsListing(ctx)
	if err != nil {
		return stats, fmt.Errorf("%w: %w", ErrListing, err)
	}

	for _, teacher := range listing.Teachers {
		teacherName := sanitizeName(teacher.TeacherName)

		for _, folder := range teacher.Folders {
			dir := root
			if !flatten {
				dir = filepath.Join(root, teacherName, sanitizeName(folder.FolderName))
			}

			if err := os.MkdirAll(dir, dirMode); err != nil {
				return stats, err
			}

			for _, content := range folder.Contents {
				if content.ObjectType != classeviva.ObjectTypeFile {
					continue
				}

				target := filepath.Join(dir, sanitizeName(content.ContentName))

				if fileExists(target) {
					logger.Debug().Msgf("Skipping existing file %v", target)

					stats.Skipped++

					continue
				}

				n, err := fetchFile(ctx, f, content, target)
				if err != nil {
					if ctx.Err() != nil || isFatal(err) {
						return stats, err
					}

					logger.Warn().Msgf("Unable to download %v: %v", target, err)

					stats.Failed++

					continue
				}

				logger.Info().Msgf("Downloaded %v (%v)", target, humanize.IBytes(uint64(n)))

				stats.Written++
				stats.Bytes += uint64(n)
			}
		}
	}

	return stats, nil
}

// fetchFile downloads a single didactics file and atomically writes it to target.
func fetchFile(ctx context.Context, f Fetcher, content classeviva.DidacticsContent, target string) (int, error) {
	r, err := f.DownloadDidacticsItem(ctx, content)
	if err != nil {
		return 0, err
	}

	if r.Kind != classeviva.KindBinary {
		return 0, fmt.Errorf("%w: %v response", classeviva.ErrUnexpectedStatus, r.Kind)
	}

	if err := maybe.WriteFile(target, r.Bytes, fileMode); err != nil {
		return 0, err
	}

	return len(r.Bytes), nil
}

// isFatal reports errors that would fail every following download as well.
func isFatal(err error) bool {
	return errors.Is(err, classeviva.ErrNotLoggedIn) || errors.Is(err, classeviva.ErrAuthenticationFailed) ||
		errors.Is(err, classeviva.ErrTokenRejected)
}

// sanitizeName turns a remote name into a single safe path element.
func sanitizeName(name string) string {
	name = strings.NewReplacer("/", "-", "\\", "-").Replace(strings.TrimSpace(name))

	switch name {
	case "", ".", "..":
		return "_"
	}

	return name
}

// fileExists checks if the path exists on the filesystem and returns boolean.
func fileExists(filePath string) bool {
	_, err := os.Lstat(filePath)

	return !errors.Is(err, os.ErrNotExist)
}
