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
	"fmt"
	"time"

	"github.com/blang/semver/v4"
	"github.com/dkorunic/classeviva-proxy/logger"
	"github.com/google/go-github/v75/github"
	"github.com/tj/go-spin"
)

const (
	spinnerRotateDelay = 100 * time.Millisecond // spinner delay
	githubOrg          = "dkorunic"
	githubRepo         = "classeviva-proxy"
)

// spinner shows a spiffy terminal spinner while waiting endlessly.
func spinner() {
	s := spin.New()

	for {
		fmt.Printf("\rWaiting... %v", s.Next())
		time.Sleep(spinnerRotateDelay)
	}
}

// parseTag semver-parses a git tag, with or without the leading 'v'.
func parseTag(tag string) (semver.Version, error) {
	if tag != "" && tag[0] == 'v' {
		tag = tag[1:]
	}

	return semver.Parse(tag)
}

// versionCheck checks for updates in the background by comparing the current version of the application with the
// latest release available on GitHub. If a newer version is available, it logs an informational message.
func versionCheck(ctx context.Context) {
	// if we don't have a tag or if it is a local source-build, we don't need to check for updates
	if GitTag == "" || GitDirty != "" {
		return
	}

	go func() {
		currentTag, err := parseTag(GitTag)
		if err != nil {
			logger.Error().Msgf("Unable to parse current version of classeviva-proxy: %v", err)

			return
		}

		client := github.NewClient(nil)

		latestRelease, _, err := client.Repositories.GetLatestRelease(ctx, githubOrg, githubRepo)
		if err != nil {
			logger.Error().Msgf("Unable to check latest version of classeviva-proxy: %v", err)

			return
		}

		latestTag, err := parseTag(latestRelease.GetTagName())
		if err != nil {
			logger.Error().Msgf("Unable to parse latest version of classeviva-proxy: %v", err)

			return
		}

		if latestTag.GT(currentTag) {
			logger.Info().Msgf("Newer version of classeviva-proxy is available: %v", latestTag)
		}
	}()
}
