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
	"errors"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/dkorunic/classeviva-proxy/classeviva"
	"github.com/dkorunic/classeviva-proxy/config"
	"github.com/dkorunic/classeviva-proxy/download"
	"github.com/dkorunic/classeviva-proxy/logger"
	"github.com/dkorunic/classeviva-proxy/server"
	"github.com/dkorunic/classeviva-proxy/version"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	sysdnotify "github.com/iguanesolutions/go-systemd/v6/notify"
	sysdwatchdog "github.com/iguanesolutions/go-systemd/v6/notify/watchdog"
)

const (
	maxMemRatio     = 0.9
	statusServing   = "Proxy serving requests"
	statusStopping  = "Proxy shutting down"
	durationUnitsHR = 2
)

var (
	GitTag    = ""
	GitCommit = ""
	GitDirty  = ""
	BuildTime = ""

	ErrNoStoredCredentials = errors.New("download mode requires user credentials in the configuration file")
)

// main is the entry point of the application.
//
// It parses flags, sets the global log level, configures GOMEMLIMIT, sets up a context with signal integration,
// loads the TOML config and either mirrors didactics material once or serves the proxy until a stop signal.
func main() {
	parseFlags()

	initLog()

	logger.Info().Msgf("classeviva-proxy %v %v%v, built on %v, with %v", GitTag, GitCommit, GitDirty,
		BuildTime, runtime.Version())

	// configure GOMEMLIMIT to 90% of available memory (Cgroups v2/v1 or system)
	limit, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(maxMemRatio),
		memlimit.WithProvider(
			memlimit.ApplyFallback(
				memlimit.FromCgroup,
				memlimit.FromSystem,
			),
		),
	)

	if err != nil {
		logger.Warn().Msgf("Unable to get/set GOMEMLIMIT: %v", err)
	} else {
		logger.Debug().Msgf("GOMEMLIMIT is set to: %v", humanize.Bytes(uint64(limit))) //nolint:gosec
	}

	logger.Debug().Msgf("GOMAXPROCS limit is set to: %v", runtime.GOMAXPROCS(0))

	if sysdnotify.IsEnabled() {
		logger.Debug().Msg("Detected and enabled systemd notify support")
	}

	// context with signal integration
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(*confFile)
	if err != nil {
		logger.Fatal().Msgf("Error loading configuration: %v", err)
	}

	applyFlags(&cfg)

	session := classeviva.New(cfg.User.Username, cfg.User.Password,
		classeviva.WithBaseURL(cfg.Remote.BaseURL),
		classeviva.WithTimeout(cfg.Remote.Timeout))

	logger.Debug().Msgf("Using %v and %v for remote API %v", version.ReadVersion("github.com/go-resty/resty/v2"),
		version.ReadVersion("github.com/avast/retry-go/v4"), cfg.Remote.BaseURL)

	if *downloadMode {
		err = downloadDidactics(ctx, cfg, session)
	} else {
		versionCheck(ctx)

		err = serve(ctx, cfg, session)
	}

	if err != nil {
		logger.Fatal().Msgf("Exiting with an error: %v", err)
	}

	logger.Info().Msg("Exiting with a success.")
}

// downloadDidactics logs in with the stored credentials and mirrors all didactics material to the configured
// directory.
func downloadDidactics(ctx context.Context, cfg config.TomlConfig, session *classeviva.Session) error {
	if !cfg.HasCredentials() {
		return ErrNoStoredCredentials
	}

	start := time.Now()

	id, err := session.Login(ctx, "", "")
	if err != nil {
		return err
	}

	logger.Info().Msgf("Logged in as %v %v, downloading didactics to %v", id.FirstName, id.LastName,
		cfg.Download.Root)

	stats, err := download.Didactics(ctx, session, cfg.Download.Root, cfg.Download.Flatten)
	if err != nil {
		return err
	}

	logger.Info().Msgf("Didactics download completed in %v: %v",
		durafmt.Parse(time.Since(start)).LimitFirstN(durationUnitsHR), stats)

	return nil
}

// serve runs the HTTP proxy until ctx is cancelled.
func serve(ctx context.Context, cfg config.TomlConfig, session *classeviva.Session) error {
	store := openDB(ctx, cfg.Server.Database)
	defer closeDB(store)

	startCleanup(ctx, store)

	srv, err := server.New(session, server.Options{
		Secret:  []byte(cfg.Server.Secret),
		TTL:     cfg.Server.TTL,
		Revoker: store,
	})
	if err != nil {
		return err
	}

	logger.Info().Msgf("Starting proxy with %v, bearer tokens valid for %v",
		version.ReadVersion("github.com/gin-gonic/gin"), durafmt.Parse(cfg.Server.TTL))

	_ = sysdnotify.Ready()
	_ = sysdnotify.Status(statusServing)

	startSystemdWatchdog(ctx)

	go func() {
		<-ctx.Done()

		logger.Info().Msg("Received stop signal, shutting down")

		_ = sysdnotify.Stopping()
		_ = sysdnotify.Status(statusStopping)

		if isTerminal() {
			go spinner()
		}
	}()

	return srv.Run(ctx, cfg.Server.Listen)
}

// startSystemdWatchdog sets up the systemd watchdog for the application.
//
// It initializes a systemd watchdog and starts a goroutine that sends
// periodic heartbeat signals to systemd. The function listens for context
// cancellation, upon which it stops sending heartbeats and exits the
// goroutine.
func startSystemdWatchdog(ctx context.Context) {
	watchdog, _ := sysdwatchdog.New()
	if watchdog != nil {
		logger.Debug().Msg("Detected and enabled systemd watchdog support")

		go func() {
			ticker := watchdog.NewTicker()
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					_ = watchdog.SendHeartbeat()
				case <-ctx.Done():
					return
				}
			}
		}()
	}
}
