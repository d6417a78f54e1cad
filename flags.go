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
	"errors"
	"fmt"
	"os"

	"github.com/dkorunic/classeviva-proxy/config"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

const (
	DefaultConfFile = ".classeviva.toml" // default configuration filename
	envVarPrefix    = "CLASSEVIVA"
)

var (
	debug, colorLogs, downloadMode, flatten *bool
	confFile, listenAddr, outputDir, dbFile *string
)

// newFlagSet defines all command line flags.
func newFlagSet() *ff.FlagSet {
	fs := ff.NewFlagSet("classeviva-proxy")

	debug = fs.Bool('v', "verbose", "enable verbose/debug log level")
	colorLogs = fs.Bool('l', "colorlogs", "enable colorized console logs")
	confFile = fs.String('f', "conffile", DefaultConfFile, "configuration file (in TOML)")
	listenAddr = fs.String('a', "listen", "", "proxy listen address, overrides configuration")
	downloadMode = fs.Bool('D', "download", "download all didactics material and exit")
	outputDir = fs.String('o', "output", "", "didactics download directory, overrides configuration")
	flatten = fs.Bool('F', "flatten", "download didactics without teacher/folder hierarchy")
	dbFile = fs.String('b', "database", "", "token revocation database file, overrides configuration")

	return fs
}

// parseFlags parses input arguments, flags and CLASSEVIVA_* environment variables.
func parseFlags() {
	fs := newFlagSet()

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix(envVarPrefix)); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))

		if errors.Is(err, ff.ErrHelp) {
			os.Exit(0)
		}

		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags overrides configuration values with the ones explicitly given on the command line.
func applyFlags(cfg *config.TomlConfig) {
	if *listenAddr != "" {
		cfg.Server.Listen = *listenAddr
	}

	if *outputDir != "" {
		cfg.Download.Root = *outputDir
	}

	if *dbFile != "" {
		cfg.Server.Database = *dbFile
	}

	if *flatten {
		cfg.Download.Flatten = true
	}
}
