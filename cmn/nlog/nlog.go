// Package nlog - dss logger: leveled, timestamped, written to stderr or a file
/*
 * Copyright (c) 2023-2026, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type severity int

const (
	sevDebug severity = iota
	sevInfo
	sevWarn
	sevErr
)

var (
	toStderr = true
	verbose  bool
	title    string

	mu     sync.Mutex
	logger = newLogger(os.Stderr)
	file   *os.File
)

// sub-second timestamps (the console writer parses them back with this format)
func init() { zerolog.TimeFieldFormat = time.RFC3339Nano }

func newLogger(w io.Writer) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000000", NoColor: w != os.Stderr}
	l := zerolog.New(out).With().Timestamp().Logger()
	if verbose {
		return l.Level(zerolog.DebugLevel)
	}
	return l.Level(zerolog.InfoLevel)
}

func setLevel() {
	mu.Lock()
	if verbose {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}
	mu.Unlock()
}

// SetOutput redirects all subsequent records; used by tests and by the CLI (see `SetLogFile`)
func SetOutput(w io.Writer) {
	mu.Lock()
	logger = newLogger(w)
	mu.Unlock()
}

// SetLogFile appends to the named file; empty name reverts to stderr
func SetLogFile(fname string) error {
	if fname == "" {
		toStderr = true
		SetOutput(os.Stderr)
		return nil
	}
	f, err := os.OpenFile(fname, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	mu.Lock()
	prev := file
	file = f
	logger = newLogger(f)
	toStderr = false
	mu.Unlock()
	if prev != nil {
		prev.Close()
	}
	return nil
}

func log(sev severity, format string, args ...any) {
	var msg string
	if format == "" {
		msg = fmt.Sprintln(args...)
		msg = msg[:len(msg)-1]
	} else {
		msg = fmt.Sprintf(format, args...)
	}
	mu.Lock()
	l := logger
	mu.Unlock()

	var ev *zerolog.Event
	switch sev {
	case sevDebug:
		ev = l.Debug()
	case sevInfo:
		ev = l.Info()
	case sevWarn:
		ev = l.Warn()
	default:
		ev = l.Error()
	}
	if title != "" {
		ev = ev.Str("app", title)
	}
	ev.Msg(msg)
}

func flush() {
	mu.Lock()
	if file != nil {
		file.Sync()
	}
	mu.Unlock()
}
