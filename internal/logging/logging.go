// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// FormatConsole renders human-readable lines on stderr.
	FormatConsole = "console"
	// FormatJSON emits one JSON object per line.
	FormatJSON = "json"
)

// New builds a logger writing to stderr in the given format, optionally
// teeing to a rotating log file. An unknown level falls back to info.
// Stderr is the only process output the logger touches; stdout stays free
// for payloads such as the worker's outcome JSON.
func New(level, format, file string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var w io.Writer = os.Stderr
	if format != FormatJSON {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err == nil {
			rotated := &lumberjack.Logger{
				Filename:   file,
				MaxSize:    10, // MB
				MaxBackups: 3,
			}
			w = zerolog.MultiLevelWriter(w, rotated)
		}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
