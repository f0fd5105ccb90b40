// Package logging configures the daemon's zerolog output: a readable
// console writer plus an optional JSON file sink.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

type Config struct {
	Level string
	File  string // optional JSON log file; empty disables
}

// New builds the root logger. The returned close func flushes and closes
// the file sink, if any.
func New(cfg Config) (zerolog.Logger, func(), error) {
	zerolog.TimeFieldFormat = timeFormat
	zerolog.ErrorFieldName = "err"

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: timeFormat}}
	closeFn := func() {}

	if path := strings.TrimSpace(cfg.File); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		writers = append(writers, zerolog.SyncWriter(f))
		closeFn = func() { _ = f.Close() }
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseLevel(cfg.Level)).
		With().Timestamp().Logger()
	return log, closeFn, nil
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
