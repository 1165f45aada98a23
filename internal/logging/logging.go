// Package logging builds the zerolog logger cmd/simulate logs through,
// configured from LOG_LEVEL/LOG_FORMAT so a run can switch between
// human-readable console output during development and JSON for anything
// ingesting the log stream. The internal packages take no logger and do
// not log.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger from LOG_LEVEL ("debug"|"info"|"warn"|
// "error", default "info") and LOG_FORMAT ("console"|"json", default
// "console").
func New() zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(envOr("LOG_LEVEL", "info")))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var writer interface{ Write([]byte) (int, error) }
	if strings.ToLower(envOr("LOG_FORMAT", "console")) == "json" {
		writer = os.Stderr
	} else {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
