package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// OperationTimer provides a defer-friendly way to measure operation duration
//
// Usage:
//
//	defer utils.OperationTimer("refresh_quotes", log)()
func OperationTimer(operation string, log zerolog.Logger) func() {
	start := time.Now()

	return func() {
		duration := time.Since(start)

		log.Debug().
			Str("operation", operation).
			Dur("duration_ms", duration).
			Msg("Operation completed")

		if duration > 30*time.Second {
			log.Warn().
				Str("operation", operation).
				Dur("duration", duration).
				Msg("Slow operation detected")
		}
	}
}

// MeasureMirrorWrite measures a mirror table rewrite.
func MeasureMirrorWrite(table string, log zerolog.Logger) func(rows int) {
	start := time.Now()

	return func(rows int) {
		duration := time.Since(start)

		log.Debug().
			Str("table", table).
			Dur("duration_ms", duration).
			Int("rows", rows).
			Msg("Mirror table written")

		if duration > 5*time.Second {
			log.Warn().
				Str("table", table).
				Dur("duration", duration).
				Msg("Slow mirror write detected")
		}
	}
}
