// Package xlog configures the structured logger used for executor debug
// tracing (xtrace-style `set -x` output and internal diagnostics).
package xlog

import (
	"context"
	"io"
	"log/slog"
)

// New returns a logger that writes to w. When debug is false the returned
// logger discards everything below slog.LevelWarn (no allocation on the
// hot path beyond the level check).
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(handler)
}

// Discard is a logger that drops everything; used when no Options.Debug
// sink is configured.
var Discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// XTrace logs one expanded-command trace line in the style of `sh -x`.
func XTrace(ctx context.Context, logger *slog.Logger, line string) {
	if logger == nil {
		return
	}
	logger.DebugContext(ctx, line, slog.String("event", "xtrace"))
}
