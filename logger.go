package distkmeans

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with distkmeans-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithRank adds the worker's rank and the group size.
func (l *Logger) WithRank(rank, world int) *Logger {
	return &Logger{
		Logger: l.Logger.With("rank", rank, "world", world),
	}
}

// WithRound adds a round field to the logger.
func (l *Logger) WithRound(round int) *Logger {
	return &Logger{
		Logger: l.Logger.With("round", round),
	}
}

// LogInit logs the completion of dataset distribution and center initialization.
func (l *Logger) LogInit(ctx context.Context, points, k int, duration time.Duration) {
	l.InfoContext(ctx, "initialized",
		"points", points,
		"k", k,
		"duration", duration,
	)
}

// LogRound logs one assignment+update round at Debug. Use it on a logger
// from WithRound. empty lists the clusters that kept their previous center.
func (l *Logger) LogRound(ctx context.Context, empty []int, duration time.Duration) {
	if len(empty) > 0 {
		l.DebugContext(ctx, "round completed with empty clusters",
			"empty_clusters", empty,
			"duration", duration,
		)
		return
	}
	l.DebugContext(ctx, "round completed",
		"duration", duration,
	)
}

// LogConverged logs the end of a run.
func (l *Logger) LogConverged(ctx context.Context, rounds int, stoppedEarly bool, elapsed time.Duration) {
	l.InfoContext(ctx, "converged",
		"rounds", rounds,
		"stopped_early", stoppedEarly,
		"elapsed", elapsed,
	)
}

// LogAbort logs a failed run.
func (l *Logger) LogAbort(ctx context.Context, err error) {
	l.ErrorContext(ctx, "run aborted",
		"error", err,
	)
}
