// Package obslog provides the structured logging wrapper used by the
// txclassify CLI; the classifier packages themselves do not log. It wraps
// log/slog the way the wider validator codebase
// does, rather than introducing a third-party logging dependency for a
// concern the standard library already covers well.
package obslog

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with component tagging conventions used
// throughout this module's ambient code.
type Logger struct {
	*slog.Logger
}

// Config controls the handler a Logger is built with.
type Config struct {
	Level  slog.Level
	Format string // "json" or "text"
	Output io.Writer
}

// DefaultConfig returns a text logger writing to stderr at Info level, so
// that stdout stays free for a CLI's JSON result output.
func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Format: "text", Output: os.Stderr}
}

// New builds a Logger from cfg, defaulting any zero-valued field.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Default returns a ready-to-use Logger with DefaultConfig.
func Default() *Logger {
	return New(DefaultConfig())
}

// WithComponent tags every subsequent log line from the returned logger
// with component, matching the "component"-field convention the rest of
// the validator codebase uses.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component)}
}

// WithChain tags every subsequent log line with the chain ID being
// classified.
func (l *Logger) WithChain(chainID uint64) *Logger {
	return &Logger{Logger: l.Logger.With("chain_id", chainID)}
}

// WithTx tags every subsequent log line with a transaction hash.
func (l *Logger) WithTx(hash string) *Logger {
	return &Logger{Logger: l.Logger.With("tx_hash", hash)}
}

// LogClassification records a single classification outcome at Info
// level, or Warn when the result fell through to UnclassifiedComplex.
func (l *Logger) LogClassification(ctx context.Context, primaryType string, confidence float64, cacheHit bool) {
	level := slog.LevelInfo
	if primaryType == "UnclassifiedComplex" {
		level = slog.LevelWarn
	}
	l.Logger.Log(ctx, level, "classification complete",
		"primary_type", primaryType,
		"confidence", confidence,
		"cache_hit", cacheHit,
	)
}
