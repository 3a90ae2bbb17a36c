// Package logger builds the process-wide zerolog logger. Level comes from
// LOG_LEVEL; the bot runs as a long-lived service so output is plain JSON
// unless LOG_PRETTY asks for the console writer.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by the logger
type ContextKey string

const (
	// LoggerKey is the context key for the logger instance
	LoggerKey ContextKey = "logger"
)

// New creates the service logger. LOG_LEVEL selects the minimum level
// (default info); LOG_PRETTY=1 switches to the human console writer.
func New(service string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if os.Getenv("LOG_PRETTY") == "1" {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(out).
		Level(levelFromEnv()).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// NewWithWriter creates a logger with a custom writer, for tests.
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

func levelFromEnv() zerolog.Level {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from the context or returns a default logger
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return New("masareef")
}

// WithConversation tags a logger with the conversation a message belongs
// to, so every pipeline line for one chat is groupable.
func WithConversation(logger zerolog.Logger, conversationID int64) zerolog.Logger {
	return logger.With().Int64("conversation_id", conversationID).Logger()
}
