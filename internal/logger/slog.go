// Package logger provides the process-wide structured logger. Stdout is
// reserved for the MCP stdio transport's JSON-RPC wire, so unlike the
// teacher's dual stdout+file logger, subagentd writes only to stderr and
// a file under SUBAGENTD_LOG_DIR named for the day the process started.
// The file is not rotated while the process runs.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

var (
	slogger *slog.Logger
	logFile *os.File
)

// Init initializes the process-wide slog logger, writing to stderr and
// to a dated file under logDir. jsonOutput selects JSON vs. text
// encoding.
func Init(logDir string, jsonOutput bool) error {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return err
	}

	logFileName := "subagentd-" + time.Now().Format("2006-01-02") + ".log"
	logFilePath := filepath.Join(logDir, logFileName)

	var err error
	logFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	writer := io.MultiWriter(os.Stderr, logFile)

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(writer, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	slogger = slog.New(handler)
	slog.SetDefault(slogger)
	return nil
}

// Close closes the log file.
func Close() error {
	if logFile != nil {
		return logFile.Close()
	}
	return nil
}

// Slog returns the process-wide logger.
func Slog() *slog.Logger {
	if slogger == nil {
		return slog.Default()
	}
	return slogger
}

type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyJobID      contextKey = "job_id"
)

// WithContext returns a logger enriched with whichever correlation IDs
// are present on ctx.
func WithContext(ctx context.Context) *slog.Logger {
	l := Slog()
	if requestID := ctx.Value(ContextKeyRequestID); requestID != nil {
		l = l.With("request_id", requestID)
	}
	if jobID := ctx.Value(ContextKeyJobID); jobID != nil {
		l = l.With("job_id", jobID)
	}
	return l
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Info(msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Error(msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Warn(msg, args...)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Debug(msg, args...)
}
