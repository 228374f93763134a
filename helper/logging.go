package helper

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// NewLogger creates the default logger: pretty console output on stdout and,
// if logFile is non-empty, a JSON sink appended to that file.
// The returned cleanup closes the file sink and is safe to call always.
func NewLogger(level slog.Level, logFile string) (*slog.Logger, func() error) {
	consoleHandler := NewPrettyHandler(os.Stdout, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: level},
	})

	if logFile == "" {
		return slog.New(consoleHandler), func() error { return nil }
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Error("failed to open log file, using console only", "error", err, "file", logFile)
		return slog.New(consoleHandler), func() error { return nil }
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	logger := slog.New(slogmulti.Fanout(consoleHandler, fileHandler))

	return logger, file.Close
}

// NewLoggerWithWriters creates a logger with custom writers (for testing)
func NewLoggerWithWriters(console, file io.Writer, level slog.Level) *slog.Logger {
	consoleHandler := NewPrettyHandler(console, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: level},
	})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(consoleHandler, fileHandler))
}
