package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var logFile *os.File

func FlushAndClose() error {
	if logFile == nil {
		return nil
	}
	_ = logFile.Sync()

	return logFile.Close()
}

// NewLoggerWithLevel writes to stdout and to a new file inside logDir. logLevel is one of debug,
// info, warn or error; when empty or unknown the debug flag decides between debug and info.
func NewLoggerWithLevel(logLevel string, debug bool, logDir, name string) (*slog.Logger, error) {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("error creating log directory: %w", err)
	}

	fileName := fmt.Sprintf("Beltkeeper-log-%s.txt", time.Now().Format("2006-01-02-15-04-05"))
	if name != "" {
		fileName = fmt.Sprintf("Beltkeeper-log-%s-%s.txt", name, time.Now().Format("2006-01-02-15-04-05"))
	}

	f, err := os.Create(filepath.Join(logDir, fileName))
	if err != nil {
		return nil, err
	}
	logFile = f

	opts := &slog.HandlerOptions{
		Level: ParseLevel(logLevel, debug),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key != slog.TimeKey {
				return a
			}
			a.Value = slog.StringValue(a.Value.Time().Format(time.TimeOnly))

			return a
		},
	}

	return slog.New(slog.NewTextHandler(io.MultiWriter(logFile, os.Stdout), opts)), nil
}

func ParseLevel(logLevel string, debug bool) slog.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if debug {
		return slog.LevelDebug
	}

	return slog.LevelInfo
}
