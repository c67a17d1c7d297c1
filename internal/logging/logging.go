// Package logging sets up the structured logger. Log output goes to a
// rotating file so long-running imports and exports leave a trace without
// growing without bound.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup builds a slog.Logger writing to the given file, rotating at a
// size limit, and installs it as the default. An empty path logs to
// stderr. The returned closer flushes and closes the log file.
func Setup(path string, verbose bool) (*slog.Logger, io.Closer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	if path == "" {
		log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(log)
		return log, io.NopCloser(nil)
	}

	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    envInt("THORAX_LOG_MAX_SIZE", 10), // megabytes
		MaxBackups: envInt("THORAX_LOG_MAX_BACKUPS", 3),
		MaxAge:     envInt("THORAX_LOG_MAX_AGE", 30), // days
	}
	log := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log, out
}

func envInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}
