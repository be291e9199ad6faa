package command

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joeycumines/goap/internal/config"
)

// logConfig holds resolved logging configuration.
type logConfig struct {
	level   slog.Level
	logFile *os.File // nil logs to stderr
}

// resolveLogConfig resolves log configuration from flags and config. A flag
// wins when it is set; otherwise the config (or its env override) is used.
// The caller must Close the returned logFile when it is non-nil.
func resolveLogConfig(flagPath, flagLevel string, cfg *config.Config) (logConfig, error) {
	schema := config.DefaultSchema()
	var lc logConfig

	levelStr := flagLevel
	if levelStr == "" {
		levelStr = schema.Resolve(cfg, config.KeyLogLevel)
	}
	switch strings.ToLower(levelStr) {
	case "debug":
		lc.level = slog.LevelDebug
	case "info", "":
		lc.level = slog.LevelInfo
	case "warn":
		lc.level = slog.LevelWarn
	case "error":
		lc.level = slog.LevelError
	default:
		return lc, fmt.Errorf("invalid log level: %s", levelStr)
	}

	logPath := flagPath
	if logPath == "" {
		logPath = schema.Resolve(cfg, config.KeyLogFile)
	}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return lc, fmt.Errorf("failed to open log file %s: %w", logPath, err)
		}
		lc.logFile = f
	}

	return lc, nil
}

// logger returns a JSON logger writing to the log file, or a text logger
// writing to stderr.
func (lc logConfig) logger(stderr io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lc.level}
	if lc.logFile != nil {
		return slog.New(slog.NewJSONHandler(lc.logFile, opts))
	}
	return slog.New(slog.NewTextHandler(stderr, opts))
}

func (lc logConfig) Close() error {
	if lc.logFile == nil {
		return nil
	}
	return lc.logFile.Close()
}
