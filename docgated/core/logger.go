package core

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/docgate/docgate/internals/assert"
	"github.com/docgate/docgate/internals/conf"
)

func InitLogger(config *conf.Config) (*slog.Logger, *os.File) {
	logPath := filepath.Join(config.Server.DataDir, "log.txt")
	err := os.MkdirAll(filepath.Dir(logPath), 0o755)
	assert.AssertNil(err, "[CORE] Failed to initialize log directory")
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	assert.AssertNil(err, "[CORE] Failed to open log file")

	logWriter := io.MultiWriter(os.Stdout, logFile)
	handler := tint.NewHandler(logWriter, &tint.Options{
		Level:     ParseLevel(config.Log.Level),
		AddSource: true,
		NoColor:   !isatty.IsTerminal(os.Stdout.Fd()),
	})
	logger := slog.New(handler)

	slog.SetDefault(logger)
	return logger, logFile
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
