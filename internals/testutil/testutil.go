package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

// TempDataDir returns a fresh docgate data directory.
func TempDataDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

func TempDBPath(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	return filepath.Join(root, "documents.db")
}

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
