package rbac

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed defaults/model.conf defaults/policy.csv
var defaultsFS embed.FS

// EnsureDefaults writes the built-in model and policy to the given paths when
// no file exists there yet. Existing files are left untouched.
func EnsureDefaults(modelPath, policyPath string) error {
	if err := writeIfMissing(modelPath, "defaults/model.conf"); err != nil {
		return err
	}
	return writeIfMissing(policyPath, "defaults/policy.csv")
}

func writeIfMissing(path, name string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	data, err := defaultsFS.ReadFile(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}
