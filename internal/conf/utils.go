package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/courtside/wintracker/internal/errors"
)

const appDir = "wintracker"

// GetDefaultConfigPaths lists the directories searched for config.yaml,
// working directory first. When one of them already holds a config file the
// search is narrowed to that directory.
func GetDefaultConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategorySystem).
			Context("operation", "resolve_home_dir").
			Build()
	}

	paths := []string{".", filepath.Join(home, ".config", appDir), filepath.Join("/etc", appDir)}
	if runtime.GOOS == "windows" {
		paths = []string{".", filepath.Join(home, "AppData", "Roaming", appDir)}
	}

	for _, dir := range paths {
		if info, err := os.Stat(filepath.Join(dir, "config.yaml")); err == nil && !info.IsDir() {
			return []string{dir}, nil
		}
	}
	return paths, nil
}

// GetBasePath expands environment variables in path and makes sure the
// directory exists.
func GetBasePath(path string) (string, error) {
	dir := filepath.Clean(os.ExpandEnv(path))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("operation", "create_base_path").
			Context("path", dir).
			Build()
	}
	return dir, nil
}
