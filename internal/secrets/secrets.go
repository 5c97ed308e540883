// Package secrets resolves credentials that are given literally, through
// ${VAR} references, or as a mounted file such as /run/secrets/mysql_password.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/courtside/wintracker/internal/errors"
	"github.com/courtside/wintracker/internal/logger"
)

// maxFileSize caps secret file reads; credentials are small.
const maxFileSize = 64 << 10

// Expand replaces ${VAR} and ${VAR:-fallback} references in s.
// A reference without a fallback to an unset variable is an error.
func Expand(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", errors.Newf("missing environment variable(s): %s", strings.Join(missing, ", ")).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return expanded, nil
}

// FromFile reads a secret file, dropping trailing newlines.
// Files readable by group or others are accepted with a warning.
func FromFile(path string) (string, error) {
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return "", fileError(err, cleanPath)
	}
	if !info.Mode().IsRegular() {
		return "", fileError(fmt.Errorf("not a regular file"), cleanPath)
	}
	if info.Size() > maxFileSize {
		return "", fileError(fmt.Errorf("larger than %d bytes", maxFileSize), cleanPath)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Global().Module("secrets").Warn("Secret file is readable by group or others",
			logger.String("path", cleanPath),
			logger.String("mode", fmt.Sprintf("%04o", perm)))
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", fileError(err, cleanPath)
	}

	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", fileError(fmt.Errorf("file is empty"), cleanPath)
	}
	return secret, nil
}

// Resolve returns the contents of file when it is set, otherwise value with
// its ${VAR} references expanded.
func Resolve(file, value string) (string, error) {
	if file != "" {
		return FromFile(file)
	}
	return Expand(value)
}

func fileError(err error, path string) error {
	return errors.New(fmt.Errorf("secret file %s: %w", path, err)).
		Component("secrets").
		Category(errors.CategoryFileIO).
		Context("path", path).
		Build()
}
