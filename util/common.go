package util

import (
	"os"
	"path/filepath"
)

// FileExists returns true if specified file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ExecutableDir returns the directory holding the running binary, falling back
// to the working directory when it cannot be resolved.
func ExecutableDir() string {
	exePath, err := os.Executable()
	if err == nil {
		return filepath.Dir(exePath)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
