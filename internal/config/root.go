package config

import (
	"os"
	"path/filepath"
)

// FindRoot walks up from start looking for a directory that holds the
// state directory. When none is found it returns start, so a fresh
// project is rooted where the server was launched.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	current := dir
	for {
		info, err := os.Stat(filepath.Join(current, DefaultStateDir))
		if err == nil && info.IsDir() {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return dir, nil
		}
		current = parent
	}
}
