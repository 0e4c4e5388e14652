package config

import (
	"os"
	"path/filepath"
)

// DataDir returns the directory used to store tvrel state.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	// Use a dot-directory in the user's home on all platforms
	return filepath.Join(home, ".tvrel"), nil
}

// DBPath returns the full path to the SQLite ledger file.
func DBPath() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "tvrel.db"), nil
}
