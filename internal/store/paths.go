package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDBName is the corpus database file name under ~/.snowball.
const DefaultDBName = "corpus.db"

// GlobalSnowballPath returns the path to the global .snowball directory.
// On Unix: ~/.snowball
// On Windows: %USERPROFILE%\.snowball
func GlobalSnowballPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".snowball"), nil
}

// DefaultDBPath returns ~/.snowball/corpus.db.
func DefaultDBPath() (string, error) {
	dir, err := GlobalSnowballPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultDBName), nil
}

// IsDatabasePath reports whether path names a SQLite corpus database by
// its extension.
func IsDatabasePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}
