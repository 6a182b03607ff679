package config

import (
	"os"
	"path/filepath"
)

const appDirName = "calclog"

// DefaultDataDir picks where the Pebble store lives when no data dir is
// configured. XDG_DATA_HOME wins, then the platform's per-user application
// data directory, then ~/.calclog. Without a home directory it falls back to
// ./data.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}
	candidates := []struct{ probe, dir string }{
		{filepath.Join(home, "Library"), filepath.Join(home, "Library", "Application Support", appDirName)},
		{filepath.Join(home, "AppData"), filepath.Join(home, "AppData", "Local", appDirName)},
	}
	for _, c := range candidates {
		if isDir(c.probe) {
			return c.dir
		}
	}
	return filepath.Join(home, "."+appDirName)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
