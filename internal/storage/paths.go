// Package storage persists training runs: network snapshots, per-episode
// records and aggregate statistics.
package storage

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const appName = "selfchess"

// HomeEnv overrides the data directory when set.
const HomeEnv = "SELFCHESS_HOME"

// GetDataDir returns the directory all training state lives under, creating
// it if needed. $SELFCHESS_HOME wins; otherwise a "selfchess" directory is
// placed in the platform's per-user data location.
func GetDataDir() (string, error) {
	dataDir := os.Getenv(HomeEnv)
	if dataDir == "" {
		base, err := userDataBase()
		if err != nil {
			return "", errors.Wrap(err, "failed to locate data directory")
		}
		dataDir = filepath.Join(base, appName)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create %s", dataDir)
	}
	return dataDir, nil
}

// userDataBase picks the per-user data root: Application Support on macOS,
// %APPDATA% on Windows and $XDG_DATA_HOME elsewhere, each falling back to
// its conventional path under the home directory.
func userDataBase() (string, error) {
	envVar, fallback := "XDG_DATA_HOME", []string{".local", "share"}
	switch runtime.GOOS {
	case "darwin":
		envVar, fallback = "", []string{"Library", "Application Support"}
	case "windows":
		envVar, fallback = "APPDATA", []string{"AppData", "Roaming"}
	}

	if envVar != "" {
		if dir := os.Getenv(envVar); dir != "" {
			return dir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, fallback...)...), nil
}

// GetWeightsDir returns the directory checkpoint weight files are exported to.
func GetWeightsDir() (string, error) {
	return subDir("weights")
}

// GetDatabaseDir returns the directory for storing the BadgerDB database.
func GetDatabaseDir() (string, error) {
	dbDir, err := subDir("db")
	if err != nil {
		return "", err
	}
	log.Debug().Str("dir", dbDir).Msg("database directory")
	return dbDir, nil
}

func subDir(name string) (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(dataDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create %s", dir)
	}
	return dir, nil
}
