package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables understood by kioku.
const (
	EnvDB     = "KIOKU_DB"
	EnvConfig = "KIOKU_CONFIG"
	EnvSeed   = "KIOKU_SEED"
)

// LoadEnv loads variables from the given .env files. Missing files are
// skipped and variables already set in the environment win.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}
