package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads environment variables from a .env file.
// It only sets variables that are not already set in the environment.
// Side effects: writes to the process environment via os.Setenv.
func LoadEnvFile(path string) error {
	return godotenv.Load(path)
}

// LoadEnvFileIfExists loads a .env file if it exists, otherwise does nothing.
// Side effects: writes to the process environment if the file is present.
func LoadEnvFileIfExists(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return LoadEnvFile(path)
}
