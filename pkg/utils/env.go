package utils

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"

	"fotoforge/pkg/logger"
)

// LoadEnv reads a .env file from the working directory when one exists.
// Variables already present in the environment win.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			logger.LogWarn("Could not read env file %s: %v", f, err)
		}
	}
}
