package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env.local then .env from dir. Variables already set in the process
// environment are never overwritten, and .env.local wins over .env.
// It returns the files that were loaded.
func LoadDotEnv(dir string) []string {
	var loaded []string
	for _, name := range []string{".env.local", ".env"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			loaded = append(loaded, path)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}
