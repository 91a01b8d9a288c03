package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotenv loads environment variables from the first of .env or
// .env.local that exists. godotenv never overrides variables already set
// in the process environment, preserving flag/env precedence. Missing
// files are not an error.
func LoadDotenv() {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
}
