package config

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv loads .env if present; real env vars win either way.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, using environment variables")
	}
}
