package config

import (
	"log"

	"github.com/Skotchmaster/storefront/pkg/config"
	"github.com/joho/godotenv"
)

type ServiceConfig struct {
	config.Config
}

// Load reads .env when present, then the environment, and exits on missing
// required settings.
func Load() ServiceConfig {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := config.Load()

	config.MustComplete(cfg)

	return ServiceConfig{Config: cfg}
}
