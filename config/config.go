package config

import (
	"fmt"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration holds the runtime settings for the service.
type Configuration struct {
	Address    string `env:"ADDRESS" envDefault:":8080"`
	DBHost     string `env:"DATABASE_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DATABASE_PORT" envDefault:"5432"`
	DBUser     string `env:"DATABASE_USER" envDefault:"postgres"`
	DBPassword string `env:"DATABASE_PASSWORD" envDefault:""`
	DBName     string `env:"DATABASE_NAME" envDefault:"objectcatalog"`
	DBSSLMode  string `env:"DATABASE_SSLMODE" envDefault:"disable"`
}

// Load reads a local .env file when present, then the environment.
func Load() (Configuration, error) {
	_ = godotenv.Load()

	var cfg Configuration
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// DSN assembles the Postgres connection string.
func (c Configuration) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}
