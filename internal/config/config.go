// Package config loads service configuration from environment
// variables and an optional .env file.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	Env  string `validate:"required,oneof=dev prod"`
	HTTP struct {
		Addr string `validate:"required"`
	}
	Log struct {
		ConsoleLevel string `validate:"required,oneof=debug info warn error"`
		FileLevel    string `validate:"required,oneof=debug info warn error"`
		File         string
	}
	Errors struct {
		// ServicePrefix tags every default error identifier.
		ServicePrefix string `validate:"required"`
		// Debug surfaces real Internal messages and context at the HTTP
		// boundary. Local development only; refused outside dev.
		Debug bool
		// IncidentBuffer sizes the fire-and-forget incident sink.
		IncidentBuffer int `validate:"gte=0"`
	}
	DB struct {
		Driver     string `validate:"required,oneof=sqlite postgres"`
		SQLitePath string
		PGDSN      string
		Migrations string `validate:"required"`
	}
	Pricing struct {
		BaseURL string `validate:"required,url"`
	}
	Maintenance struct {
		// PruneSchedule is a cron expression; empty disables pruning.
		PruneSchedule string
		PruneMaxAgeH  int `validate:"gte=1"`
	}
}

var validate = validator.New()

// Load reads configuration from environment variables and an optional
// .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	c.Env = getenv("ENV", "prod")
	c.HTTP.Addr = getenv("HTTP_ADDR", ":8080")
	c.Log.ConsoleLevel = strings.ToLower(getenv("LOG_CONSOLE_LEVEL", "info"))
	c.Log.FileLevel = strings.ToLower(getenv("LOG_FILE_LEVEL", "debug"))
	c.Log.File = getenv("LOG_FILE", "data/logs/faultline.log")
	c.Errors.ServicePrefix = getenv("ERROR_SERVICE_PREFIX", "svc")
	c.Errors.Debug = getenv("DEBUG_ERRORS", "") == "1"
	c.Errors.IncidentBuffer = 256
	c.DB.Driver = strings.ToLower(getenv("DB_DRIVER", "sqlite"))
	c.DB.SQLitePath = getenv("SQLITE_PATH", "data/faultline.db")
	c.DB.PGDSN = os.Getenv("PG_DSN")
	c.DB.Migrations = getenv("DB_MIGRATIONS", "file://migrations/"+c.DB.Driver)
	c.Pricing.BaseURL = getenv("PRICING_BASE_URL", "http://localhost:9090")
	c.Maintenance.PruneSchedule = os.Getenv("PRUNE_SCHEDULE")
	c.Maintenance.PruneMaxAgeH = 24 * 30

	if err := validate.Struct(c); err != nil {
		return Config{}, err
	}
	if c.DB.Driver == "postgres" && c.DB.PGDSN == "" {
		return Config{}, errors.New("PG_DSN required when DB_DRIVER=postgres")
	}
	if c.Errors.Debug && c.Env != "dev" {
		return Config{}, errors.New("DEBUG_ERRORS is only honored with ENV=dev")
	}
	return c, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
