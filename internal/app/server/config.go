package server

import (
	"github.com/caldermtz/tidechest/internal/platform/config"
)

// Config holds the service configuration loaded from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port int `env:"TIDECHEST_PORT" envDefault:"8080"`
	// DBPath is the SQLite database file path.
	DBPath string `env:"TIDECHEST_DB_PATH" envDefault:"tidechest.db"`
	// AdminIdentity seeds the administrator identity on first boot.
	AdminIdentity string `env:"TIDECHEST_ADMIN_IDENTITY"`
	// HubURL seeds the settlement hub's base address on first boot.
	HubURL string `env:"TIDECHEST_HUB_URL"`
}

// LoadConfig reads the configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
