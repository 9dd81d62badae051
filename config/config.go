package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting, read from the environment.
type Config struct {
	Port              int           `env:"PORT" env-default:"8000"`
	DatabaseURL       string        `env:"DATABASE_URL" env-required:"true"`
	JWTSecret         string        `env:"JWT_SECRET" env-required:"true"`
	AllowedOrigin     string        `env:"ALLOWED_ORIGIN" env-default:"http://localhost:3000"`
	KeepaliveURL      string        `env:"KEEPALIVE_URL"`
	KeepaliveInterval time.Duration `env:"KEEPALIVE_INTERVAL" env-default:"5m"`
}

// Load reads a local .env file when present, then fills the config from
// environment variables.
func Load() (*Config, error) {
	// Ignore the error: in production the variables come from the OS.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
