package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries everything the binaries need from the environment.
// Load a .env file first (godotenv) if one exists; Parse reads the process
// environment only.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	DB struct {
		User string `env:"DB_USER" envDefault:"postgres"`
		Pass string `env:"DB_PASSWORD" envDefault:"postgres"`
		Host string `env:"DB_HOST" envDefault:"localhost"`
		Port string `env:"DB_PORT" envDefault:"5432"`
		Name string `env:"DB_NAME" envDefault:"crm_messaging"`
	}

	AMQP struct {
		URL      string `env:"AMQP_URL"`
		Exchange string `env:"AMQP_EXCHANGE" envDefault:"crm.messaging"`
	}

	Dispatch struct {
		Interval    time.Duration `env:"DISPATCH_INTERVAL" envDefault:"1m"`
		BatchSize   int           `env:"DISPATCH_BATCH_SIZE" envDefault:"20"`
		SendTimeout time.Duration `env:"DISPATCH_SEND_TIMEOUT" envDefault:"10s"`
		StuckAfter  time.Duration `env:"DISPATCH_STUCK_AFTER" envDefault:"10m"`
	}

	RateLimit struct {
		LeadMax    int           `env:"RATELIMIT_LEAD_MAX" envDefault:"10"`
		LeadWindow time.Duration `env:"RATELIMIT_LEAD_WINDOW" envDefault:"1m"`
	}

	SMTP struct {
		Host string `env:"SMTP_HOST"`
		Port int    `env:"SMTP_PORT" envDefault:"587"`
		User string `env:"SMTP_USER"`
		Pass string `env:"SMTP_PASSWORD"`
		From string `env:"SMTP_FROM"`
	}
}

// Load parses the process environment into a Config.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DB.User, c.DB.Pass, c.DB.Host, c.DB.Port, c.DB.Name,
	)
}
