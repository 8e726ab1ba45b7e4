package config

import (
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=pos port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"

	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	HTTPPort    string        `envconfig:"HTTP_PORT" default:"8080"`
	DatabaseDSN string        `envconfig:"DATABASE_DSN" default:"host=localhost user=postgres password=postgres dbname=pos port=5432 sslmode=disable"`
	StoreDriver string        `envconfig:"STORE_DRIVER" default:"postgres"`
	JWTSecret   string        `envconfig:"JWT_SECRET"`
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	CORSOrigins string        `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	Timezone    string        `envconfig:"TIMEZONE" default:"UTC"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string        `envconfig:"LOG_FORMAT" default:"json"`

	// Location is resolved from Timezone by Load.
	Location *time.Location `ignored:"true"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "read environment")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return errors.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StoreDriver)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return errors.Wrapf(err, "TIMEZONE %q", c.Timezone)
	}
	c.Location = loc

	if c.StoreDriver == DriverPostgres && c.DatabaseDSN == defaultDSN {
		log.Warn("DATABASE_DSN uses the default value, set your own postgres connection for production")
	}
	if c.CORSOrigins == defaultCORSOrigins {
		log.Warn("CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
	return nil
}
