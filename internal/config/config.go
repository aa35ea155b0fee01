package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress string   `env:"SERVER_ADDRESS" envDefault:"0.0.0.0:8080"`
	LogLevel      string   `env:"LOG_LEVEL" envDefault:"DEBUG"`
	Environment   string   `env:"APP_ENV" envDefault:"development"`
	CORSOrigins   []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	AuthConfig
	PostgresConfig
}

// NewConfig reads the environment, after loading a .env file when one exists
// in the working directory.
func NewConfig() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("config.NewConfig: %w", err)
	}

	config := &Config{}

	err := env.Parse(config)
	if err != nil {
		return config, fmt.Errorf("config.NewConfig: %w", err)
	}

	if len(config.JWTSecret) == 0 {
		return config, fmt.Errorf("config.NewConfig: JWT_SECRET is required")
	}
	return config, nil
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"agromarket"`
}

type PostgresConfig struct {
	Conn            string `env:"POSTGRES_CONN" envDefault:"postgres://test:test@db:5432/test?sslmode=disable"`
	MaxOpenConns    int    `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	AutoMigrateUp   bool   `env:"AUTO_MIGRATE_UP" envDefault:"true"`
	AutoMigrateDown bool   `env:"AUTO_MIGRATE_DOWN" envDefault:"false"`
}

func NewPostgresConfig() (*PostgresConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("config.NewPostgresConfig: %w", err)
	}

	config := &PostgresConfig{}

	err := env.Parse(config)
	if err != nil {
		err = fmt.Errorf("config.NewPostgresConfig: %w", err)
	}
	return config, err
}

func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
