package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppName string `env:"APP_NAME" envDefault:"chatcore"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	Host    string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port    int    `env:"HTTP_PORT" envDefault:"8000"`

	DBDriver         string `env:"DB_DRIVER" envDefault:"postgres"`
	SQLitePath       string `env:"SQLITE_PATH" envDefault:"chatcore.db"`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"chatcore"`

	JWTSecret          string   `env:"JWT_SECRET,required,notEmpty"`
	AccessTokenMinutes int      `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"1440"`
	EncryptKey         string   `env:"ENCRYPTION_KEY,required,notEmpty"`
	LegacyEncryptKeys  []string `env:"LEGACY_ENCRYPTION_KEYS" envSeparator:","`

	UploadDir     string   `env:"UPLOAD_DIR" envDefault:"uploads"`
	PublicBaseURL string   `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8000"`
	MaxUploadMB   int64    `env:"MAX_UPLOAD_MB" envDefault:"25"`
	CORSOrigins   []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`

	LogLevel            string `env:"LOG_LEVEL" envDefault:"info"`
	Debug               bool   `env:"DEBUG" envDefault:"false"`
	ReactionMaxAttempts int    `env:"REACTION_MAX_ATTEMPTS" envDefault:"5"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	for i := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
	}
	for i := range cfg.LegacyEncryptKeys {
		cfg.LegacyEncryptKeys[i] = strings.TrimSpace(cfg.LegacyEncryptKeys[i])
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))

	switch cfg.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, cfg.DBDriver)
	}
	if cfg.ReactionMaxAttempts < 1 {
		return nil, fmt.Errorf("REACTION_MAX_ATTEMPTS must be positive, got %d", cfg.ReactionMaxAttempts)
	}
	if cfg.MaxUploadMB < 1 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", cfg.MaxUploadMB)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}

	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseURL is the PostgreSQL connection URL.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     c.PostgresHost + ":" + strconv.Itoa(c.PostgresPort),
		Path:     c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == DriverSQLite {
		return c.SQLitePath
	}
	return c.DatabaseURL()
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
