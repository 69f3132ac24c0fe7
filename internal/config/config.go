package config

import (
	"errors"
	"fmt"
	"time"

	"volt-inventory/pkg/database"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Auth     AuthConfig
	SMTP     SMTPConfig
}

type ServerConfig struct {
	AppEnv          string        `env:"APP_ENV" envDefault:"development"`
	AppName         string        `env:"APP_NAME" envDefault:"Volt Inventory API"`
	Port            string        `env:"PORT" envDefault:"3000"`
	FrontendURL     string        `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type LoggerConfig struct {
	Level    string `env:"LOG_LEVEL" envDefault:"info"`
	Encoding string `env:"LOG_ENCODING" envDefault:"json"`
}

type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME" envDefault:"volt_inventory"`
	TimeZone        string        `env:"DB_TIMEZONE" envDefault:"UTC"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"50"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	LogLevel        string        `env:"DB_LOG_LEVEL" envDefault:"warn"`
}

type JWTConfig struct {
	Secret string        `env:"JWT_SECRET"`
	Expire time.Duration `env:"JWT_EXPIRE" envDefault:"24h"`
	Issuer string        `env:"JWT_ISSUER" envDefault:"volt-inventory"`
}

type AuthConfig struct {
	ResetTokenTTL  time.Duration `env:"RESET_TOKEN_TTL" envDefault:"10m"`
	InviteTokenTTL time.Duration `env:"INVITE_TOKEN_TTL" envDefault:"72h"`
}

// SMTPConfig is optional; with an empty Host outgoing mail is only logged.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"no-reply@volt-inventory.local"`
}

var ErrMissingSecret = errors.New("JWT_SECRET is required outside development")

const devSecret = "dev-only-secret-change-me"

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.JWT.Secret == "" {
		if !cfg.IsDevelopment() {
			return nil, ErrMissingSecret
		}
		cfg.JWT.Secret = devSecret
	}

	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.AppEnv == "test"
}

func (c DatabaseConfig) Options() database.Config {
	return database.Config{
		URL:             c.URL,
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Name:            c.Name,
		TimeZone:        c.TimeZone,
		MaxIdleConns:    c.MaxIdleConns,
		MaxOpenConns:    c.MaxOpenConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		LogLevel:        c.LogLevel,
	}
}
