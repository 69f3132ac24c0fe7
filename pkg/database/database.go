package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config describes how to reach the database and size its pool.
type Config struct {
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	TimeZone        string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
}

// DSN returns URL when set, otherwise a key/value postgres DSN built from the
// individual fields.
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	tz := c.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, tz,
	)
}

// Connect opens the database handle. A "sqlite:" or "file:" URL selects the
// SQLite driver (local development); anything else is treated as postgres.
func Connect(cfg Config) (*gorm.DB, error) {
	dsn := cfg.DSN()

	gormCfg := &gorm.Config{
		Logger:         newLogger(cfg.LogLevel),
		PrepareStmt:    false,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "file:"):
		dialector = sqlite.Open(dsn)
	default:
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true, // Disables implicit prepared statements for Supabase Transaction Mode
		})
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsSQLite reports whether db runs on the SQLite dialect.
func IsSQLite(db *gorm.DB) bool {
	return db.Dialector.Name() == "sqlite"
}

func newLogger(level string) logger.Interface {
	logLevel := logger.Warn
	switch strings.ToLower(level) {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "info":
		logLevel = logger.Info
	}

	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
