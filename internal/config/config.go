// Package config loads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreSQLite  = "sqlite"
	StoreMongoDB = "mongodb"
)

// File backends.
const (
	FilesDisk   = "disk"
	FilesSQLite = "sqlite"
)

const minJWTSecretLength = 32

// Config holds every setting main needs to assemble the server.
type Config struct {
	Port     string     `env:"PORT" envDefault:"8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	StoreBackend   string `env:"STORE_BACKEND" envDefault:"sqlite"`
	DatabasePath   string `env:"DATABASE_PATH" envDefault:"image-gallery.db"`
	MongoURI       string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase  string `env:"MONGODB_DATABASE" envDefault:"image_gallery"`
	FileBackend    string `env:"FILE_BACKEND" envDefault:"disk"`
	UploadDir      string `env:"UPLOAD_DIR" envDefault:"uploads"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	JWTSecret    string `env:"JWT_SECRET,required,notEmpty"`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"true"`
	BcryptCost   int    `env:"BCRYPT_COST" envDefault:"12"`
}

// Load reads the given .env files (".env" when none are named) into the
// process environment without overriding variables that are already set,
// then parses and validates the configuration. Missing files are skipped.
func Load(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values that parse but cannot work together.
func (c Config) Validate() error {
	var errs []error

	if len(c.JWTSecret) < minJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters for HMAC-SHA256 security", minJWTSecretLength))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.BcryptCost))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes))
	}

	switch c.StoreBackend {
	case StoreSQLite:
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required for the sqlite store"))
		}
	case StoreMongoDB:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			errs = append(errs, errors.New("MONGODB_URI and MONGODB_DATABASE are required for the mongodb store"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreSQLite, StoreMongoDB, c.StoreBackend))
	}

	switch c.FileBackend {
	case FilesDisk:
		if c.UploadDir == "" {
			errs = append(errs, errors.New("UPLOAD_DIR is required for the disk file store"))
		}
	case FilesSQLite:
		if c.StoreBackend != StoreSQLite {
			errs = append(errs, errors.New("FILE_BACKEND=sqlite requires STORE_BACKEND=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("FILE_BACKEND must be %q or %q, got %q", FilesDisk, FilesSQLite, c.FileBackend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
