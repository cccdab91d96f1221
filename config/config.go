// Package config loads runtime settings from defaults, an optional YAML file
// and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultJWTSecret is the placeholder secret; it is refused in production.
const DefaultJWTSecret = "change-me-in-production"

type Config struct {
	Environment string         `koanf:"environment"`
	Server      ServerConfig   `koanf:"server"`
	Database    DatabaseConfig `koanf:"database"`
	Auth        AuthConfig     `koanf:"auth"`
	S3          S3Config       `koanf:"s3"`
	Logging     LoggingConfig  `koanf:"logging"`
	Metadata    MetadataConfig `koanf:"metadata"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	MaxUploadMB     int64         `koanf:"max_upload_mb"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver     string `koanf:"driver"` // sqlite or mongo
	SQLitePath string `koanf:"sqlite_path"`
	MongoURI   string `koanf:"mongo_uri"`
	MongoDB    string `koanf:"mongo_db"`
}

type AuthConfig struct {
	JWTSecret  string        `koanf:"jwt_secret"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	RateLimit  int           `koanf:"rate_limit"`
	RateWindow time.Duration `koanf:"rate_window"`
}

// S3Config holds cover storage settings. An empty bucket disables covers.
type S3Config struct {
	Bucket          string `koanf:"bucket"`
	Region          string `koanf:"region"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

type MetadataConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

func defaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:            "8080",
			CORSOrigins:     []string{"http://localhost:5173"},
			MaxUploadMB:     10,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "bookmemory.db",
			MongoURI:   "mongodb://localhost:27017",
			MongoDB:    "bookmemory",
		},
		Auth: AuthConfig{
			JWTSecret:  DefaultJWTSecret,
			TokenTTL:   7 * 24 * time.Hour,
			RateLimit:  20,
			RateWindow: time.Minute,
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metadata: MetadataConfig{
			BaseURL: "https://www.googleapis.com/books/v1/volumes",
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// MaxUploadBytes is the cover upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}

// CoversEnabled reports whether S3 cover storage is configured.
func (c *Config) CoversEnabled() bool {
	return c.S3.Bucket != ""
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when DB_DRIVER=sqlite")
		}
	case "mongo":
		if c.Database.MongoURI == "" {
			return errors.New("MONGODB_URI is required when DB_DRIVER=mongo")
		}
		if c.Database.MongoDB == "" {
			return errors.New("MONGODB_DB is required when DB_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or mongo, got %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() && c.Auth.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET must be set to a strong secret in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.RateLimit <= 0 || c.Auth.RateWindow <= 0 {
		return errors.New("AUTH_RATE_LIMIT and AUTH_RATE_WINDOW must be positive")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.Server.MaxUploadMB)
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// LogSummary writes the effective settings, leaving secrets out.
func (c *Config) LogSummary(logger zerolog.Logger) {
	logger.Info().
		Str("environment", c.Environment).
		Str("port", c.Server.Port).
		Str("db_driver", c.Database.Driver).
		Strs("cors_origins", c.Server.CORSOrigins).
		Dur("token_ttl", c.Auth.TokenTTL).
		Bool("covers", c.CoversEnabled()).
		Bool("jwt_secret_set", c.Auth.JWTSecret != DefaultJWTSecret).
		Msg("configuration loaded")
}
