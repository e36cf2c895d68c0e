package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig is the flat environment mapping read by cleanenv.
type envConfig struct {
	Port        string `env:"PORT" env-default:""`
	Environment string `env:"ENVIRONMENT" env-default:""`

	DatabaseURL string `env:"DATABASE_URL" env-default:""`
	DBSchema    string `env:"DB_SCHEMA" env-default:""`

	StorageURL string `env:"STORAGE_URL" env-default:""`

	S3Region                 string `env:"S3_REGION" env-default:""`
	S3AccessKeyID            string `env:"S3_ACCESS_KEY_ID" env-default:""`
	S3SecretAccessKey        string `env:"S3_SECRET_ACCESS_KEY" env-default:""`
	S3Endpoint               string `env:"S3_ENDPOINT" env-default:""`
	S3UsePathStyle           bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	S3CreateBucketIfNotExist bool   `env:"S3_CREATE_BUCKET" env-default:"false"`

	JWTSecret string `env:"JWT_SECRET" env-default:""`
}

// WithEnv applies environment variable overrides.
//
// Environment variable mapping:
//
//	PORT         - Server port (default: "8080")
//	ENVIRONMENT  - Runtime environment (default: "development")
//	DATABASE_URL - "memory" (default) or a postgresql:// connection string
//	DB_SCHEMA    - Postgres schema for the session search_path
//	STORAGE_URL  - Blob storage location (one of):
//	               - "memory://" - In-memory storage (default)
//	               - "file:///path/to/data" - Filesystem storage
//	               - "s3://bucket" - S3 storage (with S3_* variables)
//	JWT_SECRET   - HMAC secret for session tokens
//
// Use programmatic config for anything beyond this.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		if env.Port != "" {
			c.Port = env.Port
		}
		if env.Environment != "" {
			c.Environment = env.Environment
		}
		if env.DBSchema != "" {
			c.DBSchema = env.DBSchema
		}
		if env.JWTSecret != "" {
			c.JWTSecret = env.JWTSecret
		}

		if err := applyDatabaseEnv(env, c); err != nil {
			return err
		}
		return applyStorageEnv(env, c)
	}
}

func applyDatabaseEnv(env envConfig, c *ServerConfig) error {
	switch {
	case env.DatabaseURL == "" || env.DatabaseURL == "memory":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(env.DatabaseURL, "postgresql://"),
		strings.HasPrefix(env.DatabaseURL, "postgres://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = env.DatabaseURL
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", env.DatabaseURL)
	}
	return nil
}

func applyStorageEnv(env envConfig, c *ServerConfig) error {
	url := env.StorageURL
	switch {
	case url == "" || url == "memory" || url == "memory://":
		c.StorageType = "memory"
	case strings.HasPrefix(url, "file://"):
		path := strings.TrimPrefix(url, "file://")
		if path == "" {
			return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		c.StorageType = "fs"
		c.FSBaseDir = path
	case strings.HasPrefix(url, "s3://"):
		bucket := strings.TrimPrefix(url, "s3://")
		if bucket == "" {
			return fmt.Errorf("bucket name cannot be empty in STORAGE_URL")
		}
		c.StorageType = "s3"
		c.S3Bucket = bucket
		c.S3Region = env.S3Region
		c.S3AccessKeyID = env.S3AccessKeyID
		c.S3SecretAccessKey = env.S3SecretAccessKey
		c.S3Endpoint = env.S3Endpoint
		c.S3UsePathStyle = env.S3UsePathStyle
		c.S3CreateBucketIfNotExist = env.S3CreateBucketIfNotExist
	default:
		return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", url)
	}
	return nil
}
