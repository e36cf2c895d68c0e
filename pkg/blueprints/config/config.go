// Package config builds a fully wired blueprints.Service from declarative
// server configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/blueprint-share/pkg/blueprints"
	repomemory "github.com/tendant/blueprint-share/pkg/blueprints/repo/memory"
	repopg "github.com/tendant/blueprint-share/pkg/blueprints/repo/postgres"
	fsstorage "github.com/tendant/blueprint-share/pkg/blueprints/storage/fs"
	memorystorage "github.com/tendant/blueprint-share/pkg/blueprints/storage/memory"
	s3storage "github.com/tendant/blueprint-share/pkg/blueprints/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		DatabaseType: "memory",
		StorageType:  "memory",
		FSBaseDir:    "./data/blueprints",
		JWTSecret:    "dev-secret-change-me",
	}
}

// ServerConfig represents server configuration for the blueprint-share
// service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres schema to use

	// Blob storage configuration
	StorageType string // "memory", "fs", "s3"
	FSBaseDir   string

	S3Region                 string
	S3Bucket                 string
	S3AccessKeyID            string
	S3SecretAccessKey        string
	S3Endpoint               string
	S3UsePathStyle           bool
	S3CreateBucketIfNotExist bool

	// Auth
	JWTSecret string

	// Optional mailer; nil keeps the service on NoopMailer.
	Mailer blueprints.Mailer
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.StorageType {
	case "memory":
	case "fs":
		if c.FSBaseDir == "" {
			return errors.New("fs_base_dir is required when using fs storage")
		}
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("s3_bucket is required when using s3 storage")
		}
	default:
		return errors.New("storage_type must be 'memory', 'fs' or 's3'")
	}

	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService() (blueprints.Service, error) {
	repo, err := c.buildRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.buildStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to build storage: %w", err)
	}

	options := []blueprints.Option{
		blueprints.WithRepository(repo),
		blueprints.WithBlobStore(store),
	}
	if c.Mailer != nil {
		options = append(options, blueprints.WithMailer(c.Mailer))
	}

	return blueprints.New(options...)
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository() (blueprints.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return repomemory.New(), nil
	case "postgres":
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		schema := c.DBSchema
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if schema == "" {
				return nil
			}
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
			return err
		}
		pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// buildStorage creates a BlobStore based on the configuration
func (c *ServerConfig) buildStorage() (blueprints.BlobStore, error) {
	switch c.StorageType {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{BaseDir: c.FSBaseDir})
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 c.S3Region,
			Bucket:                 c.S3Bucket,
			AccessKeyID:            c.S3AccessKeyID,
			SecretAccessKey:        c.S3SecretAccessKey,
			Endpoint:               c.S3Endpoint,
			UsePathStyle:           c.S3UsePathStyle,
			CreateBucketIfNotExist: c.S3CreateBucketIfNotExist,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
}

// PingPostgres verifies connectivity to Postgres and optionally sets
// search_path for the session. It fails if the schema (when provided) does
// not exist.
func PingPostgres(databaseURL, schema string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
