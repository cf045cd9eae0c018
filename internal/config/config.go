// Package config loads process configuration from QCMS_* environment
// variables.
package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Storage selects and configures the persistent store driver.
type Storage struct {
	Driver      string `env:"STORAGE_DRIVER, default=memory"`
	SQLitePath  string `env:"SQLITE_PATH, default=./qcms.db"`
	PostgresDSN string `env:"POSTGRES_DSN"`
}

// Blob selects and configures the attachment store driver.
type Blob struct {
	Driver      string `env:"BLOB_DRIVER, default=memory"`
	FsRoot      string `env:"BLOB_FS_ROOT, default=./blobdata"`
	S3Bucket    string `env:"BLOB_S3_BUCKET"`
	S3Region    string `env:"BLOB_S3_REGION"`
	S3Endpoint  string `env:"BLOB_S3_ENDPOINT"`
	S3PathStyle bool   `env:"BLOB_S3_PATH_STYLE"`
}

// Config is the root configuration. All variables carry the QCMS_ prefix,
// e.g. QCMS_STORAGE_DRIVER=sqlite.
type Config struct {
	Storage  Storage `env:", prefix=QCMS_"`
	Blob     Blob    `env:", prefix=QCMS_"`
	LogLevel string  `env:"QCMS_LOG_LEVEL, default=info"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from the provided lookuper, for tests.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	return load(ctx, l)
}

func load(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Blob.Driver {
	case "memory", "fs", "s3":
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	if c.Blob.Driver == "s3" && c.Blob.S3Bucket == "" {
		return fmt.Errorf("QCMS_BLOB_S3_BUCKET required for s3 blob driver")
	}
	return nil
}
