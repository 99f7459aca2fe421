// Package config resolves runtime settings from an optional YAML file and
// HELIXCANVAS_* environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"helixcanvas/internal/blob"
	"helixcanvas/internal/core"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "HELIXCANVAS"

// Setting keys. Dots become underscores in environment variable names, so
// "blob.s3.bucket" is read from HELIXCANVAS_BLOB_S3_BUCKET.
const (
	KeyStorageDriver     = "storage.driver"
	KeySQLitePath        = "sqlite.path"
	KeyPostgresDSN       = "postgres.dsn"
	KeyBlobDriver        = "blob.driver"
	KeyBlobFSRoot        = "blob.fs_root"
	KeyS3Bucket          = "blob.s3.bucket"
	KeyS3Region          = "blob.s3.region"
	KeyS3Endpoint        = "blob.s3.endpoint"
	KeyS3PathStyle       = "blob.s3.path_style"
	KeyS3AccessKeyID     = "blob.s3.access_key_id"
	KeyS3SecretAccessKey = "blob.s3.secret_access_key"
	KeyS3SessionToken    = "blob.s3.session_token"
	KeyWorkers           = "workers"
	KeyHTTPAddr          = "http.addr"
	KeyLogLevel          = "log.level"
)

// Defaults applied when neither the file nor the environment sets a value.
const (
	DefaultHTTPAddr = ":8080"
	DefaultLogLevel = "info"
)

// Config is the resolved runtime configuration.
type Config struct {
	Storage  core.StorageConfig
	Blob     blob.Config
	Workers  int
	HTTPAddr string
	LogLevel string
}

// New returns a viper instance bound to the HELIXCANVAS_ environment with
// defaults registered.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault(KeyStorageDriver, string(core.StorageSQLite))
	v.SetDefault(KeyWorkers, runtime.NumCPU())
	v.SetDefault(KeyHTTPAddr, DefaultHTTPAddr)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	return v
}

// Load reads path when non-empty and resolves the configuration.
func Load(path string) (Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper resolves the configuration from an already populated instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Storage: core.StorageConfig{
			Driver:      strings.ToLower(strings.TrimSpace(v.GetString(KeyStorageDriver))),
			SQLitePath:  v.GetString(KeySQLitePath),
			PostgresDSN: v.GetString(KeyPostgresDSN),
		},
		Blob: blob.Config{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString(KeyBlobDriver))),
			FSRoot: v.GetString(KeyBlobFSRoot),
			S3: blob.S3Config{
				Bucket:          v.GetString(KeyS3Bucket),
				Region:          v.GetString(KeyS3Region),
				Endpoint:        v.GetString(KeyS3Endpoint),
				PathStyle:       v.GetBool(KeyS3PathStyle),
				AccessKeyID:     v.GetString(KeyS3AccessKeyID),
				SecretAccessKey: v.GetString(KeyS3SecretAccessKey),
				SessionToken:    v.GetString(KeyS3SessionToken),
			},
		},
		Workers:  v.GetInt(KeyWorkers),
		HTTPAddr: v.GetString(KeyHTTPAddr),
		LogLevel: strings.ToLower(v.GetString(KeyLogLevel)),
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that can never work.
func (c Config) Validate() error {
	var errs []error
	switch core.StorageDriver(c.Storage.Driver) {
	case core.StorageMemory, core.StorageSQLite, core.StoragePostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	switch blob.Driver(c.Blob.Driver) {
	case "", blob.DriverMemory, blob.DriverFilesystem:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("s3 blob driver requires a bucket"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob driver %q", c.Blob.Driver))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	return errors.Join(errs...)
}
