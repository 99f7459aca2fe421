// Package blob exposes the object storage abstraction and selects a backend
// from configuration. Packages outside internal/blob and internal/infra/blob
// depend only on the aliases declared here.
package blob

import (
	"context"
	"fmt"

	"helixcanvas/internal/blob/core"
	"helixcanvas/internal/infra/blob/fs"
	memorystore "helixcanvas/internal/infra/blob/memory"
	infraS3 "helixcanvas/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
	// S3Config configures the S3-compatible backend.
	S3Config = infraS3.Config
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrExists is returned when writing an existing key.
	ErrExists = core.ErrExists
	// ErrNotFound is returned when reading an unknown key.
	ErrNotFound = core.ErrNotFound
)

// Config selects and configures a backend. An empty Driver disables the store.
type Config struct {
	Driver string
	FSRoot string
	S3     S3Config
}

// Open returns the configured Store, or nil when Driver is empty.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch Driver(cfg.Driver) {
	case "":
		return nil, nil
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memorystore.New() }

// NewFilesystem constructs a filesystem-backed Store rooted at root.
func NewFilesystem(root string) (Store, error) {
	s, err := fs.New(root)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewS3 constructs an S3-backed Store.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	s, err := infraS3.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}
