package core

import (
	"fmt"
	"io"

	"helixcanvas/internal/infra/persistence/memory"
	"helixcanvas/internal/infra/persistence/postgres"
	"helixcanvas/internal/infra/persistence/sqlite"
	"helixcanvas/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

// Supported storage drivers.
const (
	StorageMemory   StorageDriver = "memory"
	StorageSQLite   StorageDriver = "sqlite"
	StoragePostgres StorageDriver = "postgres"
)

// StorageConfig selects and configures the workspace store.
type StorageConfig struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

// OpenPersistentStore builds the configured store. An empty driver selects sqlite.
func OpenPersistentStore(cfg StorageConfig, engine *domain.RulesEngine) (domain.PersistentStore, error) {
	driver := StorageDriver(cfg.Driver)
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath, engine)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.NewStore(cfg.PostgresDSN, engine)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// CloseStore releases resources held by stores that own a connection.
func CloseStore(store domain.PersistentStore) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
