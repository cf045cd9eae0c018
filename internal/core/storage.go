package core

import (
	"fmt"

	"github.com/indofiz/qcms-data-structure-sub000/internal/config"
	"github.com/indofiz/qcms-data-structure-sub000/internal/infra/persistence/memory"
	"github.com/indofiz/qcms-data-structure-sub000/internal/infra/persistence/postgres"
	"github.com/indofiz/qcms-data-structure-sub000/internal/infra/persistence/sqlite"
	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects a backend from the storage configuration and
// wires the default rules engine into it.
func OpenPersistentStore(cfg config.Storage, engine *domain.RulesEngine) (domain.PersistentStore, error) {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	switch StorageDriver(cfg.Driver) {
	case StorageMemory, "":
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath, engine)
	case StoragePostgres:
		return postgres.NewStore(cfg.PostgresDSN, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
