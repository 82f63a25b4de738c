package datastore

import (
	"log/slog"

	"github.com/ruteri/multisig-service/interfaces"
)

// MemoryDSN selects the in-memory store.
const MemoryDSN = "memory"

// Open returns the store named by dsn: MemoryDSN (or empty) for an in-memory
// store, otherwise any DSN accepted by OpenSQLStore.
func Open(dsn string, log *slog.Logger) (interfaces.Store, error) {
	if dsn == "" || dsn == MemoryDSN {
		return NewMemoryStore(log), nil
	}
	return OpenSQLStore(dsn, log)
}
