package app

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/pulse-backend/internal/config"
	"github.com/yungbote/pulse-backend/internal/db"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
	"github.com/yungbote/pulse-backend/internal/snapshot"
)

type SnapshotStoreErrorCode string

const (
	SnapshotStoreErrorInvalidStore  SnapshotStoreErrorCode = "invalid_store"
	SnapshotStoreErrorMissingClient SnapshotStoreErrorCode = "missing_client"
	SnapshotStoreErrorConnectFailed SnapshotStoreErrorCode = "connect_failed"
)

type SnapshotStoreBootstrapError struct {
	Code  SnapshotStoreErrorCode
	Store string
	Cause error
}

func (e *SnapshotStoreBootstrapError) Error() string {
	if e == nil {
		return "snapshot store bootstrap failed"
	}
	return fmt.Sprintf("snapshot store bootstrap failed (code=%s store=%q): %v", e.Code, e.Store, e.Cause)
}

func (e *SnapshotStoreBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// SnapshotStores is the resolved snapshot backend. Local is true when this
// process owns the storage and should serve the snapshot contract itself.
type SnapshotStores struct {
	Store snapshot.Store
	Local bool
	Kind  string
	DB    *gorm.DB
}

var openDB = db.Open

// resolveSnapshotStore picks the backend named by snapshot.store. The http
// store needs a workshop server; offline it falls back to local sqlite.
func resolveSnapshotStore(log *logger.Logger, cfg config.SnapshotConfig, clients Clients) (SnapshotStores, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Store))
	if kind == "http" && clients.Workshop == nil {
		log.Warn("Snapshot store http needs a workshop server; using local sqlite", "path", cfg.SQLitePath)
		kind = "sqlite"
	}

	switch kind {
	case "http":
		return SnapshotStores{Store: clients.Workshop, Kind: kind}, nil
	case "postgres", "sqlite":
		gdb, err := openDB(log, db.Config{Driver: kind, DSN: cfg.DSN, SQLitePath: cfg.SQLitePath})
		if err != nil {
			return SnapshotStores{}, &SnapshotStoreBootstrapError{Code: SnapshotStoreErrorConnectFailed, Store: kind, Cause: err}
		}
		return SnapshotStores{Store: snapshot.NewSQLStore(gdb, log), Local: true, Kind: kind, DB: gdb}, nil
	case "bucket":
		if clients.Bucket == nil {
			return SnapshotStores{}, &SnapshotStoreBootstrapError{
				Code:  SnapshotStoreErrorMissingClient,
				Store: kind,
				Cause: fmt.Errorf("bucket client not initialized"),
			}
		}
		return SnapshotStores{Store: snapshot.NewBucketStore(log, clients.Bucket, cfg.Prefix), Local: true, Kind: kind}, nil
	default:
		return SnapshotStores{}, &SnapshotStoreBootstrapError{
			Code:  SnapshotStoreErrorInvalidStore,
			Store: cfg.Store,
			Cause: fmt.Errorf("unsupported snapshot store %q", cfg.Store),
		}
	}
}
