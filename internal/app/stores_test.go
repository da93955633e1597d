package app

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/pulse-backend/internal/config"
	"github.com/yungbote/pulse-backend/internal/db"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

func stubOpenDB(t *testing.T, fn func(*logger.Logger, db.Config) (*gorm.DB, error)) {
	t.Helper()
	prev := openDB
	openDB = fn
	t.Cleanup(func() { openDB = prev })
}

func TestResolveSnapshotStoreInvalidStore(t *testing.T) {
	_, err := resolveSnapshotStore(logger.Nop(), config.SnapshotConfig{Store: "ftp"}, Clients{})

	var got *SnapshotStoreBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected SnapshotStoreBootstrapError, got=%T", err)
	}
	if got.Code != SnapshotStoreErrorInvalidStore {
		t.Fatalf("code: want=%q got=%q", SnapshotStoreErrorInvalidStore, got.Code)
	}
}

func TestResolveSnapshotStoreBucketWithoutClient(t *testing.T) {
	_, err := resolveSnapshotStore(logger.Nop(), config.SnapshotConfig{Store: "bucket", Bucket: "snaps"}, Clients{})

	var got *SnapshotStoreBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected SnapshotStoreBootstrapError, got=%T", err)
	}
	if got.Code != SnapshotStoreErrorMissingClient {
		t.Fatalf("code: want=%q got=%q", SnapshotStoreErrorMissingClient, got.Code)
	}
}

func TestResolveSnapshotStoreConnectFailed(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	stubOpenDB(t, func(*logger.Logger, db.Config) (*gorm.DB, error) { return nil, cause })

	_, err := resolveSnapshotStore(logger.Nop(), config.SnapshotConfig{Store: "postgres", DSN: "host=nowhere"}, Clients{})

	var got *SnapshotStoreBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected SnapshotStoreBootstrapError, got=%T", err)
	}
	if got.Code != SnapshotStoreErrorConnectFailed {
		t.Fatalf("code: want=%q got=%q", SnapshotStoreErrorConnectFailed, got.Code)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got=%v", err)
	}
}

func TestResolveSnapshotStoreHTTPFallsBackToSQLiteOffline(t *testing.T) {
	var gotCfg db.Config
	stubOpenDB(t, func(_ *logger.Logger, cfg db.Config) (*gorm.DB, error) {
		gotCfg = cfg
		return &gorm.DB{}, nil
	})

	stores, err := resolveSnapshotStore(logger.Nop(), config.SnapshotConfig{Store: "http", SQLitePath: "snaps.db"}, Clients{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if stores.Kind != "sqlite" || !stores.Local || stores.Store == nil {
		t.Fatalf("stores: %+v", stores)
	}
	if gotCfg.Driver != "sqlite" || gotCfg.SQLitePath != "snaps.db" {
		t.Fatalf("db config: %+v", gotCfg)
	}
}

func TestBootstrapErrorMessage(t *testing.T) {
	err := &SnapshotStoreBootstrapError{Code: SnapshotStoreErrorInvalidStore, Store: "ftp", Cause: errors.New("nope")}
	if got := err.Error(); got != `snapshot store bootstrap failed (code=invalid_store store="ftp"): nope` {
		t.Fatalf("message: %q", got)
	}
	var nilErr *SnapshotStoreBootstrapError
	if nilErr.Unwrap() != nil {
		t.Fatal("nil error should unwrap to nil")
	}
}
