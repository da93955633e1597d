package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

type Config struct {
	// Driver is "postgres" or "sqlite".
	Driver     string
	DSN        string
	SQLitePath string
}

// Open connects the snapshot database and migrates its tables.
func Open(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	serviceLog := log.With("service", "SnapshotDB", "driver", cfg.Driver)

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "postgres":
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, fmt.Errorf("postgres dsn required")
		}
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			path = "pulse.db"
		}
		dialector = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unsupported snapshot db driver %q", cfg.Driver)
	}

	serviceLog.Info("Connecting to snapshot database...")
	gdb, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		serviceLog.Error("Failed to connect to snapshot database", "error", err)
		return nil, fmt.Errorf("connect snapshot db: %w", err)
	}
	if err := AutoMigrateAll(gdb); err != nil {
		serviceLog.Error("Auto migration failed", "error", err)
		return nil, fmt.Errorf("snapshot db automigrate: %w", err)
	}
	return gdb, nil
}

func AutoMigrateAll(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&domain.SnapshotRecord{})
}

func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
