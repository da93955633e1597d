package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

type SQLStore struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewSQLStore(db *gorm.DB, baseLog *logger.Logger) *SQLStore {
	return &SQLStore{db: db, log: baseLog.With("repo", "SnapshotRepo"), now: time.Now}
}

func (s *SQLStore) AutoMigrate() error {
	return s.db.AutoMigrate(&domain.SnapshotRecord{})
}

func (s *SQLStore) tx(dbc dbctx.Context) *gorm.DB { return dbc.DB(s.db) }

func (s *SQLStore) Create(dbc dbctx.Context, rec *domain.SnapshotRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	return s.tx(dbc).Create(rec).Error
}

func (s *SQLStore) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.SnapshotRecord, error) {
	var rec domain.SnapshotRecord
	err := s.tx(dbc).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("snapshot %s: %w", id, pkgerrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRecent omits payloads.
func (s *SQLStore) ListRecent(dbc dbctx.Context, limit int) ([]*domain.SnapshotRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []*domain.SnapshotRecord
	if err := s.tx(dbc).
		Select("id", "name", "phase", "created_at").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *SQLStore) ListSnapshots(ctx context.Context) ([]domain.SnapshotSummary, error) {
	rows, err := s.ListRecent(dbctx.Context{Ctx: ctx}, 0)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SnapshotSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.SnapshotSummary{ID: r.ID.String(), Name: r.Name, Phase: r.Phase, CreatedAt: r.CreatedAt})
	}
	return out, nil
}

func (s *SQLStore) SaveSnapshot(ctx context.Context, name, phase string, payload json.RawMessage) (domain.SnapshotSummary, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.SnapshotSummary{}, fmt.Errorf("snapshot name: %w", pkgerrors.ErrInvalidArgument)
	}
	rec := &domain.SnapshotRecord{Name: name, Phase: phase, Payload: datatypes.JSON(payload)}
	if err := s.Create(dbctx.Context{Ctx: ctx}, rec); err != nil {
		return domain.SnapshotSummary{}, err
	}
	s.log.Info("snapshot saved", "snapshot_id", rec.ID.String(), "bytes", len(payload))
	return domain.SnapshotSummary{ID: rec.ID.String(), Name: rec.Name, Phase: rec.Phase, CreatedAt: rec.CreatedAt}, nil
}

func (s *SQLStore) GetSnapshot(ctx context.Context, id string) (domain.SnapshotBlob, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return domain.SnapshotBlob{}, fmt.Errorf("snapshot id %q: %w", id, pkgerrors.ErrNotFound)
	}
	rec, err := s.GetByID(dbctx.Context{Ctx: ctx}, uid)
	if err != nil {
		return domain.SnapshotBlob{}, err
	}
	return domain.SnapshotBlob{
		ID:        rec.ID.String(),
		Name:      rec.Name,
		Phase:     rec.Phase,
		Payload:   json.RawMessage(rec.Payload),
		CreatedAt: rec.CreatedAt,
	}, nil
}
