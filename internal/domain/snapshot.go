package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SnapshotRecord stores one opaque snapshot blob. The payload is never
// interpreted by the store.
type SnapshotRecord struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:text;not null" json:"name"`
	Phase     string         `gorm:"type:text;not null;default:''" json:"phase"`
	Payload   datatypes.JSON `gorm:"not null" json:"payload"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

func (SnapshotRecord) TableName() string { return "workshop_snapshot" }

// SnapshotSummary is the listing shape returned by GET /snapshots.
type SnapshotSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phase     string    `json:"phase"`
	CreatedAt time.Time `json:"createdAt"`
}

// SnapshotBlob is one stored snapshot with its opaque payload, as exchanged
// with GET /snapshots/{id} and POST /snapshots.
type SnapshotBlob struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Phase     string          `json:"phase"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (b SnapshotBlob) Summary() SnapshotSummary {
	return SnapshotSummary{ID: b.ID, Name: b.Name, Phase: b.Phase, CreatedAt: b.CreatedAt}
}
