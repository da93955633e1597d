package snapshot

import (
	"context"
	"encoding/json"

	"github.com/yungbote/pulse-backend/internal/domain"
)

// Store keeps opaque snapshot blobs. *workshop.Client satisfies it for the
// remote contract; SQLStore and BucketStore serve it locally.
type Store interface {
	ListSnapshots(ctx context.Context) ([]domain.SnapshotSummary, error)
	SaveSnapshot(ctx context.Context, name, phase string, payload json.RawMessage) (domain.SnapshotSummary, error)
	GetSnapshot(ctx context.Context, id string) (domain.SnapshotBlob, error)
}
