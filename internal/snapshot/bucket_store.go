package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pulse-backend/internal/clients/gcp"
	"github.com/yungbote/pulse-backend/internal/domain"
	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

// BucketStore writes one object per snapshot under prefix, with name and
// phase in object metadata so listing never downloads payloads.
type BucketStore struct {
	log    *logger.Logger
	bucket gcp.BucketService
	prefix string
	now    func() time.Time
}

func NewBucketStore(log *logger.Logger, bucket gcp.BucketService, prefix string) *BucketStore {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "snapshots"
	}
	return &BucketStore{log: log.With("service", "SnapshotBucketStore"), bucket: bucket, prefix: prefix, now: time.Now}
}

func (b *BucketStore) key(id string) string { return path.Join(b.prefix, id+".json") }

func (b *BucketStore) SaveSnapshot(ctx context.Context, name, phase string, payload json.RawMessage) (domain.SnapshotSummary, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.SnapshotSummary{}, fmt.Errorf("snapshot name: %w", pkgerrors.ErrInvalidArgument)
	}
	sum := domain.SnapshotSummary{ID: uuid.NewString(), Name: name, Phase: phase, CreatedAt: b.now().UTC()}
	meta := map[string]string{
		"name":       sum.Name,
		"phase":      sum.Phase,
		"created_at": sum.CreatedAt.Format(time.RFC3339Nano),
	}
	if err := b.bucket.Upload(ctx, b.key(sum.ID), bytes.NewReader(payload), meta); err != nil {
		return domain.SnapshotSummary{}, fmt.Errorf("upload snapshot: %w", err)
	}
	return sum, nil
}

func (b *BucketStore) ListSnapshots(ctx context.Context) ([]domain.SnapshotSummary, error) {
	objs, err := b.bucket.List(ctx, b.prefix+"/")
	if err != nil {
		return nil, err
	}
	out := make([]domain.SnapshotSummary, 0, len(objs))
	for _, o := range objs {
		if !strings.HasSuffix(o.Key, ".json") {
			continue
		}
		out = append(out, summaryFromObject(o))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func summaryFromObject(o gcp.ObjectInfo) domain.SnapshotSummary {
	s := domain.SnapshotSummary{
		ID:        strings.TrimSuffix(path.Base(o.Key), ".json"),
		Name:      o.Metadata["name"],
		Phase:     o.Metadata["phase"],
		CreatedAt: o.Created,
	}
	if t, err := time.Parse(time.RFC3339Nano, o.Metadata["created_at"]); err == nil {
		s.CreatedAt = t
	}
	if s.Name == "" {
		s.Name = s.ID
	}
	return s
}

func (b *BucketStore) GetSnapshot(ctx context.Context, id string) (domain.SnapshotBlob, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "/\\") {
		return domain.SnapshotBlob{}, fmt.Errorf("snapshot id %q: %w", id, pkgerrors.ErrInvalidArgument)
	}
	objs, err := b.bucket.List(ctx, b.key(id))
	if err != nil {
		return domain.SnapshotBlob{}, err
	}
	var info *gcp.ObjectInfo
	for i := range objs {
		if objs[i].Key == b.key(id) {
			info = &objs[i]
			break
		}
	}
	if info == nil {
		return domain.SnapshotBlob{}, fmt.Errorf("snapshot %s: %w", id, pkgerrors.ErrNotFound)
	}
	rc, err := b.bucket.Download(ctx, info.Key)
	if err != nil {
		return domain.SnapshotBlob{}, err
	}
	defer rc.Close()
	raw, err := io.ReadAll(io.LimitReader(rc, 64<<20))
	if err != nil {
		return domain.SnapshotBlob{}, fmt.Errorf("read snapshot: %w", err)
	}
	sum := summaryFromObject(*info)
	return domain.SnapshotBlob{ID: sum.ID, Name: sum.Name, Phase: sum.Phase, Payload: raw, CreatedAt: sum.CreatedAt}, nil
}
