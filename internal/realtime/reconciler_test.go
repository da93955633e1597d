package realtime

import (
	"context"
	"reflect"
	"testing"

	"github.com/yungbote/pulse-backend/internal/domain"
)

type memModel struct {
	datapoints map[string]domain.Datapoint
	classes    map[string]domain.Interpretation
	notes      map[string]domain.Annotation
	ingests    int
}

func newMemModel() *memModel {
	return &memModel{
		datapoints: map[string]domain.Datapoint{},
		classes:    map[string]domain.Interpretation{},
		notes:      map[string]domain.Annotation{},
	}
}

func (m *memModel) IngestDatapoint(_ context.Context, d domain.Datapoint) bool {
	if _, ok := m.datapoints[d.ID]; ok {
		return false
	}
	m.ingests++
	m.datapoints[d.ID] = d
	return true
}

func (m *memModel) ApplyClassification(id string, in domain.Interpretation) bool {
	if _, ok := m.datapoints[id]; !ok {
		return false
	}
	m.classes[id] = in
	return true
}

func (m *memModel) ApplyAnnotation(id string, a domain.Annotation) bool {
	if _, ok := m.datapoints[id]; !ok {
		return false
	}
	m.notes[id] = a
	return true
}

const createdFrame = `{"id":"dp-1","rawText":"We need sign-off from compliance before shipping","startTime":0,"endTime":10000}`

func TestReconcilerCreatedIsIdempotent(t *testing.T) {
	ctx := context.Background()

	once := newMemModel()
	NewReconciler(nil, nil, once).HandleFrame(ctx, "datapoint.created", []byte(createdFrame))

	twice := newMemModel()
	r := NewReconciler(nil, nil, twice)
	if got := r.HandleFrame(ctx, "datapoint.created", []byte(createdFrame)); got != ResultApplied {
		t.Fatalf("first=%s", got)
	}
	if got := r.HandleFrame(ctx, "datapoint.created", []byte(createdFrame)); got != ResultDuplicate {
		t.Fatalf("second=%s", got)
	}
	if !reflect.DeepEqual(once.datapoints, twice.datapoints) || twice.ingests != 1 {
		t.Fatalf("state diverged: once=%v twice=%v", once.datapoints, twice.datapoints)
	}
}

func TestReconcilerUpdateBeforeCreateIsNoop(t *testing.T) {
	ctx := context.Background()
	m := newMemModel()
	r := NewReconciler(nil, nil, m)

	if got := r.HandleFrame(ctx, "classification.updated", []byte(`{"id":"dp-1","domain":"People"}`)); got != ResultUnknownID {
		t.Fatalf("early update=%s", got)
	}
	if got := r.HandleFrame(ctx, "annotation.updated", []byte(`{"id":"dp-1","note":"x"}`)); got != ResultUnknownID {
		t.Fatalf("early annotation=%s", got)
	}
	r.HandleFrame(ctx, "datapoint.created", []byte(createdFrame))
	if len(m.classes) != 0 || len(m.notes) != 0 {
		t.Fatalf("early updates leaked into state")
	}
	if got := r.HandleFrame(ctx, "classification.updated", []byte(`{"id":"dp-1","domain":"People"}`)); got != ResultApplied {
		t.Fatalf("late update=%s", got)
	}
	if m.classes["dp-1"].Domain != domain.DomainPeople {
		t.Fatalf("classification=%+v", m.classes["dp-1"])
	}
}

func TestReconcilerDropsMalformed(t *testing.T) {
	m := newMemModel()
	r := NewReconciler(nil, nil, m)
	if got := r.HandleFrame(context.Background(), "datapoint.created", []byte(`{"id":""}`)); got != ResultInvalid {
		t.Fatalf("result=%s", got)
	}
	if m.ingests != 0 {
		t.Fatalf("malformed frame ingested")
	}
}
