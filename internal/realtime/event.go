package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/yungbote/pulse-backend/internal/domain"
)

type EventKind string

const (
	KindCreated               EventKind = "datapoint.created"
	KindClassificationUpdated EventKind = "classification.updated"
	KindAnnotationUpdated     EventKind = "annotation.updated"
)

// FeedEvent is one of Created, ClassificationUpdated or AnnotationUpdated.
type FeedEvent interface {
	Kind() EventKind
	TargetID() string
}

type Created struct {
	Datapoint domain.Datapoint
}

type ClassificationUpdated struct {
	ID             string
	Interpretation domain.Interpretation
}

type AnnotationUpdated struct {
	ID         string
	Annotation domain.Annotation
}

func (Created) Kind() EventKind               { return KindCreated }
func (ClassificationUpdated) Kind() EventKind { return KindClassificationUpdated }
func (AnnotationUpdated) Kind() EventKind     { return KindAnnotationUpdated }

func (e Created) TargetID() string               { return e.Datapoint.ID }
func (e ClassificationUpdated) TargetID() string { return e.ID }
func (e AnnotationUpdated) TargetID() string     { return e.ID }

// InvalidEventError is returned for payloads that fail the shape check.
type InvalidEventError struct {
	Event  string
	Reason string
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("invalid %s event: %s", e.Event, e.Reason)
}

func invalid(event, format string, args ...any) error {
	return &InvalidEventError{Event: event, Reason: fmt.Sprintf(format, args...)}
}

type classificationFields struct {
	Domain           string   `json:"domain"`
	Domains          []string `json:"domains"`
	IntentTypes      []string `json:"intentTypes"`
	TemporalIntent   string   `json:"temporalIntent"`
	ConfidenceWeight *float64 `json:"confidenceWeight"`
}

type createdPayload struct {
	ID             string `json:"id"`
	CreatedAt      *int64 `json:"createdAt"`
	RawText        string `json:"rawText"`
	Text           string `json:"text"`
	StartTime      *int64 `json:"startTime"`
	EndTime        *int64 `json:"endTime"`
	SpeakerID      string `json:"speakerId"`
	SourceChunkRef string `json:"sourceChunkRef"`
	classificationFields
}

type classificationPayload struct {
	ID string `json:"id"`
	classificationFields
}

type annotationPayload struct {
	ID     string `json:"id"`
	Intent string `json:"intent"`
	Note   string `json:"note"`
}

// DecodeEvent narrows a named feed frame into a FeedEvent. Unknown event names
// and malformed payloads return *InvalidEventError.
func DecodeEvent(name string, data []byte) (FeedEvent, error) {
	name = strings.TrimSpace(name)
	switch EventKind(name) {
	case KindCreated:
		var p createdPayload
		if err := decodeStrict(data, &p); err != nil {
			return nil, invalid(name, "%v", err)
		}
		return p.narrow(name)
	case KindClassificationUpdated:
		var p classificationPayload
		if err := decodeStrict(data, &p); err != nil {
			return nil, invalid(name, "%v", err)
		}
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, invalid(name, "missing id")
		}
		in, ok, err := p.classificationFields.interpretation()
		if err != nil {
			return nil, invalid(name, "%v", err)
		}
		if !ok {
			return nil, invalid(name, "no classification fields")
		}
		return ClassificationUpdated{ID: id, Interpretation: in}, nil
	case KindAnnotationUpdated:
		var p annotationPayload
		if err := decodeStrict(data, &p); err != nil {
			return nil, invalid(name, "%v", err)
		}
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, invalid(name, "missing id")
		}
		a := domain.Annotation{Note: strings.TrimSpace(p.Note)}
		if strings.TrimSpace(p.Intent) != "" {
			a.Intent = domain.ParseIntent(p.Intent)
		}
		if a.Intent == "" && a.Note == "" {
			return nil, invalid(name, "empty annotation")
		}
		return AnnotationUpdated{ID: id, Annotation: a}, nil
	default:
		return nil, invalid(name, "unknown event")
	}
}

func decodeStrict(data []byte, out any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return fmt.Errorf("payload is not a JSON object")
	}
	return json.Unmarshal(data, out)
}

func (p createdPayload) narrow(name string) (FeedEvent, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return nil, invalid(name, "missing id")
	}
	text := strings.TrimSpace(p.RawText)
	if text == "" {
		text = strings.TrimSpace(p.Text)
	}
	if text == "" {
		return nil, invalid(name, "missing rawText")
	}
	d := domain.Datapoint{
		ID:             id,
		Text:           text,
		SpeakerID:      strings.TrimSpace(p.SpeakerID),
		SourceChunkRef: strings.TrimSpace(p.SourceChunkRef),
	}
	if p.CreatedAt != nil {
		if *p.CreatedAt < 0 {
			return nil, invalid(name, "negative createdAt")
		}
		d.CreatedAtMs = *p.CreatedAt
	}
	if p.StartTime != nil {
		d.StartTimeMs = *p.StartTime
	}
	if p.EndTime != nil {
		d.EndTimeMs = *p.EndTime
	} else {
		d.EndTimeMs = d.StartTimeMs
	}
	if d.StartTimeMs < 0 || d.EndTimeMs < d.StartTimeMs {
		return nil, invalid(name, "bad time range [%d,%d]", d.StartTimeMs, d.EndTimeMs)
	}
	in, ok, err := p.classificationFields.interpretation()
	if err != nil {
		return nil, invalid(name, "%v", err)
	}
	if ok {
		d.Interpretation = &in
	}
	return Created{Datapoint: d}, nil
}

// interpretation reports ok=false when the payload carries no domain at all.
func (f classificationFields) interpretation() (domain.Interpretation, bool, error) {
	var in domain.Interpretation
	if strings.TrimSpace(f.Domain) == "" {
		return in, false, nil
	}
	d, ok := domain.ParseDomain(f.Domain)
	if !ok {
		return in, false, fmt.Errorf("unknown domain %q", f.Domain)
	}
	in.Domain = d
	for _, s := range f.Domains {
		rd, ok := domain.ParseDomain(s)
		if !ok {
			return in, false, fmt.Errorf("unknown referenced domain %q", s)
		}
		in.Domains = append(in.Domains, rd)
	}
	for _, s := range f.IntentTypes {
		if strings.TrimSpace(s) == "" {
			continue
		}
		in.IntentTypes = append(in.IntentTypes, domain.ParseIntent(s))
	}
	switch t := domain.TemporalIntent(strings.ToLower(strings.TrimSpace(f.TemporalIntent))); t {
	case "", domain.TemporalPast, domain.TemporalPresent, domain.TemporalFuture:
		in.TemporalIntent = t
	default:
		return in, false, fmt.Errorf("unknown temporalIntent %q", f.TemporalIntent)
	}
	in.ConfidenceWeight = 1
	if f.ConfidenceWeight != nil {
		w := *f.ConfidenceWeight
		if math.IsNaN(w) || w < 0 || w > 1 {
			return in, false, fmt.Errorf("confidenceWeight %v out of range", w)
		}
		in.ConfidenceWeight = w
	}
	return in, true, nil
}
