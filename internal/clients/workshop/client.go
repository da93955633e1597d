package workshop

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/platform/ctxutil"
	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

type Config struct {
	BaseURL   string
	SessionID string
	APIToken  string
	Timeout   time.Duration
	// HTTPClient overrides the default client; its Timeout is left untouched.
	HTTPClient *http.Client
}

// Client talks to the workshop server that owns persisted utterances,
// classifications and snapshots.
type Client struct {
	log       *logger.Logger
	baseURL   string
	sessionID string
	token     string
	hc        *http.Client
	// stream has no timeout; the SSE response is long-lived.
	stream *http.Client
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("workshop http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *HTTPError) HTTPStatusCode() int { return e.StatusCode }

func New(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("workshop base url required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("workshop base url: %w", err)
	}
	hc := cfg.HTTPClient
	stream := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
		stream = &http.Client{}
	}
	return &Client{
		log:       log.With("service", "WorkshopClient"),
		baseURL:   base,
		sessionID: strings.TrimSpace(cfg.SessionID),
		token:     strings.TrimSpace(cfg.APIToken),
		hc:        hc,
		stream:    stream,
	}, nil
}

func (c *Client) SessionID() string { return c.sessionID }

func (c *Client) sessionPath(suffix string) (string, error) {
	if c.sessionID == "" {
		return "", fmt.Errorf("workshop session id: %w", pkgerrors.ErrInvalidArgument)
	}
	return "/sessions/" + url.PathEscape(c.sessionID) + suffix, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
		rdr = &buf
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, pkgerrors.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// ForwardTranscript posts one normalized chunk. Callers do not retry.
func (c *Client) ForwardTranscript(ctx context.Context, body domain.TranscriptForward) error {
	path, err := c.sessionPath("/transcript")
	if err != nil {
		return err
	}
	if err := c.doJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("%w: %v", pkgerrors.ErrIngestionForwardFailed, err)
	}
	return nil
}

type embeddingRequest struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	path, err := c.sessionPath("/embedding")
	if err != nil {
		return nil, err
	}
	var out embeddingResponse
	if err := c.doJSON(ctx, http.MethodPost, path, embeddingRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, errors.New("workshop embedding: empty vector")
	}
	return out.Embedding, nil
}

type saveSnapshotRequest struct {
	Name    string          `json:"name"`
	Phase   string          `json:"phase"`
	Payload json.RawMessage `json:"payload"`
}

func (c *Client) ListSnapshots(ctx context.Context) ([]domain.SnapshotSummary, error) {
	var wrapped struct {
		Snapshots []domain.SnapshotSummary `json:"snapshots"`
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/snapshots", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	// Servers answer either a bare array or {"snapshots": [...]}.
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []domain.SnapshotSummary
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode snapshots: %w", err)
		}
		return list, nil
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}
	return wrapped.Snapshots, nil
}

func (c *Client) SaveSnapshot(ctx context.Context, name, phase string, payload json.RawMessage) (domain.SnapshotSummary, error) {
	var out domain.SnapshotSummary
	err := c.doJSON(ctx, http.MethodPost, "/snapshots", saveSnapshotRequest{Name: name, Phase: phase, Payload: payload}, &out)
	return out, err
}

func (c *Client) GetSnapshot(ctx context.Context, id string) (domain.SnapshotBlob, error) {
	var out domain.SnapshotBlob
	if strings.TrimSpace(id) == "" {
		return out, fmt.Errorf("snapshot id: %w", pkgerrors.ErrInvalidArgument)
	}
	err := c.doJSON(ctx, http.MethodGet, "/snapshots/"+url.PathEscape(id), nil, &out)
	return out, err
}
