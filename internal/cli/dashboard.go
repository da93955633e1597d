package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/pulse-backend/internal/tui"
)

// DashboardClient polls the read side of a running pulse server.
type DashboardClient struct {
	baseURL string
	token   string
	hc      *http.Client
	now     func() time.Time
}

func NewDashboardClient(baseURL, token string, hc *http.Client) *DashboardClient {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &DashboardClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		hc:      hc,
		now:     time.Now,
	}
}

func (d *DashboardClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}
	resp, err := d.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s: http %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Fetch reads model, reveal, pressure points and capture status concurrently.
func (d *DashboardClient) Fetch(ctx context.Context) (tui.Frame, error) {
	var (
		frame    tui.Frame
		model    struct{ Model json.RawMessage `json:"model"` }
		rev      struct{ Reveal json.RawMessage `json:"reveal"` }
		pressure struct{ PressurePoints json.RawMessage `json:"pressurePoints"` }
		status   struct{ Status json.RawMessage `json:"status"` }
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.get(gctx, "/api/model", &model) })
	g.Go(func() error { return d.get(gctx, "/api/reveal", &rev) })
	g.Go(func() error { return d.get(gctx, "/api/pressure-points", &pressure) })
	g.Go(func() error { return d.get(gctx, "/api/capture/status", &status) })
	if err := g.Wait(); err != nil {
		return frame, err
	}

	parts := []struct {
		raw json.RawMessage
		out any
	}{
		{model.Model, &frame.Model},
		{rev.Reveal, &frame.Reveal},
		{pressure.PressurePoints, &frame.PressurePoints},
		{status.Status, &frame.Session},
	}
	for _, p := range parts {
		if len(p.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(p.raw, p.out); err != nil {
			return frame, err
		}
	}
	frame.FetchedAt = d.now()
	return frame, nil
}
