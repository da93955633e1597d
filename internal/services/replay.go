package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/insight"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

type ReplayResult struct {
	Lines     int `json:"lines"`
	Forwarded int `json:"forwarded"`
	Skipped   int `json:"skipped"`
	Themed    int `json:"themed"`
}

// Replay feeds recorded transcript bodies, one JSON object per line, through a
// local forwarder into model and then drains the embedding backlog. Malformed
// or empty lines are counted and skipped.
func Replay(ctx context.Context, log *logger.Logger, model *insight.Model, r io.Reader) (ReplayResult, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("service", "Replay")
	fwd := NewLocalForwarder(model, "replay")

	var res ReplayResult
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		res.Lines++
		var body domain.TranscriptForward
		if err := json.Unmarshal([]byte(line), &body); err != nil {
			res.Skipped++
			log.Warn("skipping malformed replay line", "line", res.Lines, "error", err)
			continue
		}
		if p := strings.TrimSpace(body.DialoguePhase); p != "" && p != model.Phase() {
			model.SetPhase(p)
		}
		if err := fwd.ForwardTranscript(ctx, body); err != nil {
			res.Skipped++
			log.Debug("replay line not forwarded", "line", res.Lines, "error", err)
			continue
		}
		res.Forwarded++
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("read replay input: %w", err)
	}
	res.Themed = model.EnrichPending(ctx)
	log.Info("replay finished", "lines", res.Lines, "forwarded", res.Forwarded, "skipped", res.Skipped, "themed", res.Themed)
	return res, nil
}
