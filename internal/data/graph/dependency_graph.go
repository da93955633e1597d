// Package graph projects the session's dependency edges into neo4j for
// post-hoc exploration. The projection is write-only.
package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
	"github.com/yungbote/pulse-backend/internal/platform/neo4jdb"
)

func domainNodes(sessionID string, tallies []domain.DomainTally, edges []domain.DependencyEdge, now string) []map[string]any {
	seen := map[domain.Domain]bool{}
	var out []map[string]any
	add := func(d domain.Domain, t domain.DomainTally) {
		if d == "" || seen[d] {
			return
		}
		seen[d] = true
		out = append(out, map[string]any{
			"key":         sessionID + "/" + string(d),
			"session_id":  sessionID,
			"name":        string(d),
			"total":       int64(t.Total),
			"aspirations": int64(t.Aspirations),
			"constraints": int64(t.Constraints),
			"synced_at":   now,
		})
	}
	for _, t := range tallies {
		add(t.Domain, t)
	}
	for _, e := range edges {
		add(e.FromDomain, domain.DomainTally{})
		add(e.ToDomain, domain.DomainTally{})
	}
	return out
}

func edgeRecords(sessionID string, edges []domain.DependencyEdge, now string) []map[string]any {
	out := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e.FromDomain == "" || e.ToDomain == "" {
			continue
		}
		out = append(out, map[string]any{
			"id":               sessionID + "/" + domain.EdgeID(e.FromDomain, e.ToDomain),
			"from_key":         sessionID + "/" + string(e.FromDomain),
			"to_key":           sessionID + "/" + string(e.ToDomain),
			"count":            int64(e.Count),
			"aspiration_count": int64(e.AspirationCount),
			"constraint_count": int64(e.ConstraintCount),
			"neutral_count":    int64(e.NeutralCount()),
			"first_seen_ms":    e.FirstSeenAtMs,
			"last_seen_ms":     e.LastSeenAtMs,
			"session_id":       sessionID,
			"synced_at":        now,
		})
	}
	return out
}

// UpsertDependencyGraph merges domain nodes and DEPENDS_ON relationships for
// one session. Counters are overwritten, so repeated syncs converge.
func UpsertDependencyGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, sessionID string, edges []domain.DependencyEdge, tallies []domain.DomainTally) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("neo4j dependency graph sync: missing session id")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	nodes := domainNodes(sessionID, tallies, edges, now)
	rels := edgeRecords(sessionID, edges, now)
	if len(nodes) == 0 {
		return nil
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	if res, err := session.Run(ctx, `CREATE CONSTRAINT workshop_domain_key_unique IF NOT EXISTS FOR (d:WorkshopDomain) REQUIRE d.key IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $nodes AS n
MERGE (d:WorkshopDomain {key: n.key})
SET d += n
`, map[string]any{"nodes": nodes})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		if len(rels) == 0 {
			return nil, nil
		}
		res, err = tx.Run(ctx, `
UNWIND $rels AS r
MATCH (a:WorkshopDomain {key: r.from_key})
MATCH (b:WorkshopDomain {key: r.to_key})
MERGE (a)-[e:DEPENDS_ON {id: r.id}]->(b)
SET e.count = r.count,
    e.aspiration_count = r.aspiration_count,
    e.constraint_count = r.constraint_count,
    e.neutral_count = r.neutral_count,
    e.first_seen_ms = r.first_seen_ms,
    e.last_seen_ms = r.last_seen_ms,
    e.session_id = r.session_id,
    e.synced_at = r.synced_at
`, map[string]any{"rels": rels})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("neo4j dependency graph sync: %w", err)
	}
	return nil
}

// EdgeSource is the read side of the insight model the syncer needs.
type EdgeSource interface {
	Edges() []domain.DependencyEdge
	Tallies() []domain.DomainTally
}

// Syncer pushes the projection on an interval and once more on shutdown.
type Syncer struct {
	client    *neo4jdb.Client
	log       *logger.Logger
	sessionID string
	src       EdgeSource
	interval  time.Duration
}

func NewSyncer(client *neo4jdb.Client, log *logger.Logger, sessionID string, src EdgeSource, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Syncer{client: client, log: log.With("service", "DependencyGraphSyncer"), sessionID: sessionID, src: src, interval: interval}
}

func (s *Syncer) SyncOnce(ctx context.Context) error {
	return UpsertDependencyGraph(ctx, s.client, s.log, s.sessionID, s.src.Edges(), s.src.Tallies())
}

func (s *Syncer) Run(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			if err := s.SyncOnce(final); err != nil {
				s.log.Warn("final graph sync failed", "error", err)
			}
			cancel()
			return nil
		case <-t.C:
			if err := s.SyncOnce(ctx); err != nil {
				s.log.Warn("graph sync failed", "error", err)
			}
		}
	}
}
