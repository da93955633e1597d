package app

import (
	"context"
	"fmt"
	"strings"

	oai "github.com/openai/openai-go"

	"github.com/yungbote/pulse-backend/internal/clients/gcp"
	"github.com/yungbote/pulse-backend/internal/clients/openai"
	"github.com/yungbote/pulse-backend/internal/clients/workshop"
	"github.com/yungbote/pulse-backend/internal/config"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
	"github.com/yungbote/pulse-backend/internal/platform/neo4jdb"
	"github.com/yungbote/pulse-backend/internal/realtime/bus"
)

// Clients holds the external connections. Every field may be nil; the
// pipeline degrades to offline operation without them.
type Clients struct {
	Workshop  *workshop.Client
	Speech    gcp.Speech
	OpenAI    *oai.Client
	OpenAIOpt openai.Options
	Bucket    gcp.BucketService
	Bus       bus.Bus
	Neo4j     *neo4jdb.Client
}

func wantsOpenAI(cfg *config.Config) bool {
	return strings.EqualFold(cfg.Transcription.Secondary, "openai") ||
		strings.EqualFold(cfg.Insight.Interpreter, "llm") ||
		strings.EqualFold(cfg.Insight.Embedder, "openai")
}

func wireClients(ctx context.Context, log *logger.Logger, cfg *config.Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Workshop server
	if strings.TrimSpace(cfg.Workshop.BaseURL) != "" {
		wc, err := workshop.New(log, workshop.Config{
			BaseURL:   cfg.Workshop.BaseURL,
			SessionID: cfg.Workshop.SessionID,
			APIToken:  cfg.Workshop.APIToken,
			Timeout:   cfg.Workshop.Timeout.Duration,
		})
		if err != nil {
			return c, fmt.Errorf("init workshop client: %w", err)
		}
		c.Workshop = wc
	} else {
		log.Warn("No workshop server configured; running offline")
	}

	// GCP speech
	if strings.EqualFold(cfg.Transcription.Primary, "gcp") {
		sp, err := gcp.NewSpeech(ctx, log)
		if err != nil {
			log.Warn("GCP speech unavailable; primary provider disabled", "error", err)
		} else {
			c.Speech = sp
		}
	}

	// OpenAI
	if wantsOpenAI(cfg) {
		c.OpenAIOpt = openai.OptionsFromEnv()
		sdk, err := openai.NewSDKClient(c.OpenAIOpt)
		if err != nil {
			log.Warn("OpenAI unavailable; dependent features disabled", "error", err)
		} else {
			c.OpenAI = sdk
		}
	}

	// Snapshot bucket
	if strings.EqualFold(cfg.Snapshot.Store, "bucket") {
		b, err := gcp.NewBucketService(ctx, log, cfg.Snapshot.Bucket)
		if err != nil {
			return c, &SnapshotStoreBootstrapError{Code: SnapshotStoreErrorConnectFailed, Store: cfg.Snapshot.Store, Cause: err}
		}
		c.Bucket = b
	}

	// Redis
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		channel := cfg.Redis.Channel
		if id := strings.TrimSpace(cfg.Workshop.SessionID); id != "" {
			channel = channel + ":" + id
		}
		b, err := bus.NewRedisBus(ctx, log, bus.RedisConfig{Addr: cfg.Redis.Addr, Channel: channel})
		if err != nil {
			return c, fmt.Errorf("init redis bus: %w", err)
		}
		c.Bus = b
	}

	// Neo4j
	nc, err := neo4jdb.New(log, neo4jdb.Config{
		URI:      cfg.Neo4j.URI,
		User:     cfg.Neo4j.User,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
	})
	if err != nil {
		log.Warn("Neo4j unavailable; dependency graph projection disabled", "error", err)
	} else {
		c.Neo4j = nc
	}

	return c, nil
}

func (c Clients) Close(log *logger.Logger) {
	if c.Speech != nil {
		if err := c.Speech.Close(); err != nil {
			log.Warn("speech client close failed", "error", err)
		}
	}
	if c.Bucket != nil {
		if err := c.Bucket.Close(); err != nil {
			log.Warn("bucket client close failed", "error", err)
		}
	}
	if c.Bus != nil {
		if err := c.Bus.Close(); err != nil {
			log.Warn("redis bus close failed", "error", err)
		}
	}
	if c.Neo4j != nil {
		if err := c.Neo4j.Close(context.Background()); err != nil {
			log.Warn("neo4j close failed", "error", err)
		}
	}
}
