package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/pulse-backend/internal/platform/envutil"
)

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	s := strings.TrimSpace(node.Value)
	if s == "" || s == "null" || s == "~" {
		d.Duration = 0
		return nil
	}
	if dd, err := time.ParseDuration(s); err == nil {
		d.Duration = dd
		return nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must look like \"10s\" or integer milliseconds, got %q", s)
	}
	d.Duration = time.Duration(ms) * time.Millisecond
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) { return d.Duration.String(), nil }

func Default() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: D(15 * time.Second),
		},
		Capture: CaptureConfig{
			ChunkInterval:     D(10 * time.Second),
			WatchdogInterval:  D(10 * time.Second),
			ChunkStaleAfter:   D(25 * time.Second),
			ForwardStaleAfter: D(70 * time.Second),
			Device:            "stdin",
			SampleRate:        16000,
			Channels:          1,
			SpeakerID:         "room",
		},
		Transcription: TranscriptionConfig{
			Primary:        "gcp",
			Secondary:      "openai",
			LanguageCode:   "en-US",
			OpenAIModel:    "whisper-1",
			SilenceRMS:     0.004,
			DebugTraceSize: 200,
		},
		Insight: InsightConfig{
			SimilarityThreshold: 0.78,
			RecencyTau:          D(12 * time.Minute),
			SupportCap:          50,
			MinThemeStrength:    1,
			LabelWords:          6,
			TopPerCategory:      3,
			TopPressurePoints:   5,
			HighConfidence:      0.6,
			RevealLatch:         true,
			IntentFloor:         10,
			DependencyFloor:     12,
			MinSynthesis:        4,
			MinNarrative:        40,
			Interpreter:         "keyword",
			InterpreterModel:    "gpt-4.1-mini",
			Embedder:            "workshop",
		},
		Workshop: WorkshopConfig{
			Timeout:        D(30 * time.Second),
			ReconnectDelay: D(2 * time.Second),
		},
		Snapshot: SnapshotConfig{
			Store:      "http",
			SQLitePath: "pulse.db",
			Prefix:     "snapshots/",
		},
		Redis: RedisConfig{
			Channel: "pulse",
		},
		Neo4j: Neo4jConfig{
			User:         "neo4j",
			SyncInterval: D(5 * time.Second),
		},
		Otel: OtelConfig{
			ServiceName: "pulse",
		},
	}
}

// Load resolves defaults, then an optional YAML file, then environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	path := strings.TrimSpace(os.Getenv("PULSE_CONFIG_PATH"))
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "pulse.yaml")
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)
	cfg.HTTP.Addr = envutil.String("PULSE_HTTP_ADDR", cfg.HTTP.Addr)
	if port := envutil.String("PORT", ""); port != "" {
		cfg.HTTP.Addr = ":" + port
	}

	cfg.Capture.ChunkInterval.Duration = envutil.Duration("CAPTURE_CHUNK_INTERVAL", cfg.Capture.ChunkInterval.Duration)
	cfg.Capture.WatchdogInterval.Duration = envutil.Duration("CAPTURE_WATCHDOG_INTERVAL", cfg.Capture.WatchdogInterval.Duration)
	cfg.Capture.ChunkStaleAfter.Duration = envutil.Duration("CAPTURE_CHUNK_STALE_AFTER", cfg.Capture.ChunkStaleAfter.Duration)
	cfg.Capture.ForwardStaleAfter.Duration = envutil.Duration("CAPTURE_FORWARD_STALE_AFTER", cfg.Capture.ForwardStaleAfter.Duration)
	cfg.Capture.Device = envutil.String("CAPTURE_DEVICE", cfg.Capture.Device)
	cfg.Capture.SampleRate = envutil.Int("CAPTURE_SAMPLE_RATE", cfg.Capture.SampleRate)
	cfg.Capture.Channels = envutil.Int("CAPTURE_CHANNELS", cfg.Capture.Channels)
	cfg.Capture.SpeakerID = envutil.String("CAPTURE_SPEAKER_ID", cfg.Capture.SpeakerID)

	cfg.Transcription.Primary = envutil.String("TRANSCRIBE_PRIMARY", cfg.Transcription.Primary)
	cfg.Transcription.Secondary = envutil.String("TRANSCRIBE_SECONDARY", cfg.Transcription.Secondary)
	cfg.Transcription.LanguageCode = envutil.String("TRANSCRIBE_LANGUAGE", cfg.Transcription.LanguageCode)
	cfg.Transcription.SpeechModel = envutil.String("TRANSCRIBE_SPEECH_MODEL", cfg.Transcription.SpeechModel)
	cfg.Transcription.OpenAIModel = envutil.String("TRANSCRIBE_OPENAI_MODEL", cfg.Transcription.OpenAIModel)
	cfg.Transcription.SilenceRMS = envutil.Float("TRANSCRIBE_SILENCE_RMS", cfg.Transcription.SilenceRMS)

	cfg.Insight.SimilarityThreshold = envutil.Float("INSIGHT_SIMILARITY_THRESHOLD", cfg.Insight.SimilarityThreshold)
	cfg.Insight.RecencyTau.Duration = envutil.Duration("INSIGHT_RECENCY_TAU", cfg.Insight.RecencyTau.Duration)
	cfg.Insight.MinThemeStrength = envutil.Int("INSIGHT_MIN_THEME_STRENGTH", cfg.Insight.MinThemeStrength)
	cfg.Insight.RevealLatch = envutil.Bool("REVEAL_LATCH", cfg.Insight.RevealLatch)
	cfg.Insight.Interpreter = envutil.String("INSIGHT_INTERPRETER", cfg.Insight.Interpreter)
	cfg.Insight.InterpreterModel = envutil.String("INSIGHT_INTERPRETER_MODEL", cfg.Insight.InterpreterModel)
	cfg.Insight.Embedder = envutil.String("INSIGHT_EMBEDDER", cfg.Insight.Embedder)

	cfg.Workshop.BaseURL = strings.TrimRight(envutil.String("WORKSHOP_BASE_URL", cfg.Workshop.BaseURL), "/")
	cfg.Workshop.SessionID = envutil.String("WORKSHOP_SESSION_ID", cfg.Workshop.SessionID)
	cfg.Workshop.APIToken = envutil.String("WORKSHOP_API_TOKEN", cfg.Workshop.APIToken)
	cfg.Workshop.Timeout.Duration = envutil.Duration("WORKSHOP_TIMEOUT", cfg.Workshop.Timeout.Duration)

	cfg.Snapshot.Store = envutil.String("SNAPSHOT_STORE", cfg.Snapshot.Store)
	cfg.Snapshot.DSN = envutil.String("SNAPSHOT_DSN", cfg.Snapshot.DSN)
	cfg.Snapshot.SQLitePath = envutil.String("SNAPSHOT_SQLITE_PATH", cfg.Snapshot.SQLitePath)
	cfg.Snapshot.Bucket = envutil.String("SNAPSHOT_BUCKET", cfg.Snapshot.Bucket)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)

	cfg.Neo4j.URI = envutil.String("NEO4J_URI", cfg.Neo4j.URI)
	cfg.Neo4j.User = envutil.String("NEO4J_USER", cfg.Neo4j.User)
	cfg.Neo4j.Password = envutil.String("NEO4J_PASSWORD", cfg.Neo4j.Password)
	cfg.Neo4j.Database = envutil.String("NEO4J_DATABASE", cfg.Neo4j.Database)

	cfg.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Otel.ServiceName)
	cfg.Otel.Version = envutil.String("SERVICE_VERSION", cfg.Otel.Version)

	cfg.Auth.JWTSecret = envutil.String("AUTH_JWT_SECRET", cfg.Auth.JWTSecret)
	if extra := envutil.String("AUTH_ALLOW_ORIGINS", ""); extra != "" {
		cfg.Auth.AllowOrigins = splitList(extra)
	}
}

func (c *Config) Validate() error {
	if c.Capture.ChunkInterval.Duration <= 0 {
		return errors.New("capture.chunk_interval must be positive")
	}
	if c.Capture.WatchdogInterval.Duration <= 0 {
		return errors.New("capture.watchdog_interval must be positive")
	}
	if c.Capture.ChunkStaleAfter.Duration <= c.Capture.ChunkInterval.Duration {
		return errors.New("capture.chunk_stale_after must exceed chunk_interval")
	}
	if c.Capture.SampleRate <= 0 || c.Capture.Channels <= 0 {
		return errors.New("capture.sample_rate and capture.channels must be positive")
	}
	if c.Insight.SimilarityThreshold <= 0 || c.Insight.SimilarityThreshold > 1 {
		return fmt.Errorf("insight.similarity_threshold must be in (0,1], got %v", c.Insight.SimilarityThreshold)
	}
	if c.Insight.RecencyTau.Duration <= 0 {
		return errors.New("insight.recency_tau must be positive")
	}
	switch strings.ToLower(c.Insight.Interpreter) {
	case "keyword", "llm":
	default:
		return fmt.Errorf("insight.interpreter=%q (want keyword|llm)", c.Insight.Interpreter)
	}
	switch strings.ToLower(c.Insight.Embedder) {
	case "workshop", "openai", "none":
	default:
		return fmt.Errorf("insight.embedder=%q (want workshop|openai|none)", c.Insight.Embedder)
	}
	switch strings.ToLower(c.Snapshot.Store) {
	case "http", "postgres", "sqlite", "bucket":
	default:
		return fmt.Errorf("snapshot.store=%q (want http|postgres|sqlite|bucket)", c.Snapshot.Store)
	}
	if strings.EqualFold(c.Snapshot.Store, "bucket") && strings.TrimSpace(c.Snapshot.Bucket) == "" {
		return errors.New("snapshot.bucket is required for the bucket store")
	}
	if strings.EqualFold(c.Snapshot.Store, "postgres") && strings.TrimSpace(c.Snapshot.DSN) == "" {
		return errors.New("snapshot.dsn is required for the postgres store")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
