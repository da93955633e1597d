package config

import "time"

type Duration struct {
	time.Duration
}

func D(d time.Duration) Duration { return Duration{Duration: d} }

type HTTPConfig struct {
	Addr            string   `yaml:"addr"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

type CaptureConfig struct {
	// ChunkInterval is the segment clock period; each tick closes one chunk.
	ChunkInterval     Duration `yaml:"chunk_interval"`
	WatchdogInterval  Duration `yaml:"watchdog_interval"`
	ChunkStaleAfter   Duration `yaml:"chunk_stale_after"`
	ForwardStaleAfter Duration `yaml:"forward_stale_after"`

	// Device is "stdin" or a path to a raw PCM16LE stream (fifo, file).
	Device     string `yaml:"device"`
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
	SpeakerID  string `yaml:"speaker_id"`
}

type TranscriptionConfig struct {
	Primary   string `yaml:"primary"`   // gcp | none
	Secondary string `yaml:"secondary"` // openai | none

	LanguageCode string `yaml:"language_code"`
	SpeechModel  string `yaml:"speech_model"`
	OpenAIModel  string `yaml:"openai_model"`

	// SilenceRMS is the normalized RMS floor under which a chunk is true silence.
	SilenceRMS     float64 `yaml:"silence_rms"`
	DebugTraceSize int     `yaml:"debug_trace_size"`
}

type InsightConfig struct {
	SimilarityThreshold float64  `yaml:"similarity_threshold"`
	RecencyTau          Duration `yaml:"recency_tau"`
	SupportCap          int      `yaml:"support_cap"`
	MinThemeStrength    int      `yaml:"min_theme_strength"`
	LabelWords          int      `yaml:"label_words"`
	TopPerCategory      int      `yaml:"top_per_category"`
	TopPressurePoints   int      `yaml:"top_pressure_points"`

	HighConfidence  float64 `yaml:"high_confidence"`
	RevealLatch     bool    `yaml:"reveal_latch"`
	IntentFloor     int     `yaml:"intent_floor"`
	DependencyFloor int     `yaml:"dependency_floor"`
	MinSynthesis    int     `yaml:"min_synthesis"`
	MinNarrative    int     `yaml:"min_narrative"`

	Interpreter      string `yaml:"interpreter"` // keyword | llm
	InterpreterModel string `yaml:"interpreter_model"`
	Embedder         string `yaml:"embedder"` // workshop | openai | none
}

type WorkshopConfig struct {
	BaseURL        string   `yaml:"base_url"`
	SessionID      string   `yaml:"session_id"`
	APIToken       string   `yaml:"api_token"`
	Timeout        Duration `yaml:"timeout"`
	ReconnectDelay Duration `yaml:"reconnect_delay"`
}

type SnapshotConfig struct {
	Store      string `yaml:"store"` // http | postgres | sqlite | bucket
	DSN        string `yaml:"dsn"`
	SQLitePath string `yaml:"sqlite_path"`
	Bucket     string `yaml:"bucket"`
	Prefix     string `yaml:"prefix"`
}

type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

type Neo4jConfig struct {
	URI          string   `yaml:"uri"`
	User         string   `yaml:"user"`
	Password     string   `yaml:"password"`
	Database     string   `yaml:"database"`
	SyncInterval Duration `yaml:"sync_interval"`
}

type AuthConfig struct {
	JWTSecret    string   `yaml:"jwt_secret"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// OtelConfig names the service; OTEL_ENABLED and the OTLP env vars decide
// whether spans are exported at all.
type OtelConfig struct {
	ServiceName string `yaml:"service_name"`
	Version     string `yaml:"version"`
}

type Config struct {
	Env           string              `yaml:"env"`
	HTTP          HTTPConfig          `yaml:"http"`
	Capture       CaptureConfig       `yaml:"capture"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Insight       InsightConfig       `yaml:"insight"`
	Workshop      WorkshopConfig      `yaml:"workshop"`
	Snapshot      SnapshotConfig      `yaml:"snapshot"`
	Redis         RedisConfig         `yaml:"redis"`
	Neo4j         Neo4jConfig         `yaml:"neo4j"`
	Otel          OtelConfig          `yaml:"otel"`
	Auth          AuthConfig          `yaml:"auth"`
}
