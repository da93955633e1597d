package app

import (
	"strings"

	"github.com/facebookgo/clock"

	"github.com/yungbote/pulse-backend/internal/capture/device"
	"github.com/yungbote/pulse-backend/internal/clients/gcp"
	"github.com/yungbote/pulse-backend/internal/clients/openai"
	"github.com/yungbote/pulse-backend/internal/config"
	"github.com/yungbote/pulse-backend/internal/insight"
	"github.com/yungbote/pulse-backend/internal/insight/reveal"
	"github.com/yungbote/pulse-backend/internal/insight/synthesis"
	"github.com/yungbote/pulse-backend/internal/insight/theme"
	"github.com/yungbote/pulse-backend/internal/interpret"
	"github.com/yungbote/pulse-backend/internal/observability"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
	"github.com/yungbote/pulse-backend/internal/realtime"
	"github.com/yungbote/pulse-backend/internal/services"
	"github.com/yungbote/pulse-backend/internal/snapshot"
	"github.com/yungbote/pulse-backend/internal/transcription"

	capturepkg "github.com/yungbote/pulse-backend/internal/capture"
)

// InsightConfig maps the insight config section onto the model.
func InsightConfig(cfg config.InsightConfig) insight.Config {
	return insight.Config{
		Theme: theme.Config{
			Threshold:  cfg.SimilarityThreshold,
			SupportCap: cfg.SupportCap,
			LabelWords: cfg.LabelWords,
		},
		Synthesis: synthesis.Config{
			Tau:            cfg.RecencyTau.Duration,
			TopPerCategory: cfg.TopPerCategory,
			TopPressure:    cfg.TopPressurePoints,
		},
		Reveal: reveal.Config{
			IntentFloor:     cfg.IntentFloor,
			DependencyFloor: cfg.DependencyFloor,
			MinSynthesis:    cfg.MinSynthesis,
			MinNarrative:    cfg.MinNarrative,
		},
		RevealLatch:      cfg.RevealLatch,
		HighConfidence:   cfg.HighConfidence,
		MinThemeStrength: cfg.MinThemeStrength,
	}
}

func wireInterpreter(log *logger.Logger, cfg config.InsightConfig, c Clients) interpret.Interpreter {
	if strings.EqualFold(cfg.Interpreter, "llm") && c.OpenAI != nil {
		return interpret.NewLLM(log, c.OpenAI, cfg.InterpreterModel, interpret.NewKeyword())
	}
	return interpret.NewKeyword()
}

func wireEmbedder(log *logger.Logger, cfg config.InsightConfig, c Clients) insight.Embedder {
	switch strings.ToLower(cfg.Embedder) {
	case "workshop":
		if c.Workshop != nil {
			return c.Workshop
		}
	case "openai":
		if c.OpenAI != nil {
			opts := c.OpenAIOpt
			opts.MaxRetries = 0
			e, err := openai.NewEmbedder(log, opts)
			if err != nil {
				log.Warn("OpenAI embedder unavailable; lexical themes only", "error", err)
				return nil
			}
			return openai.TextEmbedder{Batch: e}
		}
	}
	log.Info("No embedder configured; lexical themes only", "embedder", cfg.Embedder)
	return nil
}

func wireProviders(cfg config.Config, c Clients) (primary, secondary transcription.Provider) {
	if c.Speech != nil {
		primary = &transcription.SpeechProvider{
			Speech: c.Speech,
			Config: gcp.SpeechConfig{
				LanguageCode:               cfg.Transcription.LanguageCode,
				Model:                      cfg.Transcription.SpeechModel,
				EnableAutomaticPunctuation: true,
				SampleRateHertz:            cfg.Capture.SampleRate,
				AudioChannelCount:          cfg.Capture.Channels,
			},
		}
	}
	if c.OpenAI != nil && strings.EqualFold(cfg.Transcription.Secondary, "openai") {
		secondary = transcription.NewWhisperProvider(openai.NewTranscriber(c.OpenAI, cfg.Transcription.OpenAIModel, cfg.Transcription.LanguageCode))
	}
	return primary, secondary
}

type Pipeline struct {
	Hub     *realtime.Hub
	Model   *insight.Model
	Session *services.Session
	Channel string
}

func wirePipeline(log *logger.Logger, metrics *observability.Metrics, cfg *config.Config, c Clients, store snapshot.Store, emitter services.Emitter, hub *realtime.Hub) (Pipeline, error) {
	log.Info("Wiring capture pipeline...")
	model := insight.New(InsightConfig(cfg.Insight), insight.Deps{
		Log:         log,
		Metrics:     metrics,
		Interpreter: wireInterpreter(log, cfg.Insight, c),
		Embedder:    wireEmbedder(log, cfg.Insight, c),
	})

	channel := sessionChannel(cfg)
	primary, secondary := wireProviders(*cfg, c)

	deps := services.SessionDeps{
		Log:     log,
		Metrics: metrics,
		Clock:   clock.New(),
		Device: device.NewPipe(log, device.PipeConfig{
			Path:       cfg.Capture.Device,
			SampleRate: cfg.Capture.SampleRate,
			Channels:   cfg.Capture.Channels,
		}),
		WakeLock:  device.NoWakeLock{},
		Primary:   primary,
		Secondary: secondary,
		Model:     model,
		Notifier:  services.NewDashboardNotifier(emitter, channel),
		Store:     store,
	}
	if c.Workshop != nil {
		deps.Forwarder = c.Workshop
		deps.Events = c.Workshop
	}

	session, err := services.NewSession(services.SessionConfig{
		ID:        channel,
		SpeakerID: cfg.Capture.SpeakerID,
		Capture: capturepkg.Config{
			ChunkInterval:     cfg.Capture.ChunkInterval.Duration,
			WatchdogInterval:  cfg.Capture.WatchdogInterval.Duration,
			ChunkStaleAfter:   cfg.Capture.ChunkStaleAfter.Duration,
			ForwardStaleAfter: cfg.Capture.ForwardStaleAfter.Duration,
		},
		Chain: transcription.ChainConfig{
			ChunkDuration: cfg.Capture.ChunkInterval.Duration,
			SilenceRMS:    cfg.Transcription.SilenceRMS,
			TraceSize:     cfg.Transcription.DebugTraceSize,
		},
		ReconnectDelay: cfg.Workshop.ReconnectDelay.Duration,
	}, deps)
	if err != nil {
		return Pipeline{}, err
	}
	return Pipeline{Hub: hub, Model: model, Session: session, Channel: channel}, nil
}

func sessionChannel(cfg *config.Config) string {
	if id := strings.TrimSpace(cfg.Workshop.SessionID); id != "" {
		return id
	}
	return "local"
}
