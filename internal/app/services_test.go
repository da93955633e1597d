package app

import (
	"testing"
	"time"

	"github.com/yungbote/pulse-backend/internal/config"
	"github.com/yungbote/pulse-backend/internal/interpret"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

func TestInsightConfigMapsEverySection(t *testing.T) {
	cfg := config.InsightConfig{
		SimilarityThreshold: 0.8,
		RecencyTau:          config.D(5 * time.Minute),
		SupportCap:          7,
		MinThemeStrength:    2,
		LabelWords:          3,
		TopPerCategory:      4,
		TopPressurePoints:   5,
		HighConfidence:      0.9,
		RevealLatch:         true,
		IntentFloor:         1,
		DependencyFloor:     2,
		MinSynthesis:        3,
		MinNarrative:        40,
	}
	got := InsightConfig(cfg)
	if got.Theme.Threshold != 0.8 || got.Theme.SupportCap != 7 || got.Theme.LabelWords != 3 {
		t.Fatalf("theme: %+v", got.Theme)
	}
	if got.Synthesis.Tau != 5*time.Minute || got.Synthesis.TopPerCategory != 4 || got.Synthesis.TopPressure != 5 {
		t.Fatalf("synthesis: %+v", got.Synthesis)
	}
	if got.Reveal.IntentFloor != 1 || got.Reveal.DependencyFloor != 2 || got.Reveal.MinSynthesis != 3 || got.Reveal.MinNarrative != 40 {
		t.Fatalf("reveal: %+v", got.Reveal)
	}
	if !got.RevealLatch || got.HighConfidence != 0.9 || got.MinThemeStrength != 2 {
		t.Fatalf("gates: %+v", got)
	}
}

func TestWireInterpreterFallsBackToKeyword(t *testing.T) {
	in := wireInterpreter(logger.Nop(), config.InsightConfig{Interpreter: "llm"}, Clients{})
	if _, ok := in.(interpret.Keyword); !ok {
		t.Fatalf("want keyword interpreter without an OpenAI client, got=%T", in)
	}
}

func TestWireEmbedderNoneWithoutClients(t *testing.T) {
	for _, kind := range []string{"workshop", "openai", "none", ""} {
		if e := wireEmbedder(logger.Nop(), config.InsightConfig{Embedder: kind}, Clients{}); e != nil {
			t.Fatalf("%q: want nil embedder, got=%T", kind, e)
		}
	}
}

func TestWireProvidersEmptyWithoutClients(t *testing.T) {
	cfg := config.Default()
	p, s := wireProviders(*cfg, Clients{})
	if p != nil || s != nil {
		t.Fatalf("want no providers, got=%v %v", p, s)
	}
}

func TestSessionChannel(t *testing.T) {
	cfg := config.Default()
	if got := sessionChannel(cfg); got != "local" {
		t.Fatalf("default channel: %q", got)
	}
	cfg.Workshop.SessionID = " ws-42 "
	if got := sessionChannel(cfg); got != "ws-42" {
		t.Fatalf("session channel: %q", got)
	}
}
