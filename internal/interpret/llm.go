package interpret

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	oai "github.com/openai/openai-go"

	"github.com/yungbote/pulse-backend/internal/clients/openai"
	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/observability"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

type llmOutput struct {
	Domain           string   `json:"domain" jsonschema:"enum=People,enum=Operations,enum=Customer,enum=Technology,enum=Regulation,enum=General"`
	Domains          []string `json:"domains" jsonschema_description:"Other domains the statement references, most important first"`
	IntentTypes      []string `json:"intent_types" jsonschema_description:"aspiration, constraint, enabler, opportunity, risk, question or observation"`
	TemporalIntent   string   `json:"temporal_intent" jsonschema:"enum=past,enum=present,enum=future"`
	ConfidenceWeight float64  `json:"confidence_weight" jsonschema_description:"0..1, how clearly the statement carries the labels"`
}

var llmSchema = openai.GenerateSchema[llmOutput]()

const llmInstructions = `You label one statement spoken in a strategy workshop.
Pick the primary discussion domain, any other domains it references, the intent
tags in order of importance, and whether it talks about the past, present or
future. Use General only when no domain applies.`

type generateFunc func(ctx context.Context, model, instructions, input string) (string, error)

// LLM classifies through a structured-output model call and falls back to the
// keyword interpreter when the call or its output fails.
type LLM struct {
	log      *logger.Logger
	model    string
	timeout  time.Duration
	generate generateFunc
	fallback Interpreter
}

func NewLLM(log *logger.Logger, client *oai.Client, model string, fallback Interpreter) *LLM {
	if log == nil {
		log = logger.Nop()
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4.1-mini"
	}
	if fallback == nil {
		fallback = Keyword{}
	}
	return &LLM{
		log:      log.With("component", "interpret.LLM", "model", model),
		model:    model,
		timeout:  20 * time.Second,
		fallback: fallback,
		generate: func(ctx context.Context, model, instructions, input string) (string, error) {
			return openai.GenerateJSON(ctx, client, model, instructions, input, "utterance_labels", llmSchema)
		},
	}
}

func (l *LLM) Interpret(ctx context.Context, text string) (domain.Interpretation, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	ctx, span := observability.StartSpan(ctx, "interpret.llm")
	raw, err := l.generate(ctx, l.model, llmInstructions, text)
	observability.EndSpan(span, err)
	if err != nil {
		l.log.Warn("llm interpretation failed; using keywords", "error", err)
		return l.fallback.Interpret(ctx, text)
	}
	in, err := parseLLMOutput(raw)
	if err != nil {
		l.log.Warn("llm output rejected; using keywords", "error", err)
		return l.fallback.Interpret(ctx, text)
	}
	return in, nil
}

func parseLLMOutput(raw string) (domain.Interpretation, error) {
	var out llmOutput
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &out); err != nil {
		return domain.Interpretation{}, fmt.Errorf("decode llm output: %w", err)
	}
	d, ok := domain.ParseDomain(out.Domain)
	if !ok {
		return domain.Interpretation{}, fmt.Errorf("unknown domain %q", out.Domain)
	}
	in := domain.Interpretation{Domain: d, TemporalIntent: domain.TemporalPresent}
	seen := map[domain.Domain]bool{d: true}
	for _, s := range out.Domains {
		rd, ok := domain.ParseDomain(s)
		if !ok || seen[rd] || rd == domain.DomainGeneral {
			continue
		}
		seen[rd] = true
		in.Domains = append(in.Domains, rd)
	}
	for _, s := range out.IntentTypes {
		if strings.TrimSpace(s) != "" {
			in.IntentTypes = append(in.IntentTypes, domain.ParseIntent(s))
		}
	}
	switch t := domain.TemporalIntent(strings.ToLower(out.TemporalIntent)); t {
	case domain.TemporalPast, domain.TemporalFuture:
		in.TemporalIntent = t
	}
	w := out.ConfidenceWeight
	if w < 0 {
		w = 0
	}
	if w > 1 {
		w = 1
	}
	in.ConfidenceWeight = w
	return in, nil
}
