package interpret

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/yungbote/pulse-backend/internal/domain"
)

func TestClassifyComplianceStatement(t *testing.T) {
	in := Classify("We need sign-off from compliance before shipping")
	if in.Domain != domain.DomainOperations {
		t.Fatalf("domain=%s want Operations", in.Domain)
	}
	if !reflect.DeepEqual(in.Domains, []domain.Domain{domain.DomainRegulation}) {
		t.Fatalf("domains=%v", in.Domains)
	}
	if len(in.IntentTypes) == 0 || in.IntentTypes[0] != domain.IntentConstraint {
		t.Fatalf("intents=%v", in.IntentTypes)
	}
	if in.TemporalIntent != domain.TemporalPresent {
		t.Fatalf("temporal=%s", in.TemporalIntent)
	}
}

func TestClassifyTable(t *testing.T) {
	cases := []struct {
		text     string
		domain   domain.Domain
		intent   domain.IntentType
		temporal domain.TemporalIntent
	}{
		{"In the future we want every customer to self-serve", domain.DomainCustomer, domain.IntentAspiration, domain.TemporalFuture},
		{"Our legacy platform is a bottleneck", domain.DomainTechnology, domain.IntentConstraint, domain.TemporalPresent},
		{"We already had great morale on the team last year", domain.DomainPeople, domain.IntentEnabler, domain.TemporalPast},
		{"There is a risk of a privacy breach", domain.DomainRegulation, domain.IntentRisk, domain.TemporalPresent},
		{"lunch is at noon", domain.DomainGeneral, "", domain.TemporalPresent},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			in := Classify(tc.text)
			if in.Domain != tc.domain {
				t.Fatalf("domain=%s want %s", in.Domain, tc.domain)
			}
			if tc.intent == "" && len(in.IntentTypes) != 0 {
				t.Fatalf("intents=%v want none", in.IntentTypes)
			}
			if tc.intent != "" && (len(in.IntentTypes) == 0 || in.IntentTypes[0] != tc.intent) {
				t.Fatalf("intents=%v want %s first", in.IntentTypes, tc.intent)
			}
			if in.TemporalIntent != tc.temporal {
				t.Fatalf("temporal=%s want %s", in.TemporalIntent, tc.temporal)
			}
			if in.ConfidenceWeight <= 0 || in.ConfidenceWeight > 1 {
				t.Fatalf("weight=%v", in.ConfidenceWeight)
			}
		})
	}
}

func TestClassifyQuestion(t *testing.T) {
	in := Classify("How do we onboard customers faster?")
	if !containsIntent(in.IntentTypes, domain.IntentQuestion) {
		t.Fatalf("intents=%v", in.IntentTypes)
	}
}

func containsIntent(ts []domain.IntentType, want domain.IntentType) bool {
	for _, t := range ts {
		if t == want {
			return true
		}
	}
	return false
}

func TestDependencyCues(t *testing.T) {
	if !ContainsAny("This is blocked by legal", DependencyCues) {
		t.Fatalf("blocked by not detected")
	}
	if ContainsAny("We ship weekly", DependencyCues) {
		t.Fatalf("false positive")
	}
}

func TestLLMParsesStructuredOutput(t *testing.T) {
	l := NewLLM(nil, nil, "m", nil)
	l.generate = func(context.Context, string, string, string) (string, error) {
		return `{"domain":"operations","domains":["Regulation","Operations","Marketing"],"intent_types":["blocker"],"temporal_intent":"future","confidence_weight":1.4}`, nil
	}
	in, err := l.Interpret(context.Background(), "x")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	want := domain.Interpretation{
		Domain:           domain.DomainOperations,
		Domains:          []domain.Domain{domain.DomainRegulation},
		IntentTypes:      []domain.IntentType{domain.IntentConstraint},
		TemporalIntent:   domain.TemporalFuture,
		ConfidenceWeight: 1,
	}
	if !reflect.DeepEqual(in, want) {
		t.Fatalf("got %+v want %+v", in, want)
	}
}

func TestLLMFallsBackToKeywords(t *testing.T) {
	l := NewLLM(nil, nil, "m", nil)
	l.generate = func(context.Context, string, string, string) (string, error) {
		return "", errors.New("503")
	}
	in, err := l.Interpret(context.Background(), "We need sign-off from compliance before shipping")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if in.Domain != domain.DomainOperations {
		t.Fatalf("fallback domain=%s", in.Domain)
	}

	l.generate = func(context.Context, string, string, string) (string, error) { return `{"domain":"Space"}`, nil }
	in, _ = l.Interpret(context.Background(), "our data platform")
	if in.Domain != domain.DomainTechnology {
		t.Fatalf("rejected-output fallback domain=%s", in.Domain)
	}
}

func TestLLMSchemaIsStrict(t *testing.T) {
	if llmSchema["additionalProperties"] != false {
		t.Fatalf("schema not strict: %v", llmSchema)
	}
	req, _ := llmSchema["required"].([]string)
	if len(req) != 5 {
		t.Fatalf("required=%v", llmSchema["required"])
	}
}
