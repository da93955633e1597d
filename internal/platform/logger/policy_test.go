package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(p *policy) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar(), policy: p}, logs
}

func TestPolicyScrubsWorkshopData(t *testing.T) {
	log, logs := observed(&policy{enabled: true, salt: "s"})
	log.With("api_token", "abc").Info("forwarded",
		"speaker_id", "room",
		"text", "we are blocked on compliance",
		"seq", 7,
		"header", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhZGEifQ.sig",
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	f := entries[0].ContextMap()
	if f["api_token"] != "[REDACTED]" {
		t.Fatalf("token not redacted: %v", f["api_token"])
	}
	if s, _ := f["speaker_id"].(string); !strings.HasPrefix(s, "hash:") || len(s) != len("hash:")+12 {
		t.Fatalf("speaker not hashed: %v", f["speaker_id"])
	}
	if f["text"] != "[28 chars]" {
		t.Fatalf("transcript not summarized: %v", f["text"])
	}
	if f["seq"] != int64(7) {
		t.Fatalf("plain field changed: %#v", f["seq"])
	}
	if f["header"] != "[REDACTED]" {
		t.Fatalf("jwt-looking value kept: %v", f["header"])
	}
}

func TestPolicyTranscriptOptIn(t *testing.T) {
	log, logs := observed(&policy{enabled: true, transcripts: true})
	log.Info("utterance", "text", "hello")
	if got := logs.All()[0].ContextMap()["text"]; got != "hello" {
		t.Fatalf("text = %v", got)
	}
}

func TestPolicyDisabledPassesThrough(t *testing.T) {
	log, logs := observed(&policy{})
	log.Info("x", "password", "hunter2")
	if got := logs.All()[0].ContextMap()["password"]; got != "hunter2" {
		t.Fatalf("password = %v", got)
	}
}

func TestPolicyOddArgs(t *testing.T) {
	p := &policy{enabled: true}
	out := p.apply([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("out = %v", out)
	}
}
