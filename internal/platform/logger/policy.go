package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// policy decides what workshop data may reach the logs. Credentials are
// always redacted; speaker ids are hashed; transcript and utterance text is
// reduced to its length unless LOG_TRANSCRIPTS is on.
type policy struct {
	enabled     bool
	transcripts bool
	salt        string
}

func policyFromEnv() *policy {
	return &policy{
		enabled:     !isOff(os.Getenv("LOG_REDACTION_ENABLED")),
		transcripts: isOn(os.Getenv("LOG_TRANSCRIPTS")),
		salt:        strings.TrimSpace(os.Getenv("LOG_HASH_SALT")),
	}
}

func isOff(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no", "off":
		return true
	}
	return false
}

func isOn(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func (p *policy) apply(kv []interface{}) []interface{} {
	if !p.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		out = append(out, key, p.value(strings.ToLower(strings.TrimSpace(key)), kv[i+1]))
	}
	if len(kv)%2 == 1 {
		out = append(out, kv[len(kv)-1])
	}
	return out
}

func (p *policy) value(key string, v interface{}) interface{} {
	switch classify(key) {
	case fieldSecret:
		return "[REDACTED]"
	case fieldParticipant:
		return p.hash(v)
	case fieldTranscript:
		if p.transcripts {
			return v
		}
		return fmt.Sprintf("[%d chars]", len([]rune(fmt.Sprint(v))))
	}
	if s, ok := v.(string); ok && looksLikeJWT(s) {
		return "[REDACTED]"
	}
	return v
}

type fieldKind int

const (
	fieldPlain fieldKind = iota
	fieldSecret
	fieldParticipant
	fieldTranscript
)

var (
	secretMarkers      = []string{"token", "authorization", "password", "secret", "api_key", "apikey", "credentials"}
	participantMarkers = []string{"speaker_id", "speaker", "participant"}
	transcriptKeys     = map[string]bool{"text": true, "transcript": true, "utterance_text": true, "narrative": true}
)

func classify(key string) fieldKind {
	for _, m := range secretMarkers {
		if strings.Contains(key, m) {
			return fieldSecret
		}
	}
	for _, m := range participantMarkers {
		if strings.Contains(key, m) {
			return fieldParticipant
		}
	}
	if transcriptKeys[key] {
		return fieldTranscript
	}
	return fieldPlain
}

func (p *policy) hash(v interface{}) string {
	raw := strings.TrimSpace(fmt.Sprint(v))
	if v == nil || raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(p.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}
