package transcription

import (
	"context"
	"errors"

	"github.com/yungbote/pulse-backend/internal/clients/gcp"
	"github.com/yungbote/pulse-backend/internal/clients/openai"
	"github.com/yungbote/pulse-backend/internal/domain"
	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
)

// Result is one provider's answer for a chunk. An empty Text with a nil error
// means the provider heard nothing it could transcribe.
type Result struct {
	Text       string
	Confidence *float64
}

type Provider interface {
	Name() string
	Transcribe(ctx context.Context, chunk domain.AudioChunk) (Result, error)
}

// SpeechProvider adapts the GCP speech client.
type SpeechProvider struct {
	Speech gcp.Speech
	Config gcp.SpeechConfig
}

func (p *SpeechProvider) Name() string { return "gcp_speech" }

func (p *SpeechProvider) Transcribe(ctx context.Context, chunk domain.AudioChunk) (Result, error) {
	res, err := p.Speech.Recognize(ctx, chunk.Data, chunk.MimeType, p.Config)
	if err != nil {
		if gcp.IsAuthError(err) {
			return Result{}, errors.Join(pkgerrors.ErrProviderAuth, err)
		}
		return Result{}, err
	}
	return Result{Text: res.Text, Confidence: res.Confidence}, nil
}

type whisper interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// WhisperProvider adapts the OpenAI transcription endpoint. It reports no
// confidence.
type WhisperProvider struct {
	Client whisper
}

func NewWhisperProvider(t *openai.Transcriber) *WhisperProvider {
	return &WhisperProvider{Client: t}
}

func (p *WhisperProvider) Name() string { return "openai_whisper" }

func (p *WhisperProvider) Transcribe(ctx context.Context, chunk domain.AudioChunk) (Result, error) {
	text, err := p.Client.Transcribe(ctx, chunk.Data, chunk.MimeType)
	if err != nil {
		if openai.IsAuthError(err) {
			return Result{}, errors.Join(pkgerrors.ErrProviderAuth, err)
		}
		return Result{}, err
	}
	return Result{Text: text}, nil
}
