package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/yungbote/pulse-backend/internal/pkg/httpx"
)

// NewSDKClient builds the official SDK client with SDK-level retries disabled;
// fallback policy belongs to the caller.
func NewSDKClient(opts Options) (*oai.Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base+"/v1/"))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}
	c := oai.NewClient(reqOpts...)
	return &c, nil
}

// Transcriber is a Whisper-style speech-to-text client.
type Transcriber struct {
	client *oai.Client
	model  string
	lang   string
}

func NewTranscriber(client *oai.Client, model, language string) *Transcriber {
	if strings.TrimSpace(model) == "" {
		model = string(oai.AudioModelWhisper1)
	}
	// The transcription API wants ISO-639-1 ("en"), not a BCP-47 tag.
	if i := strings.IndexAny(language, "-_"); i > 0 {
		language = language[:i]
	}
	return &Transcriber{client: client, model: model, lang: strings.ToLower(strings.TrimSpace(language))}
}

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if t == nil || t.client == nil {
		return "", errors.New("openai transcriber: client is nil")
	}
	params := oai.AudioTranscriptionNewParams{
		File:  oai.File(bytes.NewReader(audio), "chunk"+extensionFor(mimeType), mimeType),
		Model: oai.AudioModel(t.model),
	}
	if t.lang != "" {
		params.Language = oai.String(t.lang)
	}
	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func extensionFor(mimeType string) string {
	m := strings.ToLower(mimeType)
	switch {
	case strings.Contains(m, "wav"):
		return ".wav"
	case strings.Contains(m, "webm"):
		return ".webm"
	case strings.Contains(m, "ogg"):
		return ".ogg"
	case strings.Contains(m, "mpeg"), strings.Contains(m, "mp3"):
		return ".mp3"
	case strings.Contains(m, "flac"):
		return ".flac"
	default:
		return ".wav"
	}
}

// GenerateJSON runs one Responses API call constrained to schema and returns
// the raw JSON output text.
func GenerateJSON(ctx context.Context, client *oai.Client, model, instructions, input, name string, schema map[string]interface{}) (string, error) {
	if client == nil {
		return "", errors.New("openai: client is nil")
	}
	params := responses.ResponseNewParams{
		Model:           model,
		MaxOutputTokens: oai.Int(400),
		Instructions:    oai.String(instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(input, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   name,
					Schema: schema,
					Strict: oai.Bool(true),
					Type:   "json_schema",
				},
			},
		},
	}
	resp, err := client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai responses: %w", err)
	}
	return resp.OutputText(), nil
}

// IsAuthError reports a 401/403 from any OpenAI call made through this package.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return httpx.IsAuth(err)
}
