package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/voxgate-go/voxgate/pkg/core"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io"

// ElevenLabsProvider implements the TTS Provider interface using the
// ElevenLabs HTTP API.
type ElevenLabsProvider struct {
	apiKey     string
	baseURL    string
	modelID    string
	httpClient *http.Client
}

// NewElevenLabs creates a new ElevenLabs TTS provider.
func NewElevenLabs(apiKey string) *ElevenLabsProvider {
	return &ElevenLabsProvider{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    elevenLabsBaseURL,
		modelID:    "eleven_flash_v2_5",
		httpClient: &http.Client{},
	}
}

// NewElevenLabsWithClient creates an ElevenLabs TTS provider against a custom
// endpoint with a custom HTTP client. Used by tests.
func NewElevenLabsWithClient(apiKey, baseURL string, client *http.Client) *ElevenLabsProvider {
	return &ElevenLabsProvider{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		modelID:    "eleven_flash_v2_5",
		httpClient: client,
	}
}

// Name returns the provider identifier.
func (e *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

// Synthesize converts text to audio via the text-to-speech endpoint.
func (e *ElevenLabsProvider) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("elevenlabs api key is required")
	}
	voiceID := strings.TrimSpace(opts.Voice)
	if voiceID == "" {
		return nil, fmt.Errorf("voice id is required")
	}

	payload := map[string]any{
		"text":     text,
		"model_id": e.modelID,
	}
	if opts.Language != "" {
		payload["language_code"] = opts.Language
	}
	if opts.Speed != 0 {
		payload["voice_settings"] = map[string]any{"speed": opts.Speed}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		e.baseURL, url.PathEscape(voiceID), outputFormatParam(opts))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, core.NewAPIError(fmt.Sprintf("elevenlabs error %d: %s", resp.StatusCode, string(errBody)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return &Synthesis{
		Audio:  audio,
		Format: normalFormat(opts.Format),
	}, nil
}

// outputFormatParam maps options to an ElevenLabs output_format value.
func outputFormatParam(opts SynthesizeOptions) string {
	sampleRate := opts.SampleRate
	if sampleRate == 0 {
		sampleRate = 24000
	}
	switch opts.Format {
	case "mp3":
		return fmt.Sprintf("mp3_%d_128", sampleRate)
	default:
		return fmt.Sprintf("pcm_%d", sampleRate)
	}
}
