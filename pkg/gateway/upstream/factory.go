package upstream

import (
	"context"
	"fmt"

	"github.com/voxgate-go/voxgate/pkg/core"
	"github.com/voxgate-go/voxgate/pkg/core/providers/gemini"
	"github.com/voxgate-go/voxgate/pkg/core/providers/openai"
	"github.com/voxgate-go/voxgate/pkg/core/turn"
	"github.com/voxgate-go/voxgate/pkg/core/voice/stt"
	"github.com/voxgate-go/voxgate/pkg/core/voice/tts"
	"github.com/voxgate-go/voxgate/pkg/gateway/config"
)

// NewGenerator builds the reply generator selected by the config.
func NewGenerator(ctx context.Context, cfg config.Config) (turn.Generator, error) {
	var provider core.Provider
	switch cfg.ChatProvider {
	case config.ChatProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai chat provider")
		}
		opts := []openai.Option{}
		if cfg.ChatBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.ChatBaseURL))
		}
		provider = openai.New(cfg.OpenAIAPIKey, opts...)
	case config.ChatProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini chat provider")
		}
		p, err := gemini.New(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.ChatProvider)
	}
	return &chatGenerator{provider: provider, model: cfg.ChatModel}, nil
}

// NewRecognizer builds the speech recognizer.
func NewRecognizer(cfg config.Config) (turn.Recognizer, error) {
	if cfg.CartesiaAPIKey == "" {
		return nil, fmt.Errorf("CARTESIA_API_KEY is required for speech recognition")
	}
	return &sttRecognizer{
		provider: stt.NewCartesia(cfg.CartesiaAPIKey),
		opts: stt.TranscribeOptions{
			Model:      cfg.STTModel,
			Format:     cfg.STTFormat,
			SampleRate: cfg.STTSampleRate,
		},
	}, nil
}

// NewSynthesizer builds the speech synthesizer selected by the config.
func NewSynthesizer(cfg config.Config) (turn.Synthesizer, error) {
	var provider tts.Provider
	switch cfg.TTSProvider {
	case config.TTSProviderCartesia:
		if cfg.CartesiaAPIKey == "" {
			return nil, fmt.Errorf("CARTESIA_API_KEY is required for the cartesia tts provider")
		}
		provider = tts.NewCartesia(cfg.CartesiaAPIKey)
	case config.TTSProviderElevenLabs:
		if cfg.ElevenLabsAPIKey == "" {
			return nil, fmt.Errorf("ELEVENLABS_API_KEY is required for the elevenlabs tts provider")
		}
		provider = tts.NewElevenLabs(cfg.ElevenLabsAPIKey)
	default:
		return nil, fmt.Errorf("unknown tts provider %q", cfg.TTSProvider)
	}
	return &ttsSynthesizer{
		provider: provider,
		opts: tts.SynthesizeOptions{
			Voice:      cfg.TTSVoice,
			Format:     cfg.TTSFormat,
			SampleRate: cfg.TTSSampleRate,
		},
	}, nil
}
