// Package config loads gateway configuration from the environment, with an
// optional YAML overlay file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ChatProvider selects the reply generation backend.
type ChatProvider string

const (
	ChatProviderOpenAI ChatProvider = "openai"
	ChatProviderGemini ChatProvider = "gemini"
)

// TTSProvider selects the speech synthesis backend.
type TTSProvider string

const (
	TTSProviderCartesia   TTSProvider = "cartesia"
	TTSProviderElevenLabs TTSProvider = "elevenlabs"
)

type Config struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`

	// Chat generation.
	ChatProvider  ChatProvider `yaml:"chat_provider"`
	ChatModel     string       `yaml:"chat_model"`
	ChatBaseURL   string       `yaml:"chat_base_url"`
	OpenAIAPIKey  string       `yaml:"-"`
	GeminiAPIKey  string       `yaml:"-"`
	SystemPrompt  string       `yaml:"system_prompt"`
	MaxTokens     int          `yaml:"max_tokens"`
	Temperature   float64      `yaml:"temperature"`
	MaxHistory    int          `yaml:"max_history"`
	DefaultLang   string       `yaml:"default_language"`

	// Speech recognition.
	CartesiaAPIKey string `yaml:"-"`
	STTModel       string `yaml:"stt_model"`
	STTFormat      string `yaml:"stt_format"`
	STTSampleRate  int    `yaml:"stt_sample_rate"`

	// Speech synthesis.
	TTSProvider      TTSProvider `yaml:"tts_provider"`
	TTSVoice         string      `yaml:"tts_voice"`
	TTSFormat        string      `yaml:"tts_format"`
	TTSSampleRate    int         `yaml:"tts_sample_rate"`
	ElevenLabsAPIKey string      `yaml:"-"`

	// Turn engine.
	TurnWaitWindow       time.Duration `yaml:"turn_wait_window"`
	PartialDebounce      time.Duration `yaml:"partial_debounce"`
	MinPartialAudioBytes int           `yaml:"min_partial_audio_bytes"`
	MinPartialTextChars  int           `yaml:"min_partial_text_chars"`
	MaxBufferedAudio     int           `yaml:"max_buffered_audio_bytes"`

	// Live WebSocket transport.
	WSMaxMessageBytes int64         `yaml:"ws_max_message_bytes"`
	WSPingInterval    time.Duration `yaml:"ws_ping_interval"`
	WSWriteTimeout    time.Duration `yaml:"ws_write_timeout"`

	// Operational defaults.
	ReadHeaderTimeout   time.Duration `yaml:"read_header_timeout"`
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period"`
}

// LoadFromEnv builds a Config from VOXGATE_* environment variables. When
// VOXGATE_CONFIG_FILE is set, the YAML file is applied first and env vars
// override it.
func LoadFromEnv() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("VOXGATE_CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Addr:                 ":8080",
		LogLevel:             "info",
		ChatProvider:         ChatProviderOpenAI,
		ChatModel:            "gpt-4o-mini",
		SystemPrompt:         "You are a helpful voice assistant. Keep replies short and conversational.",
		MaxTokens:            1024,
		Temperature:          0.7,
		MaxHistory:           20,
		DefaultLang:          "auto",
		STTModel:             "ink-whisper",
		STTFormat:            "webm",
		TTSProvider:          TTSProviderCartesia,
		TTSFormat:            "pcm",
		TTSSampleRate:        24000,
		TurnWaitWindow:       400 * time.Millisecond,
		PartialDebounce:      350 * time.Millisecond,
		MinPartialAudioBytes: 9000,
		MinPartialTextChars:  8,
		MaxBufferedAudio:     1536 << 10,
		WSMaxMessageBytes:    2 << 20,
		WSPingInterval:       20 * time.Second,
		WSWriteTimeout:       5 * time.Second,
		ReadHeaderTimeout:    10 * time.Second,
		ShutdownGracePeriod:  30 * time.Second,
	}
}

func applyEnv(cfg *Config) {
	cfg.Addr = envOr("VOXGATE_ADDR", cfg.Addr)
	cfg.LogLevel = envOr("VOXGATE_LOG_LEVEL", cfg.LogLevel)

	cfg.ChatProvider = ChatProvider(envOr("VOXGATE_CHAT_PROVIDER", string(cfg.ChatProvider)))
	cfg.ChatModel = envOr("VOXGATE_CHAT_MODEL", cfg.ChatModel)
	cfg.ChatBaseURL = envOr("VOXGATE_CHAT_BASE_URL", cfg.ChatBaseURL)
	cfg.OpenAIAPIKey = envOr("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.GeminiAPIKey = envOr("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.SystemPrompt = envOr("VOXGATE_SYSTEM_PROMPT", cfg.SystemPrompt)
	cfg.MaxTokens = envIntOr("VOXGATE_MAX_TOKENS", cfg.MaxTokens)
	cfg.Temperature = envFloat64Or("VOXGATE_TEMPERATURE", cfg.Temperature)
	cfg.MaxHistory = envIntOr("VOXGATE_MAX_HISTORY", cfg.MaxHistory)
	cfg.DefaultLang = envOr("VOXGATE_DEFAULT_LANGUAGE", cfg.DefaultLang)

	cfg.CartesiaAPIKey = envOr("CARTESIA_API_KEY", cfg.CartesiaAPIKey)
	cfg.STTModel = envOr("VOXGATE_STT_MODEL", cfg.STTModel)
	cfg.STTFormat = envOr("VOXGATE_STT_FORMAT", cfg.STTFormat)
	cfg.STTSampleRate = envIntOr("VOXGATE_STT_SAMPLE_RATE", cfg.STTSampleRate)

	cfg.TTSProvider = TTSProvider(envOr("VOXGATE_TTS_PROVIDER", string(cfg.TTSProvider)))
	cfg.TTSVoice = envOr("VOXGATE_TTS_VOICE", cfg.TTSVoice)
	cfg.TTSFormat = envOr("VOXGATE_TTS_FORMAT", cfg.TTSFormat)
	cfg.TTSSampleRate = envIntOr("VOXGATE_TTS_SAMPLE_RATE", cfg.TTSSampleRate)
	cfg.ElevenLabsAPIKey = envOr("ELEVENLABS_API_KEY", cfg.ElevenLabsAPIKey)

	cfg.TurnWaitWindow = envDurationOr("VOXGATE_TURN_WAIT_WINDOW", cfg.TurnWaitWindow)
	cfg.PartialDebounce = envDurationOr("VOXGATE_PARTIAL_DEBOUNCE", cfg.PartialDebounce)
	cfg.MinPartialAudioBytes = envIntOr("VOXGATE_MIN_PARTIAL_AUDIO_BYTES", cfg.MinPartialAudioBytes)
	cfg.MinPartialTextChars = envIntOr("VOXGATE_MIN_PARTIAL_TEXT_CHARS", cfg.MinPartialTextChars)
	cfg.MaxBufferedAudio = envIntOr("VOXGATE_MAX_BUFFERED_AUDIO_BYTES", cfg.MaxBufferedAudio)

	cfg.WSMaxMessageBytes = envInt64Or("VOXGATE_WS_MAX_MESSAGE_BYTES", cfg.WSMaxMessageBytes)
	cfg.WSPingInterval = envDurationOr("VOXGATE_WS_PING_INTERVAL", cfg.WSPingInterval)
	cfg.WSWriteTimeout = envDurationOr("VOXGATE_WS_WRITE_TIMEOUT", cfg.WSWriteTimeout)

	cfg.ReadHeaderTimeout = envDurationOr("VOXGATE_READ_HEADER_TIMEOUT", cfg.ReadHeaderTimeout)
	cfg.ShutdownGracePeriod = envDurationOr("VOXGATE_SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)
}

func (cfg Config) validate() error {
	switch cfg.ChatProvider {
	case ChatProviderOpenAI, ChatProviderGemini:
	default:
		return fmt.Errorf("VOXGATE_CHAT_PROVIDER must be one of openai|gemini")
	}
	switch cfg.TTSProvider {
	case TTSProviderCartesia, TTSProviderElevenLabs:
	default:
		return fmt.Errorf("VOXGATE_TTS_PROVIDER must be one of cartesia|elevenlabs")
	}
	if strings.TrimSpace(cfg.ChatModel) == "" {
		return fmt.Errorf("VOXGATE_CHAT_MODEL must not be empty")
	}
	if cfg.MaxTokens <= 0 {
		return fmt.Errorf("VOXGATE_MAX_TOKENS must be > 0")
	}
	if cfg.MaxHistory <= 0 {
		return fmt.Errorf("VOXGATE_MAX_HISTORY must be > 0")
	}
	if cfg.TurnWaitWindow <= 0 {
		return fmt.Errorf("VOXGATE_TURN_WAIT_WINDOW must be > 0")
	}
	if cfg.PartialDebounce <= 0 {
		return fmt.Errorf("VOXGATE_PARTIAL_DEBOUNCE must be > 0")
	}
	if cfg.MinPartialAudioBytes < 0 {
		return fmt.Errorf("VOXGATE_MIN_PARTIAL_AUDIO_BYTES must be >= 0")
	}
	if cfg.MinPartialTextChars < 0 {
		return fmt.Errorf("VOXGATE_MIN_PARTIAL_TEXT_CHARS must be >= 0")
	}
	if cfg.MaxBufferedAudio <= 0 {
		return fmt.Errorf("VOXGATE_MAX_BUFFERED_AUDIO_BYTES must be > 0")
	}
	if cfg.WSMaxMessageBytes <= 0 {
		return fmt.Errorf("VOXGATE_WS_MAX_MESSAGE_BYTES must be > 0")
	}
	if cfg.WSPingInterval <= 0 {
		return fmt.Errorf("VOXGATE_WS_PING_INTERVAL must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return fmt.Errorf("VOXGATE_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return fmt.Errorf("VOXGATE_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return fmt.Errorf("VOXGATE_SHUTDOWN_GRACE_PERIOD must be > 0")
	}
	return nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envFloat64Or(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
