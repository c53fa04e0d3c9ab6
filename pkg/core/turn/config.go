// Package turn implements the per-connection conversation engine: audio
// accumulation, trigger coalescing, interrupt handling, partial transcription
// scheduling, and the turn state machine that drives recognition, generation,
// and synthesis for one live session.
package turn

import "time"

// Config holds the tunables for one session's conversation engine.
type Config struct {
	// MaxBufferedAudioBytes is the ceiling for buffered inbound audio.
	// Older chunks are dropped whole once the total exceeds this.
	// Default: 1.5 MiB.
	MaxBufferedAudioBytes int `json:"max_buffered_audio_bytes"`

	// TurnWaitWindow is the coalescing window for full-turn triggers.
	// A trigger that arrives while the window is open is queued
	// (last-write-wins) and replayed when the window elapses.
	// Default: 400ms.
	TurnWaitWindow time.Duration `json:"turn_wait_window"`

	// PartialDebounce is the quiet period after an audio chunk before a
	// partial transcription is attempted. Each new chunk re-arms the timer.
	// Default: 350ms.
	PartialDebounce time.Duration `json:"partial_debounce"`

	// MinPartialAudioBytes is the minimum buffered audio before a partial
	// transcription is worth attempting. Default: 9000.
	MinPartialAudioBytes int `json:"min_partial_audio_bytes"`

	// MinPartialTextChars is the minimum trimmed transcript length before a
	// partial result is fed into the turn coalescer. Default: 8.
	MinPartialTextChars int `json:"min_partial_text_chars"`

	// MaxHistory bounds the conversation history; the oldest messages are
	// dropped first. Default: 20.
	MaxHistory int `json:"max_history"`

	// SystemPrompt is the operator-configured base instruction. A language
	// directive is appended per session.
	SystemPrompt string `json:"system_prompt"`

	// MaxTokens caps the generated reply length. Default: 1024.
	MaxTokens int `json:"max_tokens"`

	// Temperature controls generation randomness. Default: 0.7.
	Temperature float64 `json:"temperature"`
}

// DefaultConfig returns a Config with the standard defaults.
func DefaultConfig() Config {
	return Config{
		MaxBufferedAudioBytes: 1536 << 10, // 1.5 MiB
		TurnWaitWindow:        400 * time.Millisecond,
		PartialDebounce:       350 * time.Millisecond,
		MinPartialAudioBytes:  9000,
		MinPartialTextChars:   8,
		MaxHistory:            20,
		SystemPrompt:          "You are a helpful voice assistant. Keep replies concise and conversational.",
		MaxTokens:             1024,
		Temperature:           0.7,
	}
}

// withDefaults fills zero values with the standard defaults.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxBufferedAudioBytes <= 0 {
		c.MaxBufferedAudioBytes = def.MaxBufferedAudioBytes
	}
	if c.TurnWaitWindow <= 0 {
		c.TurnWaitWindow = def.TurnWaitWindow
	}
	if c.PartialDebounce <= 0 {
		c.PartialDebounce = def.PartialDebounce
	}
	if c.MinPartialAudioBytes <= 0 {
		c.MinPartialAudioBytes = def.MinPartialAudioBytes
	}
	if c.MinPartialTextChars <= 0 {
		c.MinPartialTextChars = def.MinPartialTextChars
	}
	if c.MaxHistory <= 0 {
		c.MaxHistory = def.MaxHistory
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = def.SystemPrompt
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = def.MaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = def.Temperature
	}
	return c
}
