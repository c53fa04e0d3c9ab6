// Package handlers contains the gateway's HTTP handlers.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/voxgate-go/voxgate/pkg/core/turn"
	"github.com/voxgate-go/voxgate/pkg/gateway/config"
)

// HealthHandler reports liveness.
type HealthHandler struct {
	Registry  *turn.Registry
	StartedAt time.Time
}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type healthResp struct {
		OK            bool    `json:"ok"`
		UptimeSeconds float64 `json:"uptime_seconds"`
		Sessions      int     `json:"sessions"`
	}

	sessions := 0
	if h.Registry != nil {
		sessions = h.Registry.Count()
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResp{
		OK:            true,
		UptimeSeconds: time.Since(h.StartedAt).Seconds(),
		Sessions:      sessions,
	})
}

// ReadyHandler reports whether the gateway has everything it needs to serve
// live sessions.
type ReadyHandler struct {
	Config config.Config
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK           bool     `json:"ok"`
		ChatProvider string   `json:"chat_provider"`
		TTSProvider  string   `json:"tts_provider"`
		Issues       []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	switch h.Config.ChatProvider {
	case config.ChatProviderOpenAI:
		if h.Config.OpenAIAPIKey == "" {
			issues = append(issues, "chat_provider=openai but OPENAI_API_KEY not set")
		}
	case config.ChatProviderGemini:
		if h.Config.GeminiAPIKey == "" {
			issues = append(issues, "chat_provider=gemini but GEMINI_API_KEY not set")
		}
	default:
		issues = append(issues, "invalid chat_provider")
	}

	if h.Config.CartesiaAPIKey == "" {
		issues = append(issues, "CARTESIA_API_KEY not set")
	}

	switch h.Config.TTSProvider {
	case config.TTSProviderCartesia:
	case config.TTSProviderElevenLabs:
		if h.Config.ElevenLabsAPIKey == "" {
			issues = append(issues, "tts_provider=elevenlabs but ELEVENLABS_API_KEY not set")
		}
	default:
		issues = append(issues, "invalid tts_provider")
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(readyResp{
		OK:           ok,
		ChatProvider: string(h.Config.ChatProvider),
		TTSProvider:  string(h.Config.TTSProvider),
		Issues:       issues,
	})
}
