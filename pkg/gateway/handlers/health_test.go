package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/voxgate-go/voxgate/pkg/core/turn"
	"github.com/voxgate-go/voxgate/pkg/gateway/config"
)

func TestHealthHandler(t *testing.T) {
	h := HealthHandler{Registry: turn.NewRegistry(), StartedAt: time.Now().Add(-time.Minute)}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		OK            bool    `json:"ok"`
		UptimeSeconds float64 `json:"uptime_seconds"`
		Sessions      int     `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.OK {
		t.Error("ok = false")
	}
	if resp.UptimeSeconds < 59 {
		t.Errorf("uptime = %v", resp.UptimeSeconds)
	}
	if resp.Sessions != 0 {
		t.Errorf("sessions = %d", resp.Sessions)
	}
}

func TestReadyHandler(t *testing.T) {
	ready := config.Config{
		ChatProvider:   config.ChatProviderOpenAI,
		OpenAIAPIKey:   "sk",
		CartesiaAPIKey: "ca",
		TTSProvider:    config.TTSProviderCartesia,
	}

	rec := httptest.NewRecorder()
	ReadyHandler{Config: ready}.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, body %s", rec.Code, rec.Body.String())
	}

	notReady := ready
	notReady.OpenAIAPIKey = ""
	rec = httptest.NewRecorder()
	ReadyHandler{Config: notReady}.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("not-ready status = %d", rec.Code)
	}

	var resp struct {
		OK     bool     `json:"ok"`
		Issues []string `json:"issues"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.OK || len(resp.Issues) == 0 {
		t.Errorf("resp = %+v, want issues", resp)
	}
}
