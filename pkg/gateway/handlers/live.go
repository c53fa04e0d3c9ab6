package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/voxgate-go/voxgate/pkg/core/turn"
	"github.com/voxgate-go/voxgate/pkg/gateway/config"
	"github.com/voxgate-go/voxgate/pkg/gateway/live/protocol"
	"github.com/voxgate-go/voxgate/pkg/gateway/metrics"
	"github.com/voxgate-go/voxgate/pkg/gateway/mw"
)

// LiveHandler upgrades /v1/live requests to WebSocket conversations.
type LiveHandler struct {
	Logger      *slog.Logger
	Config      config.Config
	Registry    *turn.Registry
	Recognizer  turn.Recognizer
	Generator   turn.Generator
	Synthesizer turn.Synthesizer
}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		// Browser clients connect from arbitrary origins; access control is
		// the deployment's reverse proxy concern.
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sessionID := uuid.NewString()
	reqID, _ := mw.RequestIDFrom(r.Context())
	logger = logger.With("session_id", sessionID, "request_id", reqID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &wsSink{
		ctx:      ctx,
		logger:   logger,
		priority: make(chan []byte, 16),
		normal:   make(chan []byte, 256),
	}

	session, err := h.Registry.Create(turn.Dependencies{
		ID:          sessionID,
		Logger:      logger,
		Sink:        sink,
		Recognizer:  h.Recognizer,
		Generator:   h.Generator,
		Synthesizer: h.Synthesizer,
		Config: turn.Config{
			MaxBufferedAudioBytes: h.Config.MaxBufferedAudio,
			TurnWaitWindow:        h.Config.TurnWaitWindow,
			PartialDebounce:       h.Config.PartialDebounce,
			MinPartialAudioBytes:  h.Config.MinPartialAudioBytes,
			MinPartialTextChars:   h.Config.MinPartialTextChars,
			MaxHistory:            h.Config.MaxHistory,
			SystemPrompt:          h.Config.SystemPrompt,
			MaxTokens:             h.Config.MaxTokens,
			Temperature:           h.Config.Temperature,
		},
	})
	if err != nil {
		logger.Error("session create failed", "error", err)
		conn.Close()
		return
	}
	if h.Config.DefaultLang != "" {
		session.SetLanguage(h.Config.DefaultLang)
	}

	metrics.SessionOpened()
	logger.Info("live session opened")
	defer func() {
		h.Registry.Remove(sessionID)
		metrics.SessionClosed()
		logger.Info("live session closed")
	}()

	conn.SetReadLimit(h.Config.WSMaxMessageBytes)
	conn.SetPongHandler(func(string) error { return nil })

	writer := &outboundWriter{
		ws:           conn,
		ctx:          ctx,
		pingInterval: h.Config.WSPingInterval,
		writeTimeout: h.Config.WSWriteTimeout,
		priority:     sink.priority,
		normal:       sink.normal,
	}
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		if err := writer.Run(); err != nil {
			logger.Debug("writer stopped", "error", err)
		}
		conn.Close()
	}()

	h.readLoop(conn, session, sink, logger)

	cancel()
	<-writerDone
}

func (h *LiveHandler) readLoop(conn *websocket.Conn, session *turn.Session, sink *wsSink, logger *slog.Logger) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("read loop ended", "error", err)
			}
			return
		}

		// Raw binary frames carry non-final audio without base64 overhead.
		if msgType == websocket.BinaryMessage {
			session.HandleAudioChunk(data, false)
			continue
		}

		msg, err := protocol.DecodeClientMessage(data)
		if err != nil {
			code := "bad_request"
			var derr *protocol.DecodeError
			if errors.As(err, &derr) {
				code = derr.Code
			}
			sink.send(sink.priority, protocol.NewError(code, err.Error()))
			continue
		}

		switch m := msg.(type) {
		case protocol.ClientAudioChunk:
			audio, err := m.Audio()
			if err != nil {
				sink.send(sink.priority, protocol.NewError("bad_request", err.Error()))
				continue
			}
			session.HandleAudioChunk(audio, m.IsFinal)
		case protocol.ClientTextInput:
			session.HandleTextInput(m.Text)
		case protocol.ClientStartRecording:
			session.StartRecording()
		case protocol.ClientInterrupt:
			metrics.RecordInterrupt()
			session.Interrupt()
		case protocol.ClientSetLanguage:
			session.SetLanguage(m.Language)
		}
	}
}

// wsSink turns engine events into wire frames and hands them to the writer.
type wsSink struct {
	ctx      context.Context
	logger   *slog.Logger
	priority chan []byte
	normal   chan []byte

	turnStart time.Time
}

func (s *wsSink) send(ch chan []byte, frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		s.logger.Error("frame marshal failed", "error", err)
		return
	}
	select {
	case ch <- data:
	case <-s.ctx.Done():
	}
}

// Turn-sequenced frames (message_received through reply) all ride the normal
// lane so the client observes them in engine order. The priority lane is
// reserved for frames that must not sit behind a backed-up turn: transcription
// feedback, notices, and errors.
func (s *wsSink) MessageReceived(msg turn.Message, source turn.InputSource) {
	s.turnStart = time.Now()
	s.send(s.normal, protocol.NewMessageReceived(msg.Text, string(source)))
}

func (s *wsSink) Typing(active bool) {
	s.send(s.normal, protocol.NewTyping(active))
}

func (s *wsSink) Token(text string) {
	metrics.RecordToken()
	s.send(s.normal, protocol.NewToken(text))
}

func (s *wsSink) MessageComplete(text string) {
	s.send(s.normal, protocol.NewMessageComplete(text))
}

func (s *wsSink) AudioChunk(data []byte, seq int) {
	metrics.RecordAudioChunk()
	s.send(s.normal, protocol.NewAudioChunk(data, seq))
}

func (s *wsSink) AudioDone() {
	s.send(s.normal, protocol.NewAudioDone())
}

func (s *wsSink) SpeechResult(text, language string, isFinal bool) {
	s.send(s.priority, protocol.NewSpeechResult(text, language, isFinal))
}

func (s *wsSink) Reply(text string) {
	metrics.RecordTurn("completed")
	if !s.turnStart.IsZero() {
		metrics.RecordStageDuration("turn", time.Since(s.turnStart).Seconds())
	}
	s.send(s.normal, protocol.NewReply(text))
}

// TurnAborted has no wire frame; the client that interrupted already knows.
func (s *wsSink) TurnAborted() {
	metrics.RecordTurn("aborted")
}

func (s *wsSink) Info(message string) {
	s.send(s.priority, protocol.NewInfo(message))
}

func (s *wsSink) Error(code, message string) {
	metrics.RecordTurn("failed")
	s.send(s.priority, protocol.NewError(code, message))
}
