// Package protocol defines the JSON frames exchanged over the live
// WebSocket connection.
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badRequest(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_request", Message: message, Param: param}
}

func unsupported(message, param string) *DecodeError {
	return &DecodeError{Code: "unsupported", Message: message, Param: param}
}

// Client frames.

// ClientAudioChunk carries a base64-encoded slice of recorded audio.
// IsFinal marks the last chunk of an utterance and triggers recognition.
type ClientAudioChunk struct {
	Type    string `json:"type"`
	DataB64 string `json:"data"`
	IsFinal bool   `json:"is_final,omitempty"`
}

// Audio returns the decoded audio payload.
func (c ClientAudioChunk) Audio() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(c.DataB64)
	if err != nil {
		return nil, badRequest("audio_chunk.data is not valid base64", "data")
	}
	return data, nil
}

// ClientTextInput is a typed message from the user.
type ClientTextInput struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ClientStartRecording announces a fresh utterance; buffered audio from the
// previous one is discarded.
type ClientStartRecording struct {
	Type string `json:"type"`
}

// ClientInterrupt cancels the in-flight turn.
type ClientInterrupt struct {
	Type string `json:"type"`
}

// ClientSetLanguage switches the session language. "auto" enables detection.
type ClientSetLanguage struct {
	Type     string `json:"type"`
	Language string `json:"language"`
}

// DecodeClientMessage parses and validates one inbound frame.
func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badRequest("invalid json frame", "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badRequest("missing type", "type")
	}

	switch typ {
	case "audio_chunk":
		var msg ClientAudioChunk
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid audio_chunk", "")
		}
		if strings.TrimSpace(msg.DataB64) == "" && !msg.IsFinal {
			return nil, badRequest("audio_chunk.data is required", "data")
		}
		return msg, nil
	case "text_input":
		var msg ClientTextInput
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid text_input", "")
		}
		return msg, nil
	case "start_recording":
		var msg ClientStartRecording
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid start_recording", "")
		}
		return msg, nil
	case "interrupt":
		var msg ClientInterrupt
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid interrupt", "")
		}
		return msg, nil
	case "set_language":
		var msg ClientSetLanguage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid set_language", "")
		}
		if strings.TrimSpace(msg.Language) == "" {
			return nil, badRequest("set_language.language is required", "language")
		}
		return msg, nil
	default:
		return nil, unsupported("unsupported message type", "type")
	}
}

// Server frames.

type ServerMessageReceived struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

type ServerTyping struct {
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

type ServerToken struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ServerMessageComplete struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ServerAudioChunk struct {
	Type    string `json:"type"`
	DataB64 string `json:"data"`
	Seq     int    `json:"seq"`
}

type ServerAudioDone struct {
	Type string `json:"type"`
}

type ServerSpeechResult struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	IsFinal  bool   `json:"is_final"`
}

type ServerReply struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ServerInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ServerErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Constructors set the type tag so callers cannot forget it.

func NewMessageReceived(text, source string) ServerMessageReceived {
	return ServerMessageReceived{Type: "message_received", Text: text, Source: source}
}

func NewTyping(active bool) ServerTyping {
	return ServerTyping{Type: "typing", Active: active}
}

func NewToken(text string) ServerToken {
	return ServerToken{Type: "token", Text: text}
}

func NewMessageComplete(text string) ServerMessageComplete {
	return ServerMessageComplete{Type: "message_complete", Text: text}
}

func NewAudioChunk(audio []byte, seq int) ServerAudioChunk {
	return ServerAudioChunk{
		Type:    "audio_chunk",
		DataB64: base64.StdEncoding.EncodeToString(audio),
		Seq:     seq,
	}
}

func NewAudioDone() ServerAudioDone {
	return ServerAudioDone{Type: "audio_done"}
}

func NewSpeechResult(text, language string, isFinal bool) ServerSpeechResult {
	return ServerSpeechResult{Type: "speech_result", Text: text, Language: language, IsFinal: isFinal}
}

func NewReply(text string) ServerReply {
	return ServerReply{Type: "reply", Text: text}
}

func NewInfo(message string) ServerInfo {
	return ServerInfo{Type: "info", Message: message}
}

func NewError(code, message string) ServerErrorFrame {
	return ServerErrorFrame{Type: "error", Code: code, Message: message}
}
