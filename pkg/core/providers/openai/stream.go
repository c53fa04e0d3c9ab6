package openai

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// eventStream reads server-sent events from a chat completions response and
// yields the text deltas.
type eventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func newEventStream(body io.ReadCloser) *eventStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &eventStream{body: body, scanner: scanner}
}

// chunk is one SSE payload from the completions stream.
type chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Next returns the next token. It returns io.EOF when the stream is finished.
func (s *eventStream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}

		var c chunk
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			continue
		}
		if len(c.Choices) == 0 {
			continue
		}
		if c.Choices[0].FinishReason != nil && c.Choices[0].Delta.Content == "" {
			s.done = true
			return "", io.EOF
		}
		if c.Choices[0].Delta.Content != "" {
			return c.Choices[0].Delta.Content, nil
		}
	}

	s.done = true
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Close releases the underlying response body.
func (s *eventStream) Close() error {
	s.done = true
	return s.body.Close()
}
