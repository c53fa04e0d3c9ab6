package gemini

import (
	"errors"
	"io"
	"iter"
	"testing"

	"google.golang.org/genai"
)

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(text, genai.RoleModel),
		}},
	}
}

func TestStream_YieldsText(t *testing.T) {
	seq := iter.Seq2[*genai.GenerateContentResponse, error](func(yield func(*genai.GenerateContentResponse, error) bool) {
		if !yield(textResponse("Hello"), nil) {
			return
		}
		yield(textResponse(" world"), nil)
	})

	s := newStream(seq)
	defer s.Close()

	want := []string{"Hello", " world"}
	for i, w := range want {
		got, err := s.Next()
		if err != nil {
			t.Fatalf("Next() %d error: %v", i, err)
		}
		if got != w {
			t.Errorf("Next() %d = %q, want %q", i, got, w)
		}
	}
	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("final Next() error = %v, want io.EOF", err)
	}
}

func TestStream_SkipsEmptyResponses(t *testing.T) {
	seq := iter.Seq2[*genai.GenerateContentResponse, error](func(yield func(*genai.GenerateContentResponse, error) bool) {
		if !yield(&genai.GenerateContentResponse{}, nil) {
			return
		}
		yield(textResponse("ok"), nil)
	})

	s := newStream(seq)
	defer s.Close()

	got, err := s.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if got != "ok" {
		t.Errorf("Next() = %q, want %q", got, "ok")
	}
}

func TestStream_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	seq := iter.Seq2[*genai.GenerateContentResponse, error](func(yield func(*genai.GenerateContentResponse, error) bool) {
		yield(nil, boom)
	})

	s := newStream(seq)
	defer s.Close()

	if _, err := s.Next(); !errors.Is(err, boom) {
		t.Errorf("Next() error = %v, want wrapped %v", err, boom)
	}
}

func TestStream_CloseStopsIteration(t *testing.T) {
	seq := iter.Seq2[*genai.GenerateContentResponse, error](func(yield func(*genai.GenerateContentResponse, error) bool) {
		for {
			if !yield(textResponse("x"), nil) {
				return
			}
		}
	})

	s := newStream(seq)
	if _, err := s.Next(); err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() after Close = %v, want io.EOF", err)
	}
}
