// Package voice provides sentence segmentation for streaming speech
// synthesis.
package voice

import "strings"

// SentenceBuffer accumulates text and extracts complete sentences. This lets
// synthesis start as soon as a sentence completes instead of waiting for the
// full reply.
type SentenceBuffer struct {
	buffer strings.Builder
}

// NewSentenceBuffer creates an empty sentence buffer.
func NewSentenceBuffer() *SentenceBuffer {
	return &SentenceBuffer{}
}

// Add appends text and returns any sentences completed by it.
func (b *SentenceBuffer) Add(text string) []string {
	b.buffer.WriteString(text)

	content := b.buffer.String()
	var sentences []string

	lastEnd := 0
	for i := 0; i < len(content); i++ {
		if isSentenceEnd(content, i) {
			sentence := strings.TrimSpace(content[lastEnd : i+1])
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			lastEnd = i + 1
		}
	}

	if lastEnd > 0 {
		rest := content[lastEnd:]
		b.buffer.Reset()
		b.buffer.WriteString(rest)
	}

	return sentences
}

// Flush returns any remaining text and clears the buffer.
func (b *SentenceBuffer) Flush() string {
	result := strings.TrimSpace(b.buffer.String())
	b.buffer.Reset()
	return result
}

// SplitSentences splits text into sentence-like units at terminal punctuation
// (".", "!", "?"). A trailing fragment without terminal punctuation is still
// returned as its own unit.
func SplitSentences(text string) []string {
	var b SentenceBuffer
	units := b.Add(text)
	if rest := b.Flush(); rest != "" {
		units = append(units, rest)
	}
	return units
}

// isSentenceEnd reports whether position i terminates a sentence.
func isSentenceEnd(s string, i int) bool {
	c := s[i]
	if c != '.' && c != '!' && c != '?' {
		return false
	}

	if c == '.' && isAbbreviation(s, i) {
		return false
	}

	// A terminator mid-word (e.g. "3.14") does not end a sentence.
	if i+1 < len(s) && s[i+1] != ' ' && s[i+1] != '\n' && s[i+1] != '\r' && s[i+1] != '\t' {
		return false
	}

	return true
}

// isAbbreviation reports whether the period at i likely ends an abbreviation
// rather than a sentence.
func isAbbreviation(s string, i int) bool {
	if i < 1 {
		return false
	}

	commonAbbreviations := []string{
		"Dr.", "Mr.", "Mrs.", "Ms.", "Jr.", "Sr.",
		"Prof.", "Rev.", "Gen.", "Col.", "Lt.", "Sgt.",
		"Inc.", "Ltd.", "Corp.", "Co.", "vs.", "etc.",
		"i.e.", "e.g.", "a.m.", "p.m.", "U.S.", "U.K.",
	}

	start := i
	for start > 0 && s[start-1] != ' ' && s[start-1] != '\n' {
		start--
	}
	word := s[start : i+1]

	for _, abbr := range commonAbbreviations {
		if strings.EqualFold(word, abbr) {
			return true
		}
	}

	// Single uppercase letter followed by a period reads as an initial.
	if s[i-1] >= 'A' && s[i-1] <= 'Z' {
		if i < 2 || s[i-2] == ' ' || s[i-2] == '\n' {
			return true
		}
	}

	return false
}
