package turn

import "sync"

// AudioAccumulator buffers inbound audio chunks for one session with a
// configurable size ceiling. Chunks are trimmed whole from the front once the
// total exceeds the ceiling; the most recent chunk is always retained even if
// it alone exceeds it.
type AudioAccumulator struct {
	mu       sync.Mutex
	chunks   [][]byte
	total    int
	maxBytes int
}

// NewAudioAccumulator creates an accumulator with the given byte ceiling.
func NewAudioAccumulator(maxBytes int) *AudioAccumulator {
	if maxBytes <= 0 {
		maxBytes = DefaultConfig().MaxBufferedAudioBytes
	}
	return &AudioAccumulator{maxBytes: maxBytes}
}

// Append adds a chunk and trims from the front until the total fits the
// ceiling. The chunk is copied; callers may reuse their buffer.
func (a *AudioAccumulator) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.chunks = append(a.chunks, buf)
	a.total += len(buf)
	for a.total > a.maxBytes && len(a.chunks) > 1 {
		a.total -= len(a.chunks[0])
		a.chunks[0] = nil
		a.chunks = a.chunks[1:]
	}
}

// Snapshot concatenates the current chunks without mutating state.
func (a *AudioAccumulator) Snapshot() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.concatLocked()
}

// DrainAndClear atomically concatenates and empties the buffer. A fresh empty
// buffer is swapped in, so appends racing with a drain land in the new buffer
// rather than being lost.
func (a *AudioAccumulator) DrainAndClear() []byte {
	a.mu.Lock()
	out := a.concatLocked()
	a.chunks = nil
	a.total = 0
	a.mu.Unlock()
	return out
}

// Len returns the total buffered size in bytes.
func (a *AudioAccumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

func (a *AudioAccumulator) concatLocked() []byte {
	out := make([]byte, 0, a.total)
	for _, c := range a.chunks {
		out = append(out, c...)
	}
	return out
}
