package turn

import (
	"bytes"
	"sync"
	"testing"
)

func TestAudioAccumulator_AppendAndSnapshot(t *testing.T) {
	a := NewAudioAccumulator(1024)

	a.Append([]byte("hello "))
	a.Append([]byte("world"))

	got := a.Snapshot()
	if string(got) != "hello world" {
		t.Errorf("Snapshot() = %q, want %q", got, "hello world")
	}
	if a.Len() != len("hello world") {
		t.Errorf("Len() = %d, want %d", a.Len(), len("hello world"))
	}

	// Snapshot must not mutate state.
	if string(a.Snapshot()) != "hello world" {
		t.Error("second Snapshot() differs; snapshot mutated state")
	}
}

func TestAudioAccumulator_TrimsWholeChunksAtCeiling(t *testing.T) {
	a := NewAudioAccumulator(10)

	a.Append([]byte("aaaa")) // 4
	a.Append([]byte("bbbb")) // 8
	a.Append([]byte("cccc")) // 12 -> trims "aaaa"

	if a.Len() > 10 {
		t.Errorf("Len() = %d, want <= 10", a.Len())
	}
	if got := a.Snapshot(); string(got) != "bbbbcccc" {
		t.Errorf("Snapshot() = %q, want %q", got, "bbbbcccc")
	}
}

func TestAudioAccumulator_NeverDropsNewestChunk(t *testing.T) {
	a := NewAudioAccumulator(4)

	a.Append([]byte("aa"))
	big := bytes.Repeat([]byte("x"), 32) // alone exceeds the ceiling
	a.Append(big)

	got := a.Snapshot()
	if !bytes.Equal(got, big) {
		t.Errorf("Snapshot() = %q, want the newest chunk retained", got)
	}
}

func TestAudioAccumulator_CeilingHoldsAcrossManyAppends(t *testing.T) {
	a := NewAudioAccumulator(100)
	chunk := bytes.Repeat([]byte("z"), 33)

	for i := 0; i < 50; i++ {
		a.Append(chunk)
		if a.Len() > 100 && a.Len() != len(chunk) {
			t.Fatalf("append %d: Len() = %d exceeds ceiling", i, a.Len())
		}
	}
}

func TestAudioAccumulator_DrainAndClear(t *testing.T) {
	a := NewAudioAccumulator(1024)
	a.Append([]byte("one"))
	a.Append([]byte("two"))

	got := a.DrainAndClear()
	if string(got) != "onetwo" {
		t.Errorf("DrainAndClear() = %q, want %q", got, "onetwo")
	}
	if a.Len() != 0 {
		t.Errorf("Len() after drain = %d, want 0", a.Len())
	}
	if len(a.Snapshot()) != 0 {
		t.Error("Snapshot() after drain not empty")
	}
}

func TestAudioAccumulator_DrainDoesNotLoseConcurrentAppends(t *testing.T) {
	a := NewAudioAccumulator(1 << 20)

	const writers = 8
	const perWriter = 200
	var wg sync.WaitGroup

	var drained [][]byte
	var drainedMu sync.Mutex

	wg.Add(writers + 1)
	for w := 0; w < writers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				a.Append([]byte{1})
			}
		}()
	}
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			out := a.DrainAndClear()
			drainedMu.Lock()
			drained = append(drained, out)
			drainedMu.Unlock()
		}
	}()
	wg.Wait()

	total := a.Len()
	for _, d := range drained {
		total += len(d)
	}
	if total != writers*perWriter {
		t.Errorf("total bytes = %d, want %d (lost or duplicated appends)", total, writers*perWriter)
	}
}

func TestAudioAccumulator_EmptyBufferYieldsEmptyResult(t *testing.T) {
	a := NewAudioAccumulator(0) // default ceiling

	if got := a.Snapshot(); len(got) != 0 {
		t.Errorf("Snapshot() on empty = %v, want empty", got)
	}
	if got := a.DrainAndClear(); len(got) != 0 {
		t.Errorf("DrainAndClear() on empty = %v, want empty", got)
	}
}
