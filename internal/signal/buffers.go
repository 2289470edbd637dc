// Package signal holds the raw interaction sample buffers. Buffers are
// capped rings: insertion appends, eviction removes the oldest entry.
// Callers append in time order; the buffers never reorder.
package signal

import "time"

const (
	KeystrokeCap = 50
	PointerCap   = 20
	ScrollCap    = 10
)

// KeystrokeBuffer keeps the most recent keystroke instants.
type KeystrokeBuffer struct {
	times []time.Time
}

func NewKeystrokeBuffer() *KeystrokeBuffer {
	return &KeystrokeBuffer{times: make([]time.Time, 0, KeystrokeCap)}
}

func (b *KeystrokeBuffer) Append(t time.Time) {
	b.times = append(b.times, t)
	if len(b.times) > KeystrokeCap {
		b.times = b.times[1:]
	}
}

// Last returns up to n most recent instants, oldest first.
func (b *KeystrokeBuffer) Last(n int) []time.Time {
	if n > len(b.times) {
		n = len(b.times)
	}
	out := make([]time.Time, n)
	copy(out, b.times[len(b.times)-n:])
	return out
}

func (b *KeystrokeBuffer) Len() int { return len(b.times) }

func (b *KeystrokeBuffer) Reset() { b.times = b.times[:0] }

// PointerBuffer keeps the most recent pointer samples.
type PointerBuffer struct {
	samples []PointerSample
}

func NewPointerBuffer() *PointerBuffer {
	return &PointerBuffer{samples: make([]PointerSample, 0, PointerCap)}
}

func (b *PointerBuffer) Append(s PointerSample) {
	b.samples = append(b.samples, s)
	if len(b.samples) > PointerCap {
		b.samples = b.samples[1:]
	}
}

// Last returns up to n most recent samples, oldest first.
func (b *PointerBuffer) Last(n int) []PointerSample {
	if n > len(b.samples) {
		n = len(b.samples)
	}
	out := make([]PointerSample, n)
	copy(out, b.samples[len(b.samples)-n:])
	return out
}

func (b *PointerBuffer) Len() int { return len(b.samples) }

func (b *PointerBuffer) Reset() { b.samples = b.samples[:0] }

// ScrollBuffer keeps the most recent scroll samples.
type ScrollBuffer struct {
	samples []ScrollSample
}

func NewScrollBuffer() *ScrollBuffer {
	return &ScrollBuffer{samples: make([]ScrollSample, 0, ScrollCap)}
}

func (b *ScrollBuffer) Append(s ScrollSample) {
	b.samples = append(b.samples, s)
	if len(b.samples) > ScrollCap {
		b.samples = b.samples[1:]
	}
}

func (b *ScrollBuffer) All() []ScrollSample {
	out := make([]ScrollSample, len(b.samples))
	copy(out, b.samples)
	return out
}

func (b *ScrollBuffer) Len() int { return len(b.samples) }

func (b *ScrollBuffer) Reset() { b.samples = b.samples[:0] }
