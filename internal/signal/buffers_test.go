package signal

import (
	"testing"
	"time"
)

func TestKeystrokeBuffer_EvictsOldestFirst(t *testing.T) {
	b := NewKeystrokeBuffer()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < KeystrokeCap+5; i++ {
		b.Append(base.Add(time.Duration(i) * time.Second))
	}

	if b.Len() != KeystrokeCap {
		t.Fatalf("expected len %d, got %d", KeystrokeCap, b.Len())
	}

	last := b.Last(b.Len())
	// Oldest surviving entry should be the 6th appended, not the 1st.
	if !last[0].Equal(base.Add(5 * time.Second)) {
		t.Errorf("oldest entry = %v, want %v", last[0], base.Add(5*time.Second))
	}
	if !last[len(last)-1].Equal(base.Add(time.Duration(KeystrokeCap+4) * time.Second)) {
		t.Errorf("newest entry = %v", last[len(last)-1])
	}
}

func TestKeystrokeBuffer_LastClampsToLen(t *testing.T) {
	b := NewKeystrokeBuffer()
	b.Append(time.Now())
	b.Append(time.Now())

	if got := len(b.Last(10)); got != 2 {
		t.Errorf("Last(10) returned %d entries, want 2", got)
	}
}

func TestPointerBuffer_Cap(t *testing.T) {
	b := NewPointerBuffer()
	for i := 0; i < PointerCap*2; i++ {
		b.Append(PointerSample{X: float64(i), Y: 0, Time: time.Now()})
	}
	if b.Len() != PointerCap {
		t.Fatalf("expected len %d, got %d", PointerCap, b.Len())
	}
	last := b.Last(b.Len())
	if last[0].X != float64(PointerCap) {
		t.Errorf("oldest sample X = %v, want %v", last[0].X, PointerCap)
	}
}

func TestScrollBuffer_Cap(t *testing.T) {
	b := NewScrollBuffer()
	for i := 0; i < ScrollCap+3; i++ {
		b.Append(ScrollSample{Offset: float64(i * 100), Time: time.Now()})
	}
	if b.Len() != ScrollCap {
		t.Fatalf("expected len %d, got %d", ScrollCap, b.Len())
	}
	all := b.All()
	if all[0].Offset != 300 {
		t.Errorf("oldest offset = %v, want 300", all[0].Offset)
	}
}
