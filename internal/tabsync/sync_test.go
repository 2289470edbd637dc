package tabsync

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/cogwatch/cogwatch/internal/syncstore"
)

type fakeEngine struct {
	mu       sync.Mutex
	state    EngineState
	imported []EngineState
	paused   bool
	resumed  bool
}

func (f *fakeEngine) ExportState() EngineState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeEngine) ImportState(st EngineState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imported = append(f.imported, st)
}

func (f *fakeEngine) PauseMonitoring() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = true
}

func (f *fakeEngine) ResumeMonitoring() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumed = true
}

func (f *fakeEngine) importedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.imported)
}

func writeEnvelope(t *testing.T, store syncstore.Store, key, instance string, ts int64, switches int) {
	t.Helper()
	env := Envelope{
		EngineState: EngineState{TabSwitchCount: switches},
		Instance:    instance,
		Timestamp:   ts,
	}
	blob, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(context.Background(), key, blob); err != nil {
		t.Fatal(err)
	}
}

func TestSyncer_LastWriteWins(t *testing.T) {
	store := syncstore.NewMemoryStore()
	eng := &fakeEngine{}
	s := NewSyncer(store, "cognitive", eng)
	ctx := context.Background()

	// Two sibling writes, older last: the syncer must end up with T2.
	writeEnvelope(t, store, "cognitive", "sibling-b", 2000, 7)
	s.Pull(ctx)
	writeEnvelope(t, store, "cognitive", "sibling-a", 1000, 3)
	s.Pull(ctx)

	if len(eng.imported) != 1 {
		t.Fatalf("imported %d states, want 1", len(eng.imported))
	}
	if eng.imported[0].TabSwitchCount != 7 {
		t.Errorf("adopted payload has %d switches, want the T2 payload (7)", eng.imported[0].TabSwitchCount)
	}
}

func TestSyncer_IgnoresSelfEcho(t *testing.T) {
	store := syncstore.NewMemoryStore()
	eng := &fakeEngine{}
	s := NewSyncer(store, "cognitive", eng)
	ctx := context.Background()

	writeEnvelope(t, store, "cognitive", s.InstanceID(), time.Now().UnixMilli(), 9)
	s.Pull(ctx)

	if len(eng.imported) != 0 {
		t.Errorf("adopted own echo: %v", eng.imported)
	}
}

func TestSyncer_IgnoresStaleReplay(t *testing.T) {
	store := syncstore.NewMemoryStore()
	eng := &fakeEngine{state: EngineState{TabSwitchCount: 1}}
	s := NewSyncer(store, "cognitive", eng)
	ctx := context.Background()

	s.Push(ctx) // establishes a local save time

	writeEnvelope(t, store, "cognitive", "sibling", 1, 42)
	s.Pull(ctx)

	if len(eng.imported) != 0 {
		t.Errorf("adopted a stale envelope: %v", eng.imported)
	}
}

func TestSyncer_PushThenSiblingPulls(t *testing.T) {
	store := syncstore.NewMemoryStore()
	writer := &fakeEngine{state: EngineState{TabSwitchCount: 5, IsMonitoring: true}}
	reader := &fakeEngine{}
	ws := NewSyncer(store, "cognitive", writer)
	rs := NewSyncer(store, "cognitive", reader)
	ctx := context.Background()

	ws.Push(ctx)
	rs.Pull(ctx)

	if len(reader.imported) != 1 {
		t.Fatalf("reader imported %d states, want 1", len(reader.imported))
	}
	if reader.imported[0].TabSwitchCount != 5 || !reader.imported[0].IsMonitoring {
		t.Errorf("reader adopted %+v", reader.imported[0])
	}
}

func TestSyncer_VisibilityPolicy(t *testing.T) {
	store := syncstore.NewMemoryStore()
	eng := &fakeEngine{state: EngineState{TabSwitchCount: 2}}
	s := NewSyncer(store, "cognitive", eng)
	ctx := context.Background()

	s.SetVisible(ctx, false)
	if !eng.paused {
		t.Error("hiding must request engine pause")
	}
	if _, err := store.Load(ctx, "cognitive"); err != nil {
		t.Errorf("hiding must persist state: %v", err)
	}

	s.SetVisible(ctx, true)
	if !eng.resumed {
		t.Error("showing must request engine resume")
	}
}

func TestSyncer_VisibilityTransitionOnlyFiresOnChange(t *testing.T) {
	store := syncstore.NewMemoryStore()
	eng := &fakeEngine{}
	s := NewSyncer(store, "cognitive", eng)
	ctx := context.Background()

	s.SetVisible(ctx, true) // already visible at construction
	if eng.resumed {
		t.Error("no-op visibility repeat must not resume")
	}
}

func TestSyncer_CorruptBlobLeavesStateIntact(t *testing.T) {
	store := syncstore.NewMemoryStore()
	eng := &fakeEngine{}
	s := NewSyncer(store, "cognitive", eng)
	ctx := context.Background()

	if err := store.Save(ctx, "cognitive", []byte("{broken")); err != nil {
		t.Fatal(err)
	}
	s.Pull(ctx)

	if len(eng.imported) != 0 {
		t.Errorf("adopted corrupt blob: %v", eng.imported)
	}
}

func TestSyncer_RunAdoptsSiblingWrites(t *testing.T) {
	store := syncstore.NewMemoryStore()
	eng := &fakeEngine{}
	s := NewSyncer(store, "cognitive", eng)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	// Give Run a moment to register its watcher, then write as a sibling.
	time.Sleep(50 * time.Millisecond)
	writeEnvelope(t, store, "cognitive", "sibling", time.Now().UnixMilli(), 11)

	deadline := time.After(2 * time.Second)
	for {
		if eng.importedCount() > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Run never adopted the sibling write")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
