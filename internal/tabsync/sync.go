package tabsync

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cogwatch/cogwatch/internal/syncstore"
)

var syncAdoptions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cogwatch_sync_adoptions_total",
	Help: "Total number of sibling state envelopes adopted",
}, []string{"key"})

// DefaultInterval bounds worst-case staleness between instances even when
// no visibility transition fires.
const DefaultInterval = 5 * time.Second

// Syncer wraps one engine's state with the cross-instance protocol.
type Syncer struct {
	mu       sync.Mutex
	id       string
	key      string
	store    syncstore.Store
	engine   Syncable
	interval time.Duration

	visible bool
	// lastSaved is the write timestamp (ms) of the newest envelope this
	// instance has either written or adopted.
	lastSaved int64
}

func NewSyncer(store syncstore.Store, key string, engine Syncable) *Syncer {
	return &Syncer{
		id:       uuid.NewString(),
		key:      key,
		store:    store,
		engine:   engine,
		interval: DefaultInterval,
		visible:  true,
	}
}

// InstanceID returns this instance's random identifier.
func (s *Syncer) InstanceID() string { return s.id }

// SetInterval overrides the periodic sync cadence; only before Run.
func (s *Syncer) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// Run watches the store for sibling writes and runs the periodic
// push-while-visible / pull-while-hidden timer until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	changes, err := s.store.Watch(ctx, s.key)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			s.Pull(ctx)
		case <-ticker.C:
			s.mu.Lock()
			visible := s.visible
			s.mu.Unlock()
			if visible {
				s.Push(ctx)
			} else {
				s.Pull(ctx)
			}
		}
	}
}

// SaveState persists an engine-provided state. Engines call this from their
// tick and lifecycle transitions.
func (s *Syncer) SaveState(st EngineState) {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()
	s.write(ctx, st, time.Now())
}

// Push persists the engine's current state.
func (s *Syncer) Push(ctx context.Context) {
	s.write(ctx, s.engine.ExportState(), time.Now())
}

// Pull reads the shared blob and adopts it if the admission check passes.
func (s *Syncer) Pull(ctx context.Context) {
	blob, err := s.store.Load(ctx, s.key)
	if err != nil {
		if err != syncstore.ErrNotFound {
			log.Printf("tabsync: load of %s failed: %v", s.key, err)
		}
		return
	}

	var env Envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		log.Printf("tabsync: corrupt envelope under %s: %v", s.key, err)
		return
	}

	if !s.admit(env) {
		return
	}
	syncAdoptions.WithLabelValues(s.key).Inc()
	s.engine.ImportState(env.EngineState)
}

// admit applies the protocol's admission check: never adopt our own echoes,
// and only adopt envelopes strictly newer than the last observed save.
func (s *Syncer) admit(env Envelope) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if env.Instance == s.id {
		return false
	}
	if env.Timestamp <= s.lastSaved {
		return false
	}
	s.lastSaved = env.Timestamp
	return true
}

func (s *Syncer) write(ctx context.Context, st EngineState, now time.Time) {
	env := Envelope{
		EngineState: st,
		Instance:    s.id,
		Timestamp:   nowMillis(now),
	}
	blob, err := json.Marshal(env)
	if err != nil {
		log.Printf("tabsync: marshal of %s failed: %v", s.key, err)
		return
	}
	if err := s.store.Save(ctx, s.key, blob); err != nil {
		// Keep operating on in-memory state; the next push retries.
		log.Printf("tabsync: save of %s failed: %v", s.key, err)
		return
	}

	s.mu.Lock()
	if env.Timestamp > s.lastSaved {
		s.lastSaved = env.Timestamp
	}
	s.mu.Unlock()
}

// SetVisible applies the visibility-transition policy: persist and pause on
// hiding, pull-merge and resume on showing.
func (s *Syncer) SetVisible(ctx context.Context, visible bool) {
	s.mu.Lock()
	was := s.visible
	s.visible = visible
	s.mu.Unlock()
	if was == visible {
		return
	}

	if visible {
		s.Pull(ctx)
		s.engine.ResumeMonitoring()
	} else {
		s.Push(ctx)
		s.engine.PauseMonitoring()
	}
}
