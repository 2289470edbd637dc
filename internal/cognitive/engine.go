// Package cognitive derives focus, mental-load, and stress scores from
// passively captured interaction signals. The engine ticks on wall-clock
// timers while monitoring is active; every tick rescores the snapshot,
// notifies subscribers, and persists state through the configured saver.
package cognitive

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cogwatch/cogwatch/internal/derive"
	"github.com/cogwatch/cogwatch/internal/signal"
	"github.com/cogwatch/cogwatch/internal/tabsync"
)

var scoreTicks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "cogwatch_score_ticks_total",
	Help: "Total number of scoring ticks",
})

const (
	// DefaultScoreInterval is the scoring tick cadence.
	DefaultScoreInterval = 15 * time.Second
	// DefaultFocusInterval is the live focus-duration counter cadence.
	DefaultFocusInterval = time.Second
)

// StateSaver persists engine state; implemented by tabsync.Syncer.
type StateSaver interface {
	SaveState(tabsync.EngineState)
}

// Engine is the cognitive scorer. Construct with NewEngine and wire a saver
// before StartMonitoring; all methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	snap    Snapshot
	keys    *signal.KeystrokeBuffer
	pointer *signal.PointerBuffer

	active  bool
	paused  bool
	visible bool

	sessionStart    time.Time
	lastFocusAnchor time.Time
	totalFocus      time.Duration

	scoreInterval time.Duration
	focusInterval time.Duration

	saver    StateSaver
	wearable SourceStatus

	subs    map[int]func(Snapshot)
	nextSub int

	stop chan struct{}
	done chan struct{}
}

func NewEngine() *Engine {
	return &Engine{
		snap:          newSnapshot(),
		keys:          signal.NewKeystrokeBuffer(),
		pointer:       signal.NewPointerBuffer(),
		scoreInterval: DefaultScoreInterval,
		focusInterval: DefaultFocusInterval,
		wearable:      StatusDisconnected,
		subs:          make(map[int]func(Snapshot)),
	}
}

// SetIntervals overrides the tick cadences; only before StartMonitoring.
func (e *Engine) SetIntervals(score, focus time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if score > 0 {
		e.scoreInterval = score
	}
	if focus > 0 {
		e.focusInterval = focus
	}
}

// SetSaver wires the persistence hook.
func (e *Engine) SetSaver(s StateSaver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.saver = s
}

// StartMonitoring resets session counters and begins ticking. Calling it
// while already active is a no-op.
func (e *Engine) StartMonitoring() {
	e.mu.Lock()
	if e.active {
		e.mu.Unlock()
		return
	}
	now := time.Now()
	e.active = true
	e.paused = false
	e.sessionStart = now
	e.totalFocus = 0
	// A prior session may have left the window visible; focus accumulation
	// starts over from now, not from the old anchor.
	if e.visible {
		e.lastFocusAnchor = now
	}
	e.snap.Browser.TabSwitchCount = 0
	e.snap.Browser.FocusDuration = 0
	e.snap.Browser.TotalActiveTime = 0
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	stop, done := e.stop, e.done
	score, focus := e.scoreInterval, e.focusInterval
	e.mu.Unlock()

	log.Println("Cognitive engine started - monitoring interaction signals...")

	go e.run(stop, done, score, focus)
}

func (e *Engine) run(stop, done chan struct{}, scoreEvery, focusEvery time.Duration) {
	defer close(done)

	scoreTicker := time.NewTicker(scoreEvery)
	defer scoreTicker.Stop()
	focusTicker := time.NewTicker(focusEvery)
	defer focusTicker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-scoreTicker.C:
			e.tick(time.Now())
		case <-focusTicker.C:
			e.focusTick(time.Now())
		}
	}
}

// StopMonitoring halts all timers and persists final state. After it
// returns the engine writes nothing until StartMonitoring is called again.
func (e *Engine) StopMonitoring() {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	e.active = false
	e.foldFocusLocked(time.Now())
	close(e.stop)
	done := e.done
	e.mu.Unlock()

	<-done

	e.mu.Lock()
	st := e.exportStateLocked()
	saver := e.saver
	e.mu.Unlock()
	if saver != nil {
		saver.SaveState(st)
	}
	log.Println("Cognitive engine stopped")
}

// PauseMonitoring suspends ticking without resetting counters.
func (e *Engine) PauseMonitoring() {
	e.mu.Lock()
	if !e.active || e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = true
	e.foldFocusLocked(time.Now())
	st := e.exportStateLocked()
	saver := e.saver
	e.mu.Unlock()
	if saver != nil {
		saver.SaveState(st)
	}
}

// ResumeMonitoring resumes ticking and re-anchors the focus baseline.
func (e *Engine) ResumeMonitoring() {
	e.mu.Lock()
	if !e.active || !e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = false
	e.lastFocusAnchor = time.Now()
	st := e.exportStateLocked()
	saver := e.saver
	e.mu.Unlock()
	if saver != nil {
		saver.SaveState(st)
	}
}

// IsActive reports whether the engine is monitoring (paused counts).
func (e *Engine) IsActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// RecordKeystroke appends a keystroke instant.
func (e *Engine) RecordKeystroke(t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys.Append(t)
	e.snap.Keyboard.KeystrokeCount++
}

// RecordPointerMove appends a pointer sample.
func (e *Engine) RecordPointerMove(x, y float64, t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pointer.Append(signal.PointerSample{X: x, Y: y, Time: t})
	e.snap.Mouse.MovementCount++
}

// RecordClick counts a pointer click.
func (e *Engine) RecordClick(t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap.Mouse.ClickCount++
}

// RecordTabSwitch counts a navigation-driven tab switch.
func (e *Engine) RecordTabSwitch(t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap.Browser.TabSwitchCount++
}

// SetVisible records a visibility transition. Gaining visibility counts as
// a tab switch and re-anchors focus accumulation; losing it folds the
// current focus span into the cumulative total.
func (e *Engine) SetVisible(visible bool, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if visible == e.visible {
		return
	}
	if visible {
		e.visible = true
		e.snap.Browser.Active = true
		e.snap.Browser.TabSwitchCount++
		e.lastFocusAnchor = now
	} else {
		e.foldFocusLocked(now)
		e.visible = false
		e.snap.Browser.Active = false
		e.snap.Browser.FocusDuration = 0
	}
}

// foldFocusLocked accumulates the live focus span into totalFocus.
func (e *Engine) foldFocusLocked(now time.Time) {
	if e.visible && !e.lastFocusAnchor.IsZero() && now.After(e.lastFocusAnchor) {
		e.totalFocus += now.Sub(e.lastFocusAnchor)
		e.lastFocusAnchor = now
	}
}

// focusTick updates only the live focus-duration counter.
func (e *Engine) focusTick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active || e.paused || !e.visible {
		return
	}
	e.snap.Browser.FocusDuration = int64(now.Sub(e.lastFocusAnchor).Seconds())
}

// tick is the scoring pass. Skipped, not queued, while paused.
func (e *Engine) tick(now time.Time) {
	e.mu.Lock()
	if !e.active || e.paused {
		e.mu.Unlock()
		return
	}

	if rhythm, ok := derive.ClassifyRhythm(e.keys.Last(e.keys.Len())); ok {
		e.snap.Keyboard.Rhythm = rhythm
	}
	if wpm, ok := derive.TypingSpeed(e.keys.Last(e.keys.Len())); ok {
		e.snap.Keyboard.TypingSpeed = wpm
	}
	e.snap.Keyboard.AvgInterval = derive.AverageInterval(e.keys.Last(e.keys.Len()))

	if pattern, ok := derive.ClassifyPointer(e.pointer.Last(e.pointer.Len())); ok {
		e.snap.Mouse.Pattern = pattern
	}

	elapsed := now.Sub(e.sessionStart)
	focused := e.totalFocus
	if e.visible && !e.lastFocusAnchor.IsZero() && now.After(e.lastFocusAnchor) {
		focused += now.Sub(e.lastFocusAnchor)
	}
	e.snap.Browser.TotalActiveTime = focused.Milliseconds()

	f := focusScore(e.snap.Browser.TabSwitchCount, focused, elapsed)
	l := loadScore(e.snap.Keyboard.Rhythm, e.snap.Keyboard.TypingSpeed)
	s := stressScore(e.snap.Mouse.Pattern, e.snap.Browser.TabSwitchCount, elapsed)

	pushScore(&e.snap.Cognitive.Focus, f)
	pushScore(&e.snap.Cognitive.Load, l)
	pushScore(&e.snap.Cognitive.Stress, s)
	pushScore(&e.snap.Cognitive.Overall, overallScore(f, l, s))

	snap := e.snap.clone()
	st := e.exportStateLocked()
	saver := e.saver
	subs := e.subscribersLocked()
	e.mu.Unlock()

	scoreTicks.Inc()
	if saver != nil {
		saver.SaveState(st)
	}
	for _, fn := range subs {
		fn(snap)
	}
}

// GetData returns an immutable copy of the current snapshot.
func (e *Engine) GetData() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.clone()
}

// Subscribe registers a listener invoked after every scoring tick and every
// storage-driven sync. The returned function unsubscribes.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

func (e *Engine) subscribersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(e.subs))
	for _, fn := range e.subs {
		out = append(out, fn)
	}
	return out
}

// SetWearableStatus records the device-integration collaborator's status.
func (e *Engine) SetWearableStatus(st SourceStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.wearable = st
}

// DataSourceStatus reports each nominal source. Capture sources are Active
// only while the engine is running and unpaused.
func (e *Engine) DataSourceStatus() map[string]SourceStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	capture := StatusDisconnected
	if e.active && !e.paused {
		capture = StatusActive
	}
	return map[string]SourceStatus{
		"keyboard": capture,
		"mouse":    capture,
		"browser":  capture,
		"wearable": e.wearable,
	}
}

// ExportState implements tabsync.Syncable.
func (e *Engine) ExportState() tabsync.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exportStateLocked()
}

func (e *Engine) exportStateLocked() tabsync.EngineState {
	data, err := json.Marshal(e.snap)
	if err != nil {
		log.Printf("cognitive: snapshot marshal failed: %v", err)
		data = nil
	}
	return tabsync.EngineState{
		Data:             data,
		IsMonitoring:     e.active,
		IsPaused:         e.paused,
		TabSwitchCount:   e.snap.Browser.TabSwitchCount,
		TotalFocusTime:   e.totalFocus.Milliseconds(),
		SessionStartTime: e.sessionStart,
		LastTabFocusTime: e.lastFocusAnchor,
	}
}

// ImportState implements tabsync.Syncable: adopt a newer sibling snapshot.
func (e *Engine) ImportState(st tabsync.EngineState) {
	e.mu.Lock()
	if len(st.Data) > 0 {
		var snap Snapshot
		if err := json.Unmarshal(st.Data, &snap); err != nil {
			log.Printf("cognitive: rejecting corrupt synced snapshot: %v", err)
			e.mu.Unlock()
			return
		}
		e.snap = snap
	}
	e.snap.Browser.TabSwitchCount = st.TabSwitchCount
	e.totalFocus = time.Duration(st.TotalFocusTime) * time.Millisecond
	if !st.SessionStartTime.IsZero() {
		e.sessionStart = st.SessionStartTime
	}
	if !st.LastTabFocusTime.IsZero() {
		e.lastFocusAnchor = st.LastTabFocusTime
	}
	snap := e.snap.clone()
	subs := e.subscribersLocked()
	e.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
