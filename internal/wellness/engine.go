// Package wellness scores social-platform sessions for mindless usage and
// escalates mindfulness interventions. The engine mirrors the cognitive
// scorer's lifecycle contract (start/stop/pause/resume, subscriber fan-out,
// state persistence through a saver) over its own telemetry.
package wellness

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/cogwatch/cogwatch/internal/config"
	"github.com/cogwatch/cogwatch/internal/signal"
	"github.com/cogwatch/cogwatch/internal/tabsync"
)

const (
	// DefaultSessionInterval drives live session duration accounting.
	DefaultSessionInterval = time.Second
	// DefaultFocusCheckInterval drives the focus-mode schedule check.
	DefaultFocusCheckInterval = 30 * time.Second

	// mindlessCheckDelay is how long after scrolling quiesces the
	// mindless-scroll check runs.
	mindlessCheckDelay = 2 * time.Second

	mindlessEngagementMax = 30
	mindlessVelocityMin   = 800.0
	mindlessMinSession    = 5 * time.Minute
)

// StateSaver persists engine state; implemented by tabsync.Syncer.
type StateSaver interface {
	SaveState(tabsync.EngineState)
}

// persistedState is what the engine puts in the sync envelope's data field.
type persistedState struct {
	Daily      DailyAggregate `json:"daily"`
	Escalation int            `json:"escalationLevel"`
}

// Engine is the digital wellness scorer.
type Engine struct {
	mu sync.Mutex

	registry []Platform
	settings Settings

	session *SessionActivity
	scroll  *signal.ScrollBuffer
	// lastScroll anchors the delayed mindless-scroll check; mindlessChecked
	// prevents it re-firing until new scroll activity arrives.
	lastScroll      time.Time
	mindlessChecked bool

	daily            DailyAggregate
	escalation       int
	lastIntervention time.Time

	active bool
	paused bool

	sessionInterval time.Duration
	focusInterval   time.Duration

	saver StateSaver

	subs    map[int]func(Snapshot)
	ivSubs  map[int]func(Intervention)
	nextSub int

	stop chan struct{}
	done chan struct{}
}

func NewEngine(wc config.WellnessConfig) *Engine {
	registry := defaultRegistry()
	for domain, name := range wc.Platforms {
		registry = append(registry, Platform{Name: name, Domain: domain})
	}
	return &Engine{
		registry:        registry,
		settings:        settingsFromConfig(wc),
		scroll:          signal.NewScrollBuffer(),
		daily:           newDailyAggregate(dayKey(time.Now())),
		sessionInterval: DefaultSessionInterval,
		focusInterval:   DefaultFocusCheckInterval,
		subs:            make(map[int]func(Snapshot)),
		ivSubs:          make(map[int]func(Intervention)),
	}
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// SetIntervals overrides tick cadences; only before StartMonitoring.
func (e *Engine) SetIntervals(session, focus time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if session > 0 {
		e.sessionInterval = session
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

// StartMonitoring begins ticking; no-op while already active.
func (e *Engine) StartMonitoring() {
	e.mu.Lock()
	if e.active {
		e.mu.Unlock()
		return
	}
	e.active = true
	e.paused = false
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	stop, done := e.stop, e.done
	session, focus := e.sessionInterval, e.focusInterval
	e.mu.Unlock()

	log.Println("Wellness engine started - monitoring platform sessions...")

	go e.run(stop, done, session, focus)
}

func (e *Engine) run(stop, done chan struct{}, sessionEvery, focusEvery time.Duration) {
	defer close(done)

	sessionTicker := time.NewTicker(sessionEvery)
	defer sessionTicker.Stop()
	focusTicker := time.NewTicker(focusEvery)
	defer focusTicker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-sessionTicker.C:
			e.tick(time.Now())
		case <-focusTicker.C:
			e.focusCheck(time.Now())
		}
	}
}

// StopMonitoring ends any live session, halts timers, and persists.
func (e *Engine) StopMonitoring() {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	e.active = false
	close(e.stop)
	done := e.done
	e.endSessionLocked(time.Now())
	st := e.exportStateLocked()
	saver := e.saver
	subs := e.snapshotSubsLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	<-done
	if saver != nil {
		saver.SaveState(st)
	}
	for _, fn := range subs {
		fn(snap)
	}
	log.Println("Wellness engine stopped")
}

// PauseMonitoring suspends ticking; counters and the live session survive.
func (e *Engine) PauseMonitoring() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active || e.paused {
		return
	}
	e.paused = true
}

// ResumeMonitoring resumes ticking.
func (e *Engine) ResumeMonitoring() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active || !e.paused {
		return
	}
	e.paused = false
}

// IsActive reports whether the engine is monitoring.
func (e *Engine) IsActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// HandleNavigation processes a URL change: end the current session, then
// start a new one when the destination is a recognized, non-whitelisted
// platform.
func (e *Engine) HandleNavigation(rawURL string, now time.Time) {
	e.mu.Lock()
	e.endSessionLocked(now)

	host := hostOf(rawURL)
	if !isWhitelisted(host, e.settings.Whitelist) {
		if platform, ok := matchPlatform(host, e.registry); ok {
			e.session = &SessionActivity{
				Platform:        platform,
				StartTime:       now,
				EngagementScore: engagementBase,
			}
			log.Printf("Wellness: session started on %s", platform.Name)
		}
	}

	snap := e.snapshotLocked()
	subs := e.snapshotSubsLocked()
	e.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// HandleBlur ends the live session when the window loses focus.
func (e *Engine) HandleBlur(now time.Time) {
	e.mu.Lock()
	e.endSessionLocked(now)
	st := e.exportStateLocked()
	saver := e.saver
	snap := e.snapshotLocked()
	subs := e.snapshotSubsLocked()
	e.mu.Unlock()

	if saver != nil {
		saver.SaveState(st)
	}
	for _, fn := range subs {
		fn(snap)
	}
}

// RecordScroll feeds a scroll sample into the live session.
func (e *Engine) RecordScroll(offset float64, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return
	}
	e.scroll.Append(signal.ScrollSample{Time: now, Offset: offset})
	e.session.ScrollCount++
	e.lastScroll = now
	e.mindlessChecked = false
	e.session.ScrollVelocity = scrollVelocity(e.scroll.All())
	// Score against the previous interaction instant so the idle check can
	// see the gap this event just ended.
	e.session.EngagementScore = engagementScore(e.session, e.scroll.All(), now)
	e.session.LastInteraction = now
}

// RecordClick feeds a click into the live session.
func (e *Engine) RecordClick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return
	}
	e.session.ClickCount++
	e.session.EngagementScore = engagementScore(e.session, e.scroll.All(), now)
	e.session.LastInteraction = now
}

// RecordMindfulBreak acknowledges a nudge: break counter up, escalation
// level down one, floored at zero.
func (e *Engine) RecordMindfulBreak() {
	e.mu.Lock()
	e.daily.MindfulBreaks++
	if e.escalation > 0 {
		e.escalation--
	}
	snap := e.snapshotLocked()
	subs := e.snapshotSubsLocked()
	e.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// UpdateSettings merges a partial settings update without restarting
// timers. Invalid fields are ignored, preserving prior valid configuration.
func (e *Engine) UpdateSettings(p SettingsPatch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p.GentleAfter != nil && *p.GentleAfter > 0 {
		e.settings.GentleAfter = *p.GentleAfter
	}
	if p.ModerateAfter != nil && *p.ModerateAfter > 0 {
		e.settings.ModerateAfter = *p.ModerateAfter
	}
	if p.FirmAfter != nil && *p.FirmAfter > 0 {
		e.settings.FirmAfter = *p.FirmAfter
	}
	if p.FocusSchedule != nil {
		valid := make([]config.TimeRange, 0, len(p.FocusSchedule))
		for _, tr := range p.FocusSchedule {
			if tr.Start.IsZero() && tr.End.IsZero() {
				continue
			}
			valid = append(valid, tr)
		}
		e.settings.FocusSchedule = valid
	}
	if p.Whitelist != nil {
		e.settings.Whitelist = p.Whitelist
	}
	if p.InterventionStyle != nil && *p.InterventionStyle != "" {
		e.settings.InterventionStyle = *p.InterventionStyle
	}
}

// tick advances the live session: duration accounting, day rollover, the
// delayed mindless-scroll check, and time-threshold escalation.
func (e *Engine) tick(now time.Time) {
	e.mu.Lock()
	if !e.active || e.paused {
		e.mu.Unlock()
		return
	}

	e.rolloverLocked(now)

	var fired []Intervention
	if e.session != nil {
		e.session.TimeSpent = now.Sub(e.session.StartTime)

		if iv, ok := e.mindlessCheckLocked(now); ok {
			fired = append(fired, iv)
		}
		if iv, ok := e.thresholdCheckLocked(now); ok {
			fired = append(fired, iv)
		}
	}

	snap := e.snapshotLocked()
	subs := e.snapshotSubsLocked()
	ivSubs := e.interventionSubsLocked()
	e.mu.Unlock()

	for _, iv := range fired {
		for _, fn := range ivSubs {
			fn(iv)
		}
	}
	for _, fn := range subs {
		fn(snap)
	}
}

// rolloverLocked resets the daily aggregate at the local midnight boundary.
func (e *Engine) rolloverLocked(now time.Time) {
	if key := dayKey(now); e.daily.Date != key {
		e.daily = newDailyAggregate(key)
	}
}

func (e *Engine) cooldownPassedLocked(now time.Time) bool {
	return e.lastIntervention.IsZero() || now.Sub(e.lastIntervention) >= interventionCooldown
}

// mindlessCheckLocked runs once after scrolling has quiesced for
// mindlessCheckDelay.
func (e *Engine) mindlessCheckLocked(now time.Time) (Intervention, bool) {
	if e.mindlessChecked || e.lastScroll.IsZero() || now.Sub(e.lastScroll) < mindlessCheckDelay {
		return Intervention{}, false
	}
	e.mindlessChecked = true

	s := e.session
	if s.EngagementScore >= mindlessEngagementMax ||
		s.ScrollVelocity <= mindlessVelocityMin ||
		s.TimeSpent <= mindlessMinSession {
		return Intervention{}, false
	}
	if !e.cooldownPassedLocked(now) {
		return Intervention{}, false
	}

	iv := mindlessIntervention(s)
	iv.Timestamp = now
	iv.EscalationLevel = e.escalation
	e.lastIntervention = now
	return iv, true
}

// thresholdCheckLocked fires the highest newly crossed time threshold and
// advances the escalation level, capped per level.
func (e *Engine) thresholdCheckLocked(now time.Time) (Intervention, bool) {
	s := e.session

	level := 0
	switch {
	case s.TimeSpent >= e.settings.FirmAfter:
		level = levelFirm
	case s.TimeSpent >= e.settings.ModerateAfter:
		level = levelModerate
	case s.TimeSpent >= e.settings.GentleAfter:
		level = levelGentle
	}
	if level == 0 || level <= s.firedLevel || !e.cooldownPassedLocked(now) {
		return Intervention{}, false
	}

	s.firedLevel = level
	if next := e.escalation + 1; next < level {
		e.escalation = next
	} else {
		e.escalation = level
	}
	if e.escalation > escalationCap {
		e.escalation = escalationCap
	}

	iv := thresholdIntervention(level, s)
	iv.Timestamp = now
	iv.EscalationLevel = e.escalation
	e.lastIntervention = now
	return iv, true
}

// focusCheck fires a high-priority violation when a session is live inside
// a configured focus window.
func (e *Engine) focusCheck(now time.Time) {
	e.mu.Lock()
	if !e.active || e.paused || e.session == nil || !e.inFocusWindowLocked(now) || !e.cooldownPassedLocked(now) {
		e.mu.Unlock()
		return
	}

	iv := focusModeIntervention(e.session)
	iv.Timestamp = now
	iv.EscalationLevel = e.escalation
	e.lastIntervention = now
	ivSubs := e.interventionSubsLocked()
	e.mu.Unlock()

	for _, fn := range ivSubs {
		fn(iv)
	}
}

func (e *Engine) inFocusWindowLocked(now time.Time) bool {
	for _, tr := range e.settings.FocusSchedule {
		if tr.WithinRange(now) {
			return true
		}
	}
	return false
}

// endSessionLocked folds the live session into the daily aggregate.
func (e *Engine) endSessionLocked(now time.Time) {
	s := e.session
	if s == nil {
		return
	}
	if now.After(s.StartTime) {
		s.TimeSpent = now.Sub(s.StartTime)
	}

	e.rolloverLocked(now)

	e.daily.TotalTime += s.TimeSpent
	e.daily.PlatformTime[s.Platform.Name] += s.TimeSpent
	e.daily.SessionCount++
	if s.TimeSpent > e.daily.LongestSession {
		e.daily.LongestSession = s.TimeSpent
	}
	if s.EngagementScore < mindlessEngagementMax && s.TimeSpent > mindlessMinSession {
		e.daily.MindlessSessions++
	}
	if e.daily.SessionCount > 0 {
		e.daily.AverageSession = e.daily.TotalTime / time.Duration(e.daily.SessionCount)
	}
	e.daily.CognitiveImpact = impactScore(e.daily)

	log.Printf("Wellness: session on %s ended after %s", s.Platform.Name, s.TimeSpent.Round(time.Second))

	e.session = nil
	e.scroll.Reset()
	e.lastScroll = time.Time{}
	e.mindlessChecked = false
}

// GetCurrentActivity returns a copy of the live session, or nil.
func (e *Engine) GetCurrentActivity() *SessionActivity {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	cp := *e.session
	return &cp
}

// GetData returns a copy of the current wellness snapshot.
func (e *Engine) GetData() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// EscalationLevel returns the current escalation level.
func (e *Engine) EscalationLevel() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.escalation
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{Daily: e.daily.clone(), Escalation: e.escalation}
	if e.session != nil {
		cp := *e.session
		snap.Session = &cp
	}
	return snap
}

// Subscribe registers a snapshot listener; the returned function
// unsubscribes.
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

// SubscribeToInterventions registers an intervention listener.
func (e *Engine) SubscribeToInterventions(fn func(Intervention)) func() {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.ivSubs[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.ivSubs, id)
		e.mu.Unlock()
	}
}

func (e *Engine) snapshotSubsLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(e.subs))
	for _, fn := range e.subs {
		out = append(out, fn)
	}
	return out
}

func (e *Engine) interventionSubsLocked() []func(Intervention) {
	out := make([]func(Intervention), 0, len(e.ivSubs))
	for _, fn := range e.ivSubs {
		out = append(out, fn)
	}
	return out
}

// ExportState implements tabsync.Syncable.
func (e *Engine) ExportState() tabsync.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exportStateLocked()
}

func (e *Engine) exportStateLocked() tabsync.EngineState {
	data, err := json.Marshal(persistedState{Daily: e.daily, Escalation: e.escalation})
	if err != nil {
		log.Printf("wellness: state marshal failed: %v", err)
		data = nil
	}
	return tabsync.EngineState{
		Data:         data,
		IsMonitoring: e.active,
		IsPaused:     e.paused,
	}
}

// ImportState implements tabsync.Syncable: adopt a newer sibling aggregate.
func (e *Engine) ImportState(st tabsync.EngineState) {
	e.mu.Lock()
	if len(st.Data) > 0 {
		var ps persistedState
		if err := json.Unmarshal(st.Data, &ps); err != nil {
			log.Printf("wellness: rejecting corrupt synced state: %v", err)
			e.mu.Unlock()
			return
		}
		if ps.Daily.PlatformTime == nil {
			ps.Daily.PlatformTime = make(map[string]time.Duration)
		}
		e.daily = ps.Daily
		e.escalation = ps.Escalation
	}
	snap := e.snapshotLocked()
	subs := e.snapshotSubsLocked()
	e.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
