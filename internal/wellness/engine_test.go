package wellness

import (
	"testing"
	"time"

	"github.com/cogwatch/cogwatch/internal/config"
)

func testConfig() config.WellnessConfig {
	var wc config.WellnessConfig
	cfg := config.Config{Wellness: wc}
	cfg.SetDefault()
	return cfg.Wellness
}

func newTestEngine() *Engine {
	return NewEngine(testConfig())
}

func TestHandleNavigation_StartsSessionOnPlatform(t *testing.T) {
	e := newTestEngine()
	now := time.Now()

	e.HandleNavigation("https://www.instagram.com/explore", now)

	s := e.GetCurrentActivity()
	if s == nil {
		t.Fatal("expected a live session")
	}
	if s.Platform.Name != "Instagram" {
		t.Errorf("platform = %q, want Instagram", s.Platform.Name)
	}
}

func TestHandleNavigation_IgnoresUnknownAndWhitelisted(t *testing.T) {
	e := newTestEngine()
	now := time.Now()

	e.HandleNavigation("https://example.org/docs", now)
	if e.GetCurrentActivity() != nil {
		t.Error("unknown domain must not start a session")
	}

	e.UpdateSettings(SettingsPatch{Whitelist: []string{"youtube.com"}})
	e.HandleNavigation("https://youtube.com/watch?v=abc", now)
	if e.GetCurrentActivity() != nil {
		t.Error("whitelisted domain must not start a session")
	}
}

func TestHandleNavigation_EndsPriorSession(t *testing.T) {
	e := newTestEngine()
	now := time.Now()

	e.HandleNavigation("https://reddit.com/r/golang", now)
	e.HandleNavigation("https://news.example.com", now.Add(2*time.Minute))

	if e.GetCurrentActivity() != nil {
		t.Fatal("session should have ended")
	}
	daily := e.GetData().Daily
	if daily.SessionCount != 1 {
		t.Errorf("session count = %d, want 1", daily.SessionCount)
	}
	if daily.PlatformTime["Reddit"] != 2*time.Minute {
		t.Errorf("Reddit time = %v, want 2m", daily.PlatformTime["Reddit"])
	}
}

func TestSessionEnd_MindlessFlagging(t *testing.T) {
	e := newTestEngine()
	now := time.Now()

	// 6-minute session with engagement 20: flagged.
	e.HandleNavigation("https://tiktok.com/@someone", now.Add(-6*time.Minute))
	e.mu.Lock()
	e.session.EngagementScore = 20
	e.mu.Unlock()
	e.HandleBlur(now)

	if got := e.GetData().Daily.MindlessSessions; got != 1 {
		t.Fatalf("mindless sessions = %d, want 1", got)
	}

	// 4-minute session with the same engagement: not flagged.
	e.HandleNavigation("https://tiktok.com/@someone", now.Add(time.Minute))
	e.mu.Lock()
	e.session.EngagementScore = 20
	e.mu.Unlock()
	e.HandleBlur(now.Add(5 * time.Minute))

	if got := e.GetData().Daily.MindlessSessions; got != 1 {
		t.Errorf("mindless sessions = %d, want still 1", got)
	}
}

func TestSessionEnd_AggregateAccounting(t *testing.T) {
	e := newTestEngine()
	base := time.Now()

	e.HandleNavigation("https://instagram.com", base)
	e.HandleBlur(base.Add(10 * time.Minute))
	e.HandleNavigation("https://youtube.com", base.Add(11*time.Minute))
	e.HandleBlur(base.Add(15 * time.Minute))

	daily := e.GetData().Daily
	if daily.TotalTime != 14*time.Minute {
		t.Errorf("total = %v, want 14m", daily.TotalTime)
	}
	if daily.LongestSession != 10*time.Minute {
		t.Errorf("longest = %v, want 10m", daily.LongestSession)
	}
	if daily.AverageSession != 7*time.Minute {
		t.Errorf("average = %v, want 7m", daily.AverageSession)
	}
	if daily.SessionCount != 2 {
		t.Errorf("count = %d, want 2", daily.SessionCount)
	}
}

func TestThresholdEscalation(t *testing.T) {
	e := newTestEngine()
	e.mu.Lock()
	e.active = true
	e.mu.Unlock()
	now := time.Now()

	var fired []Intervention
	unsub := e.SubscribeToInterventions(func(iv Intervention) { fired = append(fired, iv) })
	defer unsub()

	// Session past the gentle threshold.
	e.HandleNavigation("https://reddit.com", now.Add(-16*time.Minute))
	e.tick(now)

	if len(fired) != 1 {
		t.Fatalf("fired %d interventions, want 1", len(fired))
	}
	if fired[0].Level != "gentle" || fired[0].Priority != PriorityLow {
		t.Errorf("fired %+v, want gentle/low", fired[0])
	}
	if e.EscalationLevel() != 1 {
		t.Errorf("escalation = %d, want 1", e.EscalationLevel())
	}

	// Same tick again: the gentle threshold only fires once per session.
	e.tick(now.Add(6 * time.Minute))
	if len(fired) != 1 {
		t.Errorf("gentle re-fired: %d interventions", len(fired))
	}
}

func TestThresholdEscalation_CooldownSuppresses(t *testing.T) {
	e := newTestEngine()
	e.mu.Lock()
	e.active = true
	e.lastIntervention = time.Now().Add(-time.Minute)
	e.mu.Unlock()

	var fired []Intervention
	unsub := e.SubscribeToInterventions(func(iv Intervention) { fired = append(fired, iv) })
	defer unsub()

	e.HandleNavigation("https://reddit.com", time.Now().Add(-20*time.Minute))
	e.tick(time.Now())

	if len(fired) != 0 {
		t.Errorf("intervention fired inside cooldown: %v", fired)
	}
}

func TestEscalationCeiling(t *testing.T) {
	e := newTestEngine()
	e.mu.Lock()
	e.active = true
	e.mu.Unlock()

	// Five consecutive firm-length sessions with no mindful break.
	for i := 0; i < 5; i++ {
		now := time.Now()
		e.mu.Lock()
		e.lastIntervention = time.Time{} // past any cooldown
		e.mu.Unlock()
		e.HandleNavigation("https://tiktok.com", now.Add(-65*time.Minute))
		e.tick(now)
		e.HandleBlur(now)
	}

	if got := e.EscalationLevel(); got != 3 {
		t.Errorf("escalation = %d, want ceiling 3", got)
	}

	e.RecordMindfulBreak()
	if got := e.EscalationLevel(); got != 2 {
		t.Errorf("escalation after break = %d, want 2", got)
	}
}

func TestRecordMindfulBreak_Floor(t *testing.T) {
	e := newTestEngine()

	e.RecordMindfulBreak()
	e.RecordMindfulBreak()

	if got := e.EscalationLevel(); got != 0 {
		t.Errorf("escalation = %d, want floor 0", got)
	}
	if got := e.GetData().Daily.MindfulBreaks; got != 2 {
		t.Errorf("breaks = %d, want 2", got)
	}
}

func TestMindlessScrollCheck(t *testing.T) {
	e := newTestEngine()
	e.mu.Lock()
	e.active = true
	e.mu.Unlock()
	now := time.Now()

	var fired []Intervention
	unsub := e.SubscribeToInterventions(func(iv Intervention) { fired = append(fired, iv) })
	defer unsub()

	e.HandleNavigation("https://instagram.com", now.Add(-6*time.Minute))
	e.mu.Lock()
	e.session.EngagementScore = 20
	e.session.ScrollVelocity = 900
	e.lastScroll = now.Add(-3 * time.Second)
	e.mindlessChecked = false
	e.mu.Unlock()

	e.tick(now)

	if len(fired) != 1 {
		t.Fatalf("fired %d interventions, want 1", len(fired))
	}
	if fired[0].Category != CategoryMindlessScrolling {
		t.Errorf("category = %q", fired[0].Category)
	}

	// The check runs once per scroll pause.
	e.tick(now.Add(6 * time.Minute))
	if len(fired) != 1 {
		t.Errorf("mindless check re-fired: %d", len(fired))
	}
}

func TestMindlessScrollCheck_WaitsForPause(t *testing.T) {
	e := newTestEngine()
	e.mu.Lock()
	e.active = true
	e.mu.Unlock()
	now := time.Now()

	var fired []Intervention
	unsub := e.SubscribeToInterventions(func(iv Intervention) { fired = append(fired, iv) })
	defer unsub()

	e.HandleNavigation("https://instagram.com", now.Add(-6*time.Minute))
	e.mu.Lock()
	e.session.EngagementScore = 20
	e.session.ScrollVelocity = 900
	e.lastScroll = now.Add(-time.Second) // still scrolling
	e.mu.Unlock()

	e.tick(now)

	if len(fired) != 0 {
		t.Errorf("fired before scroll quiesced: %v", fired)
	}
}

func TestFocusCheck_FiresDuringFocusWindow(t *testing.T) {
	e := newTestEngine()
	e.mu.Lock()
	e.active = true
	e.mu.Unlock()
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.Local)

	var window config.TimeRange
	if err := window.UnmarshalText([]byte("09:00-17:00")); err != nil {
		t.Fatal(err)
	}
	e.UpdateSettings(SettingsPatch{FocusSchedule: []config.TimeRange{window}})

	var fired []Intervention
	unsub := e.SubscribeToInterventions(func(iv Intervention) { fired = append(fired, iv) })
	defer unsub()

	e.HandleNavigation("https://twitch.tv/somestream", now)
	e.focusCheck(now)

	if len(fired) != 1 {
		t.Fatalf("fired %d interventions, want 1", len(fired))
	}
	if fired[0].Category != CategoryFocusModeViolation || fired[0].Priority != PriorityHigh {
		t.Errorf("fired %+v", fired[0])
	}
}

func TestFocusCheck_NoSessionNoFire(t *testing.T) {
	e := newTestEngine()
	e.mu.Lock()
	e.active = true
	e.mu.Unlock()

	var window config.TimeRange
	if err := window.UnmarshalText([]byte("09:00-17:00")); err != nil {
		t.Fatal(err)
	}
	e.UpdateSettings(SettingsPatch{FocusSchedule: []config.TimeRange{window}})

	var fired []Intervention
	unsub := e.SubscribeToInterventions(func(iv Intervention) { fired = append(fired, iv) })
	defer unsub()

	e.focusCheck(time.Date(2026, 3, 2, 10, 30, 0, 0, time.Local))
	if len(fired) != 0 {
		t.Errorf("fired with no live session: %v", fired)
	}
}

func TestUpdateSettings_InvalidFieldsIgnored(t *testing.T) {
	e := newTestEngine()
	bad := -5 * time.Minute
	empty := ""

	e.UpdateSettings(SettingsPatch{GentleAfter: &bad, InterventionStyle: &empty})

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.settings.GentleAfter != 15*time.Minute {
		t.Errorf("gentle = %v, want unchanged 15m", e.settings.GentleAfter)
	}
	if e.settings.InterventionStyle != "gentle" {
		t.Errorf("style = %q, want unchanged", e.settings.InterventionStyle)
	}
}

func TestDayRollover(t *testing.T) {
	e := newTestEngine()
	e.mu.Lock()
	e.active = true
	e.daily = newDailyAggregate("2026-03-01")
	e.daily.TotalTime = 2 * time.Hour
	e.daily.MindlessSessions = 4
	e.mu.Unlock()

	e.tick(time.Now()) // today's key differs from the stale aggregate

	daily := e.GetData().Daily
	if daily.TotalTime != 0 || daily.MindlessSessions != 0 {
		t.Errorf("aggregate not reset at day boundary: %+v", daily)
	}
	if daily.Date != dayKey(time.Now()) {
		t.Errorf("date = %q", daily.Date)
	}
}

func TestRecordScrollAndClick_UpdateEngagement(t *testing.T) {
	e := newTestEngine()
	base := time.Now()

	e.HandleNavigation("https://reddit.com", base)
	for i := 0; i < 5; i++ {
		e.RecordScroll(float64(i*400), base.Add(time.Duration(i)*250*time.Millisecond))
	}

	s := e.GetCurrentActivity()
	if s == nil {
		t.Fatal("expected live session")
	}
	if s.ScrollCount != 5 {
		t.Errorf("scroll count = %d, want 5", s.ScrollCount)
	}
	if s.ScrollVelocity <= 0 {
		t.Error("scroll velocity not derived")
	}
	if s.EngagementScore >= engagementBase {
		t.Errorf("fast scrolling should depress engagement, got %d", s.EngagementScore)
	}

	e.RecordClick(base.Add(2 * time.Second))
	if got := e.GetCurrentActivity().ClickCount; got != 1 {
		t.Errorf("click count = %d, want 1", got)
	}
}

func TestRecordClick_IdlePenaltyUsesPriorInteraction(t *testing.T) {
	e := newTestEngine()
	now := time.Now()

	e.HandleNavigation("https://instagram.com", now.Add(-10*time.Minute))
	e.mu.Lock()
	e.session.LastInteraction = now.Add(-45 * time.Second)
	e.mu.Unlock()

	// The click that ends a 45s idle gap is scored against that gap.
	e.RecordClick(now)
	if got := e.GetCurrentActivity().EngagementScore; got != 40 {
		t.Errorf("engagement after idle click = %d, want 40", got)
	}

	// The next click a second later sees no gap.
	e.RecordClick(now.Add(time.Second))
	if got := e.GetCurrentActivity().EngagementScore; got != 50 {
		t.Errorf("engagement after immediate click = %d, want 50", got)
	}
}

func TestRecordScroll_NoSessionIsNoop(t *testing.T) {
	e := newTestEngine()
	e.RecordScroll(100, time.Now())
	if e.GetData().Session != nil {
		t.Error("scroll without session must not create one")
	}
}

func TestStopMonitoring_EndsLiveSession(t *testing.T) {
	e := newTestEngine()
	e.StartMonitoring()
	e.HandleNavigation("https://instagram.com", time.Now().Add(-time.Minute))

	e.StopMonitoring()

	if e.IsActive() {
		t.Error("engine still active after stop")
	}
	if e.GetCurrentActivity() != nil {
		t.Error("live session survived stop")
	}
	if got := e.GetData().Daily.SessionCount; got != 1 {
		t.Errorf("session count = %d, want 1", got)
	}
}

func TestStartMonitoring_Idempotent(t *testing.T) {
	e := newTestEngine()
	e.StartMonitoring()
	defer e.StopMonitoring()

	e.StartMonitoring() // must not respawn the tick loop

	if !e.IsActive() {
		t.Error("engine should be active")
	}
}
