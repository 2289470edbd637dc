package wellness

import (
	"time"

	"github.com/cogwatch/cogwatch/internal/config"
)

// SessionActivity is one live span of activity on a recognized platform.
type SessionActivity struct {
	Platform        Platform      `json:"platform"`
	StartTime       time.Time     `json:"startTime"`
	TimeSpent       time.Duration `json:"timeSpent"`
	ScrollCount     int           `json:"scrollCount"`
	ClickCount      int           `json:"clickCount"`
	ScrollVelocity  float64       `json:"scrollVelocity"` // px/s
	EngagementScore int           `json:"engagementScore"`
	LastInteraction time.Time     `json:"lastInteraction"`

	// firedLevel is the highest time threshold already fired this session.
	firedLevel int
}

// DailyAggregate accumulates wellness telemetry for one calendar day.
type DailyAggregate struct {
	Date             string                   `json:"date"` // YYYY-MM-DD, local
	TotalTime        time.Duration            `json:"totalTime"`
	PlatformTime     map[string]time.Duration `json:"platformTime"`
	SessionCount     int                      `json:"sessionCount"`
	MindlessSessions int                      `json:"mindlessSessions"`
	MindfulBreaks    int                      `json:"mindfulBreaks"`
	LongestSession   time.Duration            `json:"longestSession"`
	AverageSession   time.Duration            `json:"averageSession"`
	CognitiveImpact  int                      `json:"cognitiveImpact"`
}

func newDailyAggregate(day string) DailyAggregate {
	return DailyAggregate{
		Date:            day,
		PlatformTime:    make(map[string]time.Duration),
		CognitiveImpact: 100,
	}
}

func (d DailyAggregate) clone() DailyAggregate {
	out := d
	out.PlatformTime = make(map[string]time.Duration, len(d.PlatformTime))
	for k, v := range d.PlatformTime {
		out.PlatformTime[k] = v
	}
	return out
}

// Snapshot is what wellness subscribers receive: the daily aggregate plus
// the live session, if any.
type Snapshot struct {
	Daily      DailyAggregate   `json:"daily"`
	Session    *SessionActivity `json:"session,omitempty"`
	Escalation int              `json:"escalationLevel"`
}

// Priority ranks an intervention for the rendering layer.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Intervention categories.
const (
	CategoryMindlessScrolling  = "mindless-scrolling"
	CategoryTimeThreshold      = "time-threshold"
	CategoryFocusModeViolation = "focus-mode-violation"
)

// Intervention is a fired mindfulness nudge.
type Intervention struct {
	ID              string        `json:"id"`
	Category        string        `json:"category"`
	Level           string        `json:"level,omitempty"` // gentle | moderate | firm
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Options         []string      `json:"options"`
	Priority        Priority      `json:"priority"`
	Timestamp       time.Time     `json:"timestamp"`
	Platform        string        `json:"platform,omitempty"`
	SessionLength   time.Duration `json:"sessionLength,omitempty"`
	EscalationLevel int           `json:"escalationLevel"`
}

// Settings is the live wellness configuration.
type Settings struct {
	GentleAfter       time.Duration
	ModerateAfter     time.Duration
	FirmAfter         time.Duration
	FocusSchedule     []config.TimeRange
	Whitelist         []string
	InterventionStyle string
}

// SettingsPatch is a partial settings update; nil fields keep their prior
// value, invalid fields are ignored rather than applied.
type SettingsPatch struct {
	GentleAfter       *time.Duration
	ModerateAfter     *time.Duration
	FirmAfter         *time.Duration
	FocusSchedule     []config.TimeRange
	Whitelist         []string
	InterventionStyle *string
}

func settingsFromConfig(wc config.WellnessConfig) Settings {
	return Settings{
		GentleAfter:       wc.GentleAfter.Duration(),
		ModerateAfter:     wc.ModerateAfter.Duration(),
		FirmAfter:         wc.FirmAfter.Duration(),
		FocusSchedule:     wc.FocusSchedule,
		Whitelist:         wc.Whitelist,
		InterventionStyle: wc.InterventionStyle,
	}
}
