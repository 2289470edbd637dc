package cognitive

import (
	"github.com/cogwatch/cogwatch/internal/derive"
)

// Trend classifies the direction of a score's recent history.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// SourceStatus reports whether a nominal data source is delivering signals.
type SourceStatus string

const (
	StatusActive       SourceStatus = "active"
	StatusDisconnected SourceStatus = "disconnected"
)

// Score is one cognitive component score with its bounded history.
type Score struct {
	Value   int   `json:"value"`
	History []int `json:"history"`
	Trend   Trend `json:"trend"`
	// Change is the rounded percentage change versus the previous sample.
	Change int `json:"change"`
}

// BrowserActivity tracks focus-level telemetry for the session.
type BrowserActivity struct {
	TabSwitchCount int `json:"tabSwitchCount"`
	// FocusDuration is the current uninterrupted focus span in seconds.
	FocusDuration int64 `json:"focusDuration"`
	// TotalActiveTime is cumulative focused time in ms.
	TotalActiveTime int64 `json:"totalActiveTime"`
	Active          bool  `json:"active"`
}

// KeyboardActivity tracks derived typing telemetry.
type KeyboardActivity struct {
	TypingSpeed    float64       `json:"typingSpeed"` // words per minute
	KeystrokeCount int           `json:"keystrokeCount"`
	Rhythm         derive.Rhythm `json:"rhythm"`
	// AvgInterval is the mean inter-keystroke interval in ms.
	AvgInterval float64 `json:"avgInterval"`
}

// MouseActivity tracks derived pointer telemetry.
type MouseActivity struct {
	MovementCount int            `json:"movementCount"`
	ClickCount    int            `json:"clickCount"`
	Pattern       derive.Pattern `json:"pattern"`
}

// CognitiveMetrics holds the four component scores.
type CognitiveMetrics struct {
	Focus   Score `json:"focus"`
	Load    Score `json:"load"`
	Stress  Score `json:"stress"`
	Overall Score `json:"overall"`
}

// Snapshot is the externally observable cognitive state. Subscribers and
// GetData receive copies, never the engine's live instance.
type Snapshot struct {
	Browser   BrowserActivity  `json:"browserActivity"`
	Keyboard  KeyboardActivity `json:"keyboardActivity"`
	Mouse     MouseActivity    `json:"mouseActivity"`
	Cognitive CognitiveMetrics `json:"cognitiveMetrics"`
}

func newSnapshot() Snapshot {
	neutral := Score{Value: baseScore, Trend: TrendStable}
	return Snapshot{
		Keyboard:  KeyboardActivity{Rhythm: derive.RhythmSteady},
		Mouse:     MouseActivity{Pattern: derive.PatternSmooth},
		Cognitive: CognitiveMetrics{Focus: neutral, Load: neutral, Stress: neutral, Overall: neutral},
	}
}

// clone deep-copies the snapshot so callers can never mutate engine state.
func (s Snapshot) clone() Snapshot {
	out := s
	out.Cognitive.Focus.History = append([]int(nil), s.Cognitive.Focus.History...)
	out.Cognitive.Load.History = append([]int(nil), s.Cognitive.Load.History...)
	out.Cognitive.Stress.History = append([]int(nil), s.Cognitive.Stress.History...)
	out.Cognitive.Overall.History = append([]int(nil), s.Cognitive.Overall.History...)
	return out
}
