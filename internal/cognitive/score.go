package cognitive

import (
	"math"
	"time"

	"github.com/cogwatch/cogwatch/internal/derive"
)

const (
	baseScore  = 60
	scoreFloor = 20
	scoreCeil  = 100

	historyMax = 14
	// Trend compares the latest sample against the one three back; moves
	// have to exceed this delta (strictly) to count as up or down.
	trendDelta = 5

	focusWeight  = 0.4
	loadWeight   = 0.3
	stressWeight = 0.3
)

// focusScore applies the tab-switch-rate and focus-ratio rule table.
// The ratio rules only fire once some focused time has been recorded;
// before the first visibility transition there is no ratio to judge.
func focusScore(tabSwitches int, focused, elapsed time.Duration) int {
	score := baseScore

	minutes := elapsed.Minutes()
	if minutes > 0 {
		rate := float64(tabSwitches) / minutes
		switch {
		case rate < 0.5:
			score += 15
		case rate < 1:
			score += 10
		case rate < 2:
			score += 5
		default:
			score -= 10
		}
	}

	if focused > 0 {
		ratio := derive.FocusRatio(float64(focused.Milliseconds()), float64(elapsed.Milliseconds()))
		switch {
		case ratio > 0.8:
			score += 10
		case ratio > 0.6:
			score += 5
		case ratio < 0.3:
			score -= 15
		}
	}

	return clampScore(score)
}

// loadScore applies the typing-rhythm and typing-speed rule table. Speed
// rules fire only once a speed has actually been derived.
func loadScore(rhythm derive.Rhythm, wpm float64) int {
	score := baseScore

	switch rhythm {
	case derive.RhythmSteady:
		score += 10
	case derive.RhythmErratic:
		score -= 5
	case derive.RhythmDeclining:
		score -= 15
	}

	if wpm > 0 {
		switch {
		case wpm > 40:
			score += 5
		case wpm < 20:
			score -= 10
		}
	}

	return clampScore(score)
}

// stressScore applies the pointer-pattern and switch-burst rule table.
func stressScore(pattern derive.Pattern, tabSwitches int, elapsed time.Duration) int {
	score := baseScore

	switch pattern {
	case derive.PatternErratic:
		score -= 15
	case derive.PatternSmooth:
		score += 10
	}

	if float64(tabSwitches) > 2*elapsed.Minutes() {
		score -= 10
	}

	return clampScore(score)
}

// overallScore blends the clamped components; bounded by construction.
func overallScore(focus, load, stress int) int {
	return int(math.Round(float64(focus)*focusWeight + float64(load)*loadWeight + float64(stress)*stressWeight))
}

func clampScore(v int) int {
	if v < scoreFloor {
		return scoreFloor
	}
	if v > scoreCeil {
		return scoreCeil
	}
	return v
}

// pushScore records a new sample: FIFO history capped at historyMax, then
// trend and percentage change recomputed.
func pushScore(s *Score, v int) {
	s.Value = v
	s.History = append(s.History, v)
	if len(s.History) > historyMax {
		s.History = s.History[1:]
	}
	s.Trend = trendOf(s.History)
	s.Change = percentChange(s.History)
}

func trendOf(history []int) Trend {
	n := len(history)
	if n < 3 {
		return TrendStable
	}
	delta := history[n-1] - history[n-3]
	switch {
	case delta > trendDelta:
		return TrendUp
	case delta < -trendDelta:
		return TrendDown
	default:
		return TrendStable
	}
}

func percentChange(history []int) int {
	n := len(history)
	if n < 2 {
		return 0
	}
	prev := history[n-2]
	if prev == 0 {
		return 0
	}
	return int(math.Round(float64(history[n-1]-prev) / float64(prev) * 100))
}
