// Package derive turns raw signal buffers into classified features. All
// functions are pure: they take the samples and compute a result, so the
// engines can call them per tick and tests can feed synthetic windows.
package derive

import "time"

// Rhythm classifies the regularity of recent typing.
type Rhythm string

const (
	RhythmSteady    Rhythm = "steady"
	RhythmErratic   Rhythm = "erratic"
	RhythmDeclining Rhythm = "declining"
)

const (
	rhythmWindow  = 10
	minKeystrokes = 5

	// Population variance of inter-keystroke intervals, in ms².
	steadyVarianceMax  = 10000.0
	erraticVarianceMax = 50000.0

	charsPerWord = 5.0
)

// ClassifyRhythm classifies typing rhythm from keystroke instants using the
// most recent rhythmWindow entries. Returns ok=false when there are too few
// keystrokes to say anything; the caller keeps its prior classification.
func ClassifyRhythm(times []time.Time) (Rhythm, bool) {
	if len(times) < minKeystrokes {
		return "", false
	}
	intervals := intervalsMs(window(times, rhythmWindow))
	v := variance(intervals)
	switch {
	case v < steadyVarianceMax:
		return RhythmSteady, true
	case v < erraticVarianceMax:
		return RhythmErratic, true
	default:
		return RhythmDeclining, true
	}
}

// TypingSpeed estimates words per minute over the most recent rhythmWindow
// keystrokes, at charsPerWord characters per word.
func TypingSpeed(times []time.Time) (float64, bool) {
	if len(times) < minKeystrokes {
		return 0, false
	}
	w := window(times, rhythmWindow)
	elapsed := w[len(w)-1].Sub(w[0]).Minutes()
	if elapsed <= 0 {
		return 0, false
	}
	return (float64(len(w)) / charsPerWord) / elapsed, true
}

// AverageInterval returns the mean inter-keystroke interval in ms over the
// most recent rhythmWindow keystrokes, or 0 with fewer than two entries.
func AverageInterval(times []time.Time) float64 {
	w := window(times, rhythmWindow)
	intervals := intervalsMs(w)
	if len(intervals) == 0 {
		return 0
	}
	var sum float64
	for _, iv := range intervals {
		sum += iv
	}
	return sum / float64(len(intervals))
}

func window(times []time.Time, n int) []time.Time {
	if len(times) > n {
		return times[len(times)-n:]
	}
	return times
}

func intervalsMs(times []time.Time) []float64 {
	if len(times) < 2 {
		return nil
	}
	out := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		out = append(out, float64(times[i].Sub(times[i-1]).Milliseconds()))
	}
	return out
}

// variance computes population variance.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return sq / float64(len(values))
}
