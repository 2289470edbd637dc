package derive

import (
	"math"

	"github.com/cogwatch/cogwatch/internal/signal"
)

// Pattern classifies recent pointer motion.
type Pattern string

const (
	PatternSmooth  Pattern = "smooth"
	PatternErratic Pattern = "erratic"
	PatternMinimal Pattern = "minimal"
)

const (
	pointerWindow     = 10
	minPointerSamples = 5

	minimalAvgDistance  = 10.0   // px
	smoothVarianceMax   = 1000.0 // px² over consecutive distances
)

// ClassifyPointer classifies pointer motion from the most recent
// pointerWindow samples. Returns ok=false with fewer than minPointerSamples;
// the caller keeps its prior classification.
func ClassifyPointer(samples []signal.PointerSample) (Pattern, bool) {
	if len(samples) < minPointerSamples {
		return "", false
	}
	if len(samples) > pointerWindow {
		samples = samples[len(samples)-pointerWindow:]
	}

	distances := make([]float64, 0, len(samples)-1)
	var total float64
	for i := 1; i < len(samples); i++ {
		dx := samples[i].X - samples[i-1].X
		dy := samples[i].Y - samples[i-1].Y
		d := math.Sqrt(dx*dx + dy*dy)
		distances = append(distances, d)
		total += d
	}

	avg := total / float64(len(distances))
	switch {
	case avg < minimalAvgDistance:
		return PatternMinimal, true
	case variance(distances) < smoothVarianceMax:
		return PatternSmooth, true
	default:
		return PatternErratic, true
	}
}

// FocusRatio returns focused time over elapsed time, guarding zero elapsed.
func FocusRatio(focused, elapsed float64) float64 {
	if elapsed <= 0 {
		return 0
	}
	return focused / elapsed
}
