package wellness

import (
	"math"
	"time"

	"github.com/cogwatch/cogwatch/internal/signal"
)

const (
	engagementBase = 50

	velocityHighPxPerSec = 1000.0
	velocityMedPxPerSec  = 500.0

	scrollRateHighPerSec = 2.0
	scrollRateMedPerSec  = 1.0

	clickRateHighPerSec = 0.1
	clickRateMedPerSec  = 0.05

	idleAfter = 30 * time.Second
)

// scrollVelocity is the mean absolute scroll speed in px/s over the buffer.
func scrollVelocity(samples []signal.ScrollSample) float64 {
	if len(samples) < 2 {
		return 0
	}
	elapsed := samples[len(samples)-1].Time.Sub(samples[0].Time).Seconds()
	if elapsed <= 0 {
		return 0
	}
	var dist float64
	for i := 1; i < len(samples); i++ {
		dist += math.Abs(samples[i].Offset - samples[i-1].Offset)
	}
	return dist / elapsed
}

// scrollRate is scroll events per second over the buffer window.
func scrollRate(samples []signal.ScrollSample) float64 {
	if len(samples) < 2 {
		return 0
	}
	elapsed := samples[len(samples)-1].Time.Sub(samples[0].Time).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(len(samples)) / elapsed
}

// engagementScore estimates how intentional the session looks right now.
// Fast reflexive scrolling pushes it down, deliberate clicking pulls it up.
func engagementScore(s *SessionActivity, scrolls []signal.ScrollSample, now time.Time) int {
	score := engagementBase

	velocity := scrollVelocity(scrolls)
	switch {
	case velocity > velocityHighPxPerSec:
		score -= 20
	case velocity > velocityMedPxPerSec:
		score -= 10
	}

	switch rate := scrollRate(scrolls); {
	case rate > scrollRateHighPerSec:
		score -= 15
	case rate > scrollRateMedPerSec:
		score -= 5
	}

	if elapsed := now.Sub(s.StartTime).Seconds(); elapsed > 0 {
		switch clickRate := float64(s.ClickCount) / elapsed; {
		case clickRate > clickRateHighPerSec:
			score += 15
		case clickRate > clickRateMedPerSec:
			score += 10
		}
	}

	if !s.LastInteraction.IsZero() && now.Sub(s.LastInteraction) > idleAfter {
		score -= 10
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// impactScore estimates today's cognitive cost of social-media usage.
func impactScore(d DailyAggregate) int {
	score := 100

	switch minutes := d.TotalTime.Minutes(); {
	case minutes > 120:
		score -= 30
	case minutes > 60:
		score -= 20
	case minutes > 30:
		score -= 10
	}

	platforms := len(d.PlatformTime)
	if platforms < 1 {
		platforms = 1
	}
	score -= int(20 * float64(d.MindlessSessions) / float64(platforms))

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
