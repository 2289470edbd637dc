package wellness

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	levelGentle   = 1
	levelModerate = 2
	levelFirm     = 3

	escalationCap = 3

	// interventionCooldown suppresses re-firing between any two nudges.
	interventionCooldown = 5 * time.Minute
)

func levelName(level int) string {
	switch level {
	case levelGentle:
		return "gentle"
	case levelModerate:
		return "moderate"
	case levelFirm:
		return "firm"
	default:
		return ""
	}
}

func mindlessIntervention(s *SessionActivity) Intervention {
	return Intervention{
		ID:       uuid.NewString(),
		Category: CategoryMindlessScrolling,
		Title:    "Scrolling on autopilot?",
		Description: fmt.Sprintf(
			"You've been scrolling %s quickly without much interaction. A short pause might help you reset.",
			s.Platform.Name),
		Options:       []string{"Take a mindful break", "Keep browsing", "Dismiss"},
		Priority:      PriorityMedium,
		Platform:      s.Platform.Name,
		SessionLength: s.TimeSpent,
	}
}

func thresholdIntervention(level int, s *SessionActivity) Intervention {
	iv := Intervention{
		ID:            uuid.NewString(),
		Category:      CategoryTimeThreshold,
		Level:         levelName(level),
		Options:       []string{"Take a mindful break", "5 more minutes", "Dismiss"},
		Platform:      s.Platform.Name,
		SessionLength: s.TimeSpent,
	}
	minutes := int(s.TimeSpent.Minutes())
	switch level {
	case levelFirm:
		iv.Priority = PriorityHigh
		iv.Title = "Time to step away"
		iv.Description = fmt.Sprintf("You've spent %d minutes on %s this session. Your focus will thank you for a real break.", minutes, s.Platform.Name)
	case levelModerate:
		iv.Priority = PriorityMedium
		iv.Title = "Still here?"
		iv.Description = fmt.Sprintf("That's %d minutes on %s. Is this how you meant to spend this time?", minutes, s.Platform.Name)
	default:
		iv.Priority = PriorityLow
		iv.Title = "Gentle check-in"
		iv.Description = fmt.Sprintf("You've been on %s for %d minutes. Just checking you noticed.", s.Platform.Name, minutes)
	}
	return iv
}

func focusModeIntervention(s *SessionActivity) Intervention {
	return Intervention{
		ID:       uuid.NewString(),
		Category: CategoryFocusModeViolation,
		Title:    "Focus mode is on",
		Description: fmt.Sprintf(
			"You scheduled this time for focused work, but %s is open. Close it to stay on track.",
			s.Platform.Name),
		Options:       []string{"Close it", "Snooze focus mode", "Dismiss"},
		Priority:      PriorityHigh,
		Platform:      s.Platform.Name,
		SessionLength: s.TimeSpent,
	}
}
