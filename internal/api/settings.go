package api

import (
	"log"
	"time"

	"github.com/cogwatch/cogwatch/internal/config"
	"github.com/cogwatch/cogwatch/internal/wellness"
)

// settingsRequest is the wire form of a partial wellness settings update.
// Thresholds arrive in minutes, focus windows as "HH:MM-HH:MM".
type settingsRequest struct {
	GentleAfterMinutes   *int     `json:"gentleAfterMinutes,omitempty"`
	ModerateAfterMinutes *int     `json:"moderateAfterMinutes,omitempty"`
	FirmAfterMinutes     *int     `json:"firmAfterMinutes,omitempty"`
	FocusSchedule        []string `json:"focusSchedule,omitempty"`
	Whitelist            []string `json:"whitelist,omitempty"`
	InterventionStyle    *string  `json:"interventionStyle,omitempty"`
}

func (req settingsRequest) patch() wellness.SettingsPatch {
	var p wellness.SettingsPatch
	if req.GentleAfterMinutes != nil {
		d := time.Duration(*req.GentleAfterMinutes) * time.Minute
		p.GentleAfter = &d
	}
	if req.ModerateAfterMinutes != nil {
		d := time.Duration(*req.ModerateAfterMinutes) * time.Minute
		p.ModerateAfter = &d
	}
	if req.FirmAfterMinutes != nil {
		d := time.Duration(*req.FirmAfterMinutes) * time.Minute
		p.FirmAfter = &d
	}
	if req.FocusSchedule != nil {
		p.FocusSchedule = make([]config.TimeRange, 0, len(req.FocusSchedule))
		for _, raw := range req.FocusSchedule {
			var tr config.TimeRange
			if err := tr.UnmarshalText([]byte(raw)); err != nil {
				log.Printf("api: ignoring invalid focus window %q: %v", raw, err)
				continue
			}
			p.FocusSchedule = append(p.FocusSchedule, tr)
		}
	}
	p.Whitelist = req.Whitelist
	p.InterventionStyle = req.InterventionStyle
	return p
}
