package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a TOML-friendly wrapper over time.Duration ("15m", "30s").
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// TimeRange is a daily wall-clock window in "HH:MM-HH:MM" form.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (tr *TimeRange) UnmarshalText(text []byte) error {
	str := string(text)
	parts := strings.Split(str, "-")
	if len(parts) != 2 {
		return fmt.Errorf("invalid time range format: expected 'HH:MM-HH:MM'")
	}

	layout := "15:04"
	start, err1 := time.Parse(layout, parts[0])
	end, err2 := time.Parse(layout, parts[1])
	if err1 != nil || err2 != nil {
		return fmt.Errorf("invalid time values: %v, %v", err1, err2)
	}

	if !start.Before(end) {
		return fmt.Errorf("start time %s must be before end time %s", parts[0], parts[1])
	}

	tr.Start = start
	tr.End = end
	return nil
}

// WithinRange reports whether now's time of day falls inside the window.
func (tr TimeRange) WithinRange(now time.Time) bool {
	if tr.Start.IsZero() && tr.End.IsZero() {
		return false
	}
	minutes := now.Hour()*60 + now.Minute()
	start := tr.Start.Hour()*60 + tr.Start.Minute()
	end := tr.End.Hour()*60 + tr.End.Minute()
	return minutes >= start && minutes < end
}

// WellnessConfig holds the digital-wellness thresholds and schedule.
type WellnessConfig struct {
	GentleAfter       Duration          `toml:"gentle_after"`
	ModerateAfter     Duration          `toml:"moderate_after"`
	FirmAfter         Duration          `toml:"firm_after"`
	FocusSchedule     []TimeRange       `toml:"focus_schedule"`
	Whitelist         []string          `toml:"whitelist"`
	Platforms         map[string]string `toml:"platforms"` // extra domain → name entries
	InterventionStyle string            `toml:"intervention_style"`
}

type Config struct {
	Listen        string         `toml:"listen"`
	RedisAddr     string         `toml:"redis_addr"`
	StorePrefix   string         `toml:"store_prefix"`
	ScoreInterval Duration       `toml:"score_interval"`
	FocusInterval Duration       `toml:"focus_interval"`
	SyncInterval  Duration       `toml:"sync_interval"`
	Wellness      WellnessConfig `toml:"wellness"`
}

// SetDefault fills unset fields with working defaults.
func (c *Config) SetDefault() {
	if c.Listen == "" {
		c.Listen = ":8420"
	}
	if c.StorePrefix == "" {
		c.StorePrefix = "cogwatch"
	}
	if c.ScoreInterval == 0 {
		c.ScoreInterval = Duration(15 * time.Second)
	}
	if c.FocusInterval == 0 {
		c.FocusInterval = Duration(time.Second)
	}
	if c.SyncInterval == 0 {
		c.SyncInterval = Duration(5 * time.Second)
	}
	if c.Wellness.GentleAfter == 0 {
		c.Wellness.GentleAfter = Duration(15 * time.Minute)
	}
	if c.Wellness.ModerateAfter == 0 {
		c.Wellness.ModerateAfter = Duration(30 * time.Minute)
	}
	if c.Wellness.FirmAfter == 0 {
		c.Wellness.FirmAfter = Duration(60 * time.Minute)
	}
	if c.Wellness.InterventionStyle == "" {
		c.Wellness.InterventionStyle = "gentle"
	}
}

func LoadConfigFromFile(path string) (*Config, error) {
	file, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	decoder := toml.NewDecoder(file)
	var config Config
	if err := decoder.Decode(&config); err != nil {
		return nil, err
	}
	config.SetDefault()
	return &config, nil
}

func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	config.SetDefault()
	return &config, nil
}
