// Package tabsync keeps engine state consistent across concurrent daemon
// instances sharing a syncstore. The protocol is leaderless last-write-wins:
// every persisted envelope carries the writer's instance id and a write
// timestamp, and a reader adopts an envelope only when it came from another
// instance and is strictly newer than the state it last observed.
package tabsync

import (
	"encoding/json"
	"time"
)

// EngineState is what an engine exports for persistence. Data holds the
// engine's own snapshot; the remaining fields are the session counters the
// protocol carries alongside it.
type EngineState struct {
	Data             json.RawMessage `json:"data"`
	IsMonitoring     bool            `json:"isMonitoring"`
	IsPaused         bool            `json:"isPaused"`
	TabSwitchCount   int             `json:"tabSwitchCount"`
	TotalFocusTime   int64           `json:"totalFocusTime"` // ms
	SessionStartTime time.Time       `json:"sessionStartTime"`
	LastTabFocusTime time.Time       `json:"lastTabFocusTime"`
}

// Envelope is the persisted blob: engine state tagged with the writing
// instance and a millisecond write timestamp, the protocol's sole ordering
// key.
type Envelope struct {
	EngineState
	Instance  string `json:"instance"`
	Timestamp int64  `json:"timestamp"`
}

// Syncable is the contract an engine offers the syncer.
type Syncable interface {
	ExportState() EngineState
	ImportState(EngineState)
	PauseMonitoring()
	ResumeMonitoring()
}

func nowMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}
