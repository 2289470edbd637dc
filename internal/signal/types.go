package signal

import "time"

// EventKind identifies the type of a captured interaction event.
type EventKind string

const (
	KindKey         EventKind = "key"
	KindPointerMove EventKind = "pointer_move"
	KindClick       EventKind = "click"
	KindScroll      EventKind = "scroll"
	KindVisibility  EventKind = "visibility"
	KindNavigation  EventKind = "navigation"
)

// Event is a single raw interaction event as delivered by a capture source.
// Only the fields relevant to the kind are set.
type Event struct {
	Kind    EventKind `json:"kind"`
	Time    time.Time `json:"time"`
	X       float64   `json:"x,omitempty"`
	Y       float64   `json:"y,omitempty"`
	Offset  float64   `json:"offset,omitempty"`
	Visible bool      `json:"visible,omitempty"`
	URL     string    `json:"url,omitempty"`
}

// PointerSample is a single pointer position observation.
type PointerSample struct {
	X    float64
	Y    float64
	Time time.Time
}

// ScrollSample is a single scroll offset observation.
type ScrollSample struct {
	Time   time.Time
	Offset float64
}
