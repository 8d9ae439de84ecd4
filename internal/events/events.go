// Package events defines the typed contract between the domain
// collaborators (map, action bar, search) and the assistant engine.
// Payload shape is determined by the event type; collaborators that emit
// an event must honor the payload struct listed here.
package events

// Type identifies the kind of domain activity being reported.
type Type string

const (
	SelectItem       Type = "select_item"
	DeselectItem     Type = "deselect_item"
	ViewportChanging Type = "viewport_changing"
	ViewportChanged  Type = "viewport_changed"
	ActionPressed    Type = "action_pressed"
	OpenView         Type = "open_view"
	CloseView        Type = "close_view"
)

// Item is a focusable domain object (a map marker, a saved place).
// Zero-value fields mean the attribute is unknown; message synthesis
// substitutes fallback phrasing rather than failing.
type Item struct {
	ID          string
	Type        string
	Title       string
	DistanceKm  float64
	WalkMinutes int
}

// Viewport describes the visible map region after a camera settle.
type Viewport struct {
	Lat    float64
	Lng    float64
	ZoomKm float64
}

type SelectItemPayload struct {
	Item Item
}

type DeselectItemPayload struct {
	Item Item
}

type ViewportChangingPayload struct{}

type ViewportChangedPayload struct {
	Viewport  Viewport
	Markers   []Item
	Searching bool
}

type ActionPressedPayload struct {
	Action string
}

type OpenViewPayload struct {
	ViewType string
}

type CloseViewPayload struct{}
