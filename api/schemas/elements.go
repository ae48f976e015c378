// api/schemas/elements.go
package schemas

import "time"

// BoundingBox is an element's border-box geometry in CSS pixels, relative to
// the main frame viewport.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Delta reports the largest per-axis change between two boxes. Used by the
// readiness gate's stability check.
func (b BoundingBox) Delta(prev BoundingBox) float64 {
	max := abs(b.X - prev.X)
	if d := abs(b.Y - prev.Y); d > max {
		max = d
	}
	if d := abs(b.Width - prev.Width); d > max {
		max = d
	}
	if d := abs(b.Height - prev.Height); d > max {
		max = d
	}
	return max
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// ElementInfo is a side-effect-free snapshot of a resolved element. It never
// carries an error: a candidate that can no longer be inspected degrades to
// Found=false.
type ElementInfo struct {
	Found      bool              `json:"found"`
	Visible    bool              `json:"visible"`
	Enabled    bool              `json:"enabled"`
	Box        *BoundingBox      `json:"boundingBox,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// ResolveReport is the per-description result emitted by the resolve
// command.
type ResolveReport struct {
	Description string            `json:"description"`
	Normalized  string            `json:"normalized"`
	ElementType string            `json:"elementType,omitempty"`
	Action      string            `json:"action,omitempty"`
	Modifiers   []string          `json:"modifiers,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Strategy    string            `json:"strategy,omitempty"`
	Element     *ElementInfo      `json:"element,omitempty"`
	ElapsedMs   int64             `json:"elapsedMs"`
	Error       string            `json:"error,omitempty"`
	ErrorClass  string            `json:"errorClass,omitempty"`
}

// Elapsed sets ElapsedMs from a duration.
func (r *ResolveReport) Elapsed(d time.Duration) {
	r.ElapsedMs = d.Milliseconds()
}
