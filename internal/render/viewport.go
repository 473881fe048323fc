package render

import (
	"fmt"
	"math"
)

// Page geometry of the preview, in CSS pixels (A4 at 96 dpi).
const (
	PageWidth  = 794
	PageHeight = 1122
)

// Zoom bounds. Levels move in steps of 0.1.
const (
	MinZoom = 0.4
	MaxZoom = 2.0
)

// Levels are held in tenths so repeated steps never drift.
const (
	minTenths = 4
	maxTenths = 20
	// Starting points when leaving Fit: zooming out from Fit lands on 0.8,
	// zooming in lands on 1.2.
	fitOutBase = 9
	fitInBase  = 11
)

// Viewport is the fit-or-manual zoom state of the preview. The zero value is
// in Fit mode with an unknown container width.
type Viewport struct {
	tenths         int // 0 in Fit mode
	containerWidth int
}

// ViewState is the serializable form of a Viewport.
type ViewState struct {
	Fit            bool    `json:"fit"`
	Level          float64 `json:"level,omitempty"`
	ContainerWidth int     `json:"container_width,omitempty"`
}

// ViewportFromState restores a Viewport. Out-of-range levels are clamped.
func ViewportFromState(s ViewState) Viewport {
	v := Viewport{containerWidth: s.ContainerWidth}
	if !s.Fit {
		v.tenths = clampTenths(int(math.Round(s.Level * 10)))
	}
	return v
}

// State returns the serializable form of v.
func (v Viewport) State() ViewState {
	lvl, manual := v.Level()
	return ViewState{Fit: !manual, Level: lvl, ContainerWidth: v.containerWidth}
}

// Fit reports whether v tracks the container width.
func (v Viewport) Fit() bool { return v.tenths == 0 }

// Level returns the manual zoom level and true, or 0 and false in Fit mode.
func (v Viewport) Level() (float64, bool) {
	if v.Fit() {
		return 0, false
	}
	return float64(v.tenths) / 10, true
}

// ZoomIn raises the level by one step, entering manual mode from Fit.
func (v *Viewport) ZoomIn() {
	base := v.tenths
	if base == 0 {
		base = fitInBase
	}
	v.tenths = clampTenths(base + 1)
}

// ZoomOut lowers the level by one step, entering manual mode from Fit.
func (v *Viewport) ZoomOut() {
	base := v.tenths
	if base == 0 {
		base = fitOutBase
	}
	v.tenths = clampTenths(base - 1)
}

// Reset returns to Fit mode.
func (v *Viewport) Reset() { v.tenths = 0 }

// SetContainerWidth records the observed container width in pixels. It only
// affects the scale while in Fit mode.
func (v *Viewport) SetContainerWidth(px int) {
	if px < 0 {
		px = 0
	}
	v.containerWidth = px
}

// Scale returns the factor applied to the page. In Fit mode the page fills
// the container width; with no known width the page is shown at 1.0.
func (v Viewport) Scale() float64 {
	if lvl, ok := v.Level(); ok {
		return lvl
	}
	if v.containerWidth <= 0 {
		return 1
	}
	return float64(v.containerWidth) / PageWidth
}

// PageHeight returns the scaled height of one page.
func (v Viewport) PageHeight() float64 {
	return PageHeight * v.Scale()
}

// Label is the zoom indicator text: "Fit" or a whole percentage.
func (v Viewport) Label() string {
	if v.Fit() {
		return "Fit"
	}
	return fmt.Sprintf("%d%%", v.tenths*10)
}

func clampTenths(t int) int {
	return max(minTenths, min(maxTenths, t))
}
