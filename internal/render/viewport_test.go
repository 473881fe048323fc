package render

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestViewport_StartsInFit(t *testing.T) {
	var v Viewport
	if !v.Fit() {
		t.Fatal("zero Viewport should be in Fit mode")
	}
	if v.Label() != "Fit" {
		t.Errorf("Label = %q, want Fit", v.Label())
	}
	if !approx(v.Scale(), 1) {
		t.Errorf("Scale with unknown width = %v, want 1", v.Scale())
	}
}

func TestViewport_LeavingFit(t *testing.T) {
	var in, out Viewport
	in.ZoomIn()
	out.ZoomOut()
	if lvl, ok := in.Level(); !ok || !approx(lvl, 1.2) {
		t.Errorf("zoom in from Fit = %v, %v; want 1.2", lvl, ok)
	}
	if lvl, ok := out.Level(); !ok || !approx(lvl, 0.8) {
		t.Errorf("zoom out from Fit = %v, %v; want 0.8", lvl, ok)
	}
}

func TestViewport_InThenOutStaysManual(t *testing.T) {
	var v Viewport
	v.ZoomIn()
	v.ZoomOut()
	if v.Fit() {
		t.Fatal("expected manual mode after zoom in and out")
	}
	if lvl, _ := v.Level(); !approx(lvl, 1.1) {
		t.Errorf("level = %v, want 1.1", lvl)
	}
	if v.Label() != "110%" {
		t.Errorf("Label = %q, want 110%%", v.Label())
	}
}

func TestViewport_Clamped(t *testing.T) {
	var v Viewport
	for i := 0; i < 30; i++ {
		v.ZoomIn()
	}
	if lvl, _ := v.Level(); !approx(lvl, MaxZoom) {
		t.Errorf("level = %v, want %v", lvl, MaxZoom)
	}
	for i := 0; i < 30; i++ {
		v.ZoomOut()
	}
	if lvl, _ := v.Level(); !approx(lvl, MinZoom) {
		t.Errorf("level = %v, want %v", lvl, MinZoom)
	}
	if v.Label() != "40%" {
		t.Errorf("Label = %q, want 40%%", v.Label())
	}
}

func TestViewport_ResetAlwaysReturnsToFit(t *testing.T) {
	for steps := -8; steps <= 12; steps++ {
		var v Viewport
		for i := 0; i < steps; i++ {
			v.ZoomIn()
		}
		for i := 0; i > steps; i-- {
			v.ZoomOut()
		}
		v.Reset()
		if !v.Fit() {
			t.Errorf("steps=%d: Reset did not return to Fit", steps)
		}
	}
}

func TestViewport_ContainerWidthOnlyAffectsFit(t *testing.T) {
	var v Viewport
	v.SetContainerWidth(397)
	if !approx(v.Scale(), 0.5) {
		t.Errorf("fit scale = %v, want 0.5", v.Scale())
	}

	v.ZoomIn()
	v.SetContainerWidth(1588)
	if !approx(v.Scale(), 1.2) {
		t.Errorf("manual scale = %v, want 1.2", v.Scale())
	}
	if !approx(v.PageHeight(), PageHeight*1.2) {
		t.Errorf("PageHeight = %v, want %v", v.PageHeight(), PageHeight*1.2)
	}

	v.Reset()
	if !approx(v.Scale(), 2) {
		t.Errorf("fit scale after reset = %v, want 2", v.Scale())
	}
}

func TestViewport_StateRoundTrip(t *testing.T) {
	var v Viewport
	v.SetContainerWidth(600)
	v.ZoomOut()
	v.ZoomOut()

	got := ViewportFromState(v.State())
	if got != v {
		t.Errorf("restored %+v, want %+v", got, v)
	}

	clamped := ViewportFromState(ViewState{Level: 7})
	if lvl, _ := clamped.Level(); !approx(lvl, MaxZoom) {
		t.Errorf("restored level = %v, want clamp to %v", lvl, MaxZoom)
	}
}
