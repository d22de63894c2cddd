package pipeline

import (
	"math"
	"testing"
	"time"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEaseOutQuart(t *testing.T) {
	tests := []struct {
		p, want float64
	}{
		{0, 0},
		{0.5, 0.9375},
		{1, 1},
	}
	for _, tt := range tests {
		if got := EaseOutQuart(tt.p); !approx(got, tt.want) {
			t.Errorf("EaseOutQuart(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestTimelineDefaults(t *testing.T) {
	o := Options{Day: 4}
	o.SetExportDefaults()
	tl := NewTimeline(o, 1000, 2000)

	if got := tl.Frames(); got != 180 {
		t.Errorf("Frames() = %d, want 180", got)
	}
	if got := tl.Elapsed(30); got != time.Second {
		t.Errorf("Elapsed(30) = %s, want 1s", got)
	}

	values := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 1000},
		{500 * time.Millisecond, 1937.5},
		{time.Second, 2000},
		{5 * time.Second, 2000},
		{-time.Second, 1000},
	}
	for _, v := range values {
		if got := tl.Value(v.elapsed); !approx(got, v.want) {
			t.Errorf("Value(%s) = %v, want %v", v.elapsed, got, v.want)
		}
	}

	zooms := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 1},
		{3 * time.Second, 1.025},
		{6 * time.Second, 1.05},
		{10 * time.Second, 1.05},
	}
	for _, z := range zooms {
		if got := tl.Zoom(z.elapsed); !approx(got, z.want) {
			t.Errorf("Zoom(%s) = %v, want %v", z.elapsed, got, z.want)
		}
	}
}

func TestTimelineAt(t *testing.T) {
	tl := Timeline{Start: 0, End: 100, Day: 2, FPS: 10, Duration: time.Second, Ease: time.Second, ZoomGain: 0.05}

	p := tl.At(5)
	if p.Day != 2 {
		t.Errorf("Day = %d, want 2", p.Day)
	}
	if p.Elapsed != 500*time.Millisecond {
		t.Errorf("Elapsed = %s, want 500ms", p.Elapsed)
	}
	if !approx(p.Counter, 93.75) {
		t.Errorf("Counter = %v, want 93.75", p.Counter)
	}
	if !approx(p.Zoom, 1.025) {
		t.Errorf("Zoom = %v, want 1.025", p.Zoom)
	}
}

func TestTimelineEdges(t *testing.T) {
	tests := []struct {
		name string
		tl   Timeline
		want int
	}{
		{"partial frame rounds up", Timeline{FPS: 30, Duration: 1010 * time.Millisecond}, 31},
		{"zero duration", Timeline{FPS: 30}, 1},
		{"zero fps", Timeline{Duration: time.Second}, 1},
	}
	for _, tt := range tests {
		if got := tt.tl.Frames(); got != tt.want {
			t.Errorf("%s: Frames() = %d, want %d", tt.name, got, tt.want)
		}
	}

	// Without an easing window the end value shows from the first frame.
	tl := Timeline{Start: 10, End: 20}
	if got := tl.Value(0); got != 20 {
		t.Errorf("Value(0) without ease = %v, want 20", got)
	}
}
