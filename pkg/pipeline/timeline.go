package pipeline

import (
	"math"
	"time"

	"github.com/matzehuels/llumina/pkg/compositor"
)

// Timeline maps an animation clock onto frame parameters. The counter eases
// from Start to End over Ease with an ease-out quartic curve; the zoom grows
// linearly by ZoomGain over Duration.
type Timeline struct {
	Start    float64
	End      float64
	Day      int
	FPS      int
	Duration time.Duration
	Ease     time.Duration
	ZoomGain float64
}

// NewTimeline builds the export timeline of o. o must have passed
// ValidateForExport.
func NewTimeline(o Options, start, end float64) Timeline {
	return Timeline{
		Start:    start,
		End:      end,
		Day:      o.Day,
		FPS:      o.FPS,
		Duration: o.Duration,
		Ease:     o.Ease,
		ZoomGain: DefaultZoomGain,
	}
}

// Frames returns the number of frames covering Duration, at least one.
func (t Timeline) Frames() int {
	if t.FPS <= 0 {
		return 1
	}
	n := int(math.Ceil(t.Duration.Seconds() * float64(t.FPS)))
	return max(n, 1)
}

// Elapsed returns the clock at frame i.
func (t Timeline) Elapsed(i int) time.Duration {
	if t.FPS <= 0 {
		return 0
	}
	return time.Duration(i) * time.Second / time.Duration(t.FPS)
}

// Value returns the displayed counter at elapsed.
func (t Timeline) Value(elapsed time.Duration) float64 {
	p := 1.0
	if t.Ease > 0 {
		p = min(max(float64(elapsed)/float64(t.Ease), 0), 1)
	}
	return t.Start + (t.End-t.Start)*EaseOutQuart(p)
}

// Zoom returns the zoom at elapsed.
func (t Timeline) Zoom(elapsed time.Duration) float64 {
	p := 1.0
	if t.Duration > 0 {
		p = min(max(float64(elapsed)/float64(t.Duration), 0), 1)
	}
	return 1 + p*t.ZoomGain
}

// At returns the compositor parameters of frame i.
func (t Timeline) At(i int) compositor.FrameParams {
	e := t.Elapsed(i)
	return compositor.FrameParams{
		Counter: t.Value(e),
		Day:     t.Day,
		Zoom:    t.Zoom(e),
		Elapsed: e,
	}
}

// EaseOutQuart maps p in [0, 1] to 1-(1-p)^4.
func EaseOutQuart(p float64) float64 {
	q := 1 - p
	return 1 - q*q*q*q
}
