package zoom

import (
	"fmt"
	"math"

	"MandelbrotMovie/misc"
)

// Trajectory describes a whole zoom sequence. Every frame's viewport is a
// pure function of these parameters and the frame index, so any process can
// recompute any frame without coordinating with the others.
//
// The x axis span of frame i is InitialScale * ZoomFactor()^i, a geometric
// progression that lands on FinalScale at the last frame. The y axis span
// follows the frame's aspect ratio so pixels stay square.
type Trajectory struct {
	CenterX      float64
	CenterY      float64
	EndX         float64
	EndY         float64
	InitialScale float64
	FinalScale   float64
	Width        int
	Height       int
	FrameCount   int
}

// Verify reports whether the trajectory describes a renderable sequence.
// Unlike image rendering itself, this is cheap, so callers run it before any
// frame buffer is allocated.
func (t *Trajectory) Verify() error {
	if t.Width < 1 || t.Height < 1 {
		return fmt.Errorf("%w: frame dimensions must be positive, got %dx%d", misc.ErrInvalidConfiguration, t.Width, t.Height)
	}
	if t.FrameCount < 1 {
		return fmt.Errorf("%w: frame count must be positive, got %d", misc.ErrInvalidConfiguration, t.FrameCount)
	}
	if t.InitialScale <= 0 {
		return fmt.Errorf("%w: initial scale must be positive, got %g", misc.ErrInvalidConfiguration, t.InitialScale)
	}
	if t.FinalScale <= 0 {
		return fmt.Errorf("%w: final scale must be positive, got %g", misc.ErrInvalidConfiguration, t.FinalScale)
	}
	return nil
}

// ZoomFactor returns the constant ratio between the scales of consecutive
// frames. Zooming in gives a factor below one, zooming out gives one above
// one, and a single frame sequence has nothing to step between so the factor
// is one.
func (t *Trajectory) ZoomFactor() float64 {
	if t.FrameCount < 2 {
		return 1
	}
	return math.Pow(t.FinalScale/t.InitialScale, 1/float64(t.FrameCount-1))
}

// ScaleAt returns the x axis span of frame i. Frame 0 is exactly
// InitialScale and the last frame lands on FinalScale up to floating point
// rounding.
func (t *Trajectory) ScaleAt(frame int) float64 {
	return t.InitialScale * math.Pow(t.ZoomFactor(), float64(frame))
}

// CenterAt returns the viewport center of frame i. Without drift the center
// is fixed; with drift it glides from (CenterX, CenterY) to (EndX, EndY)
// with exponential easing so the apparent pan speed tracks the shrinking
// scale, easing out on the way in and easing in on the way out.
func (t *Trajectory) CenterAt(frame int) (float64, float64) {
	if t.EndX == t.CenterX && t.EndY == t.CenterY {
		return t.CenterX, t.CenterY
	}

	progress := 0.0
	if t.FrameCount > 1 {
		progress = float64(frame) / float64(t.FrameCount-1)
	}
	ease := misc.EaseOutExpo
	if t.FinalScale > t.InitialScale {
		ease = misc.EaseInExpo
	}
	eased := ease(progress)
	return misc.LerpFloat64(t.CenterX, t.EndX, eased), misc.LerpFloat64(t.CenterY, t.EndY, eased)
}

// ViewportAt returns the rectangle of the complex plane frame i covers, the
// frame's center extended by half the frame scale along each axis.
func (t *Trajectory) ViewportAt(frame int) Viewport {
	xScale := t.ScaleAt(frame)
	yScale := xScale * float64(t.Height) / float64(t.Width)
	centerX, centerY := t.CenterAt(frame)
	return Viewport{
		XMin: centerX - xScale/2,
		XMax: centerX + xScale/2,
		YMin: centerY - yScale/2,
		YMax: centerY + yScale/2,
	}
}

func (t *Trajectory) String() string {
	output := "Trajectory\n"
	output += fmt.Sprintf("Center: (%g, %g)\n", t.CenterX, t.CenterY)
	if t.EndX != t.CenterX || t.EndY != t.CenterY {
		output += fmt.Sprintf("End: (%g, %g)\n", t.EndX, t.EndY)
	}
	output += fmt.Sprintf("Scale: %g down to %g\n", t.InitialScale, t.FinalScale)
	output += fmt.Sprintf("Frames: %d at %dx%d\n", t.FrameCount, t.Width, t.Height)
	output += fmt.Sprintf("Zoom factor: %g", t.ZoomFactor())
	return output
}
