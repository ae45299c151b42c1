package mandelbrot

import (
	"image/color"

	"MandelbrotMovie/misc"
)

// setColor is the color of points that never escape.
var setColor = color.RGBA{R: 0, G: 0, B: 0, A: 255}

// gradientStops are the control colors of the escape gradient, a cubic Bezier
// running from a deep indigo through ocean blue and amber out to a warm white.
// Early escapes land near the first stop and near misses land near the last,
// so the two ends of the zoom stay visibly distinct.
var gradientStops = [4]color.RGBA{
	{R: 9, G: 1, B: 47, A: 255},
	{R: 4, G: 110, B: 143, A: 255},
	{R: 255, G: 170, B: 0, A: 255},
	{R: 255, G: 247, B: 235, A: 255},
}

// ColorAt maps an iteration count to its color. Points that reached
// maxIterations are inside the set and come back as setColor; everything else
// samples the gradient at iterations/maxIterations.
func ColorAt(iterations int, maxIterations int) color.RGBA {
	if iterations >= maxIterations {
		return setColor
	}
	return gradientColor(float64(iterations) / float64(maxIterations))
}

// gradientColor evaluates the gradient curve at t in [0, 1) with one
// de Casteljau reduction per channel.
func gradientColor(t float64) color.RGBA {
	return color.RGBA{
		R: uint8(casteljau(float64(gradientStops[0].R), float64(gradientStops[1].R), float64(gradientStops[2].R), float64(gradientStops[3].R), t)),
		G: uint8(casteljau(float64(gradientStops[0].G), float64(gradientStops[1].G), float64(gradientStops[2].G), float64(gradientStops[3].G), t)),
		B: uint8(casteljau(float64(gradientStops[0].B), float64(gradientStops[1].B), float64(gradientStops[2].B), float64(gradientStops[3].B), t)),
		A: 255,
	}
}

func casteljau(p0 float64, p1 float64, p2 float64, p3 float64, t float64) float64 {
	q0 := misc.LerpFloat64(p0, p1, t)
	q1 := misc.LerpFloat64(p1, p2, t)
	q2 := misc.LerpFloat64(p2, p3, t)
	r0 := misc.LerpFloat64(q0, q1, t)
	r1 := misc.LerpFloat64(q1, q2, t)
	return misc.LerpFloat64(r0, r1, t)
}

// Palette precomputes the color of every iteration count up to and including
// the cap, so mapping a pixel during a render is a single slice load.
type Palette struct {
	colors        []color.RGBA
	maxIterations int
}

func NewPalette(maxIterations int) Palette {
	palette := Palette{
		colors:        make([]color.RGBA, maxIterations+1),
		maxIterations: maxIterations,
	}
	for i := range palette.colors {
		palette.colors[i] = ColorAt(i, maxIterations)
	}
	return palette
}

func (p *Palette) Color(iterations int) color.RGBA {
	if iterations < 0 {
		iterations = 0
	}
	if iterations > p.maxIterations {
		iterations = p.maxIterations
	}
	return p.colors[iterations]
}

func (p *Palette) MaxIterations() int {
	return p.maxIterations
}
