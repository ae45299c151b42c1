package task

import (
	"fmt"

	"MandelbrotMovie/zoom"
)

// Job is everything one frame render needs, complete enough that any worker
// can run it without seeing any other frame.
type Job struct {
	Frame         int
	Viewport      zoom.Viewport
	Width         int
	Height        int
	MaxIterations int
	Outfile       string
}

func (j *Job) String() string {
	output := "{Job "
	output += fmt.Sprintf("Frame: %d ", j.Frame)
	output += fmt.Sprintf("Viewport: %s ", j.Viewport)
	output += fmt.Sprintf("Size: %dx%d ", j.Width, j.Height)
	output += fmt.Sprintf("Max Iterations: %d ", j.MaxIterations)
	output += fmt.Sprintf("Outfile: %s}", j.Outfile)
	return output
}
