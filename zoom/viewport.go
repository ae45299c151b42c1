package zoom

import "fmt"

// Viewport is the axis aligned rectangle of the complex plane that one frame
// covers. XMin is always strictly less than XMax and YMin strictly less than
// YMax for any viewport produced by a Trajectory.
type Viewport struct {
	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

func (v Viewport) String() string {
	return fmt.Sprintf("[%g, %g] x [%g, %g]", v.XMin, v.XMax, v.YMin, v.YMax)
}
