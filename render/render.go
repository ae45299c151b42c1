package render

import (
	"fmt"
	"image/color"
	"strings"
	"sync"

	"MandelbrotMovie/mandelbrot"
	"MandelbrotMovie/misc"
	"MandelbrotMovie/task"
)

// MaxThreads caps how many render threads one frame may fan out to.
const MaxThreads = 20

// Canvas is the write only surface a render fills. *image.RGBA satisfies it,
// as do the frames handed out by the image sinks.
type Canvas interface {
	SetRGBA(x int, y int, c color.RGBA)
}

// Renderer fills frame canvases band by band. One renderer is built per run
// and shared by every range worker; it holds no per frame state, so renders
// may run concurrently.
type Renderer struct {
	palette mandelbrot.Palette
	threads int
}

// NewRenderer builds a renderer with a precomputed palette for the iteration
// cap. The thread count is validated here, before any frame work starts.
func NewRenderer(maxIterations int, threads int) (Renderer, error) {
	if threads < 1 || threads > MaxThreads {
		return Renderer{}, fmt.Errorf("%w: threads must be between 1 and %d, got %d", misc.ErrInvalidConfiguration, MaxThreads, threads)
	}
	if maxIterations < 1 {
		return Renderer{}, fmt.Errorf("%w: max iterations must be positive, got %d", misc.ErrInvalidConfiguration, maxIterations)
	}

	return Renderer{
		palette: mandelbrot.NewPalette(maxIterations),
		threads: threads,
	}, nil
}

func (r *Renderer) Threads() int {
	return r.threads
}

// Render fills canvas with the job's frame. With more than one thread the
// rows split into contiguous bands, one goroutine per band, and Render
// returns only after every band has finished. The bands write disjoint rows,
// so no locking is needed, and a single threaded render of the same job
// produces exactly the same pixels.
func (r *Renderer) Render(job task.Job, canvas Canvas) error {
	if job.Width < 1 || job.Height < 1 {
		return fmt.Errorf("%w: frame dimensions must be positive, got %dx%d", misc.ErrInvalidConfiguration, job.Width, job.Height)
	}
	if job.Viewport.XMin >= job.Viewport.XMax || job.Viewport.YMin >= job.Viewport.YMax {
		return fmt.Errorf("%w: degenerate viewport %s", misc.ErrInvalidConfiguration, job.Viewport)
	}
	if job.MaxIterations != r.palette.MaxIterations() {
		return fmt.Errorf("%w: job wants %d iterations but the renderer was built for %d", misc.ErrInvalidConfiguration, job.MaxIterations, r.palette.MaxIterations())
	}

	if r.threads == 1 {
		r.renderRows(job, canvas, task.Range{Start: 0, End: job.Height})
		return nil
	}

	bands := task.Partition(job.Height, r.threads)
	lost := make(chan string, len(bands))
	waitGroup := &sync.WaitGroup{}
	for _, band := range bands {
		waitGroup.Add(1)
		go func(band task.Range) {
			defer waitGroup.Done()
			defer func() {
				if v := recover(); v != nil {
					lost <- fmt.Sprintf("rows %s: %v", band, v)
				}
			}()
			r.renderRows(job, canvas, band)
		}(band)
	}
	waitGroup.Wait()
	close(lost)

	var failures []string
	for failure := range lost {
		failures = append(failures, failure)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%w: frame %d lost %s", misc.ErrWorkerFailure, job.Frame, strings.Join(failures, "; "))
	}
	return nil
}

// renderRows walks one band of rows, mapping each pixel onto the viewport,
// iterating it, and writing its color. Pixel (i, j) maps to the viewport
// point viewport min + (index/dimension) * span on each axis, so the top
// left pixel sits exactly on (XMin, YMin).
func (r *Renderer) renderRows(job task.Job, canvas Canvas, rows task.Range) {
	xSpan := job.Viewport.XMax - job.Viewport.XMin
	ySpan := job.Viewport.YMax - job.Viewport.YMin
	for j := rows.Start; j < rows.End; j++ {
		y := job.Viewport.YMin + float64(j)*ySpan/float64(job.Height)
		for i := 0; i < job.Width; i++ {
			x := job.Viewport.XMin + float64(i)*xSpan/float64(job.Width)
			iterations := mandelbrot.EscapeTime(x, y, job.MaxIterations)
			canvas.SetRGBA(i, j, r.palette.Color(iterations))
		}
	}
}
