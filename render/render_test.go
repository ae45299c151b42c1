package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"MandelbrotMovie/misc"
	"MandelbrotMovie/task"
	"MandelbrotMovie/zoom"
)

func testJob(width int, height int, maxIterations int) task.Job {
	return task.Job{
		Frame:         0,
		Viewport:      zoom.Viewport{XMin: -2, XMax: 2, YMin: -2, YMax: 2},
		Width:         width,
		Height:        height,
		MaxIterations: maxIterations,
	}
}

func TestNewRendererValidatesThreads(t *testing.T) {
	tests := []struct {
		name    string
		threads int
		valid   bool
	}{
		{name: "zero threads", threads: 0, valid: false},
		{name: "negative threads", threads: -4, valid: false},
		{name: "one thread", threads: 1, valid: true},
		{name: "max threads", threads: MaxThreads, valid: true},
		{name: "too many threads", threads: MaxThreads + 1, valid: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewRenderer(100, test.threads)
			if test.valid && err != nil {
				t.Errorf("NewRenderer(100, %d) = %v, want nil", test.threads, err)
			}
			if !test.valid {
				if err == nil {
					t.Fatalf("NewRenderer(100, %d) = nil, want an error", test.threads)
				}
				if !errors.Is(err, misc.ErrInvalidConfiguration) {
					t.Errorf("NewRenderer(100, %d) = %v, want an ErrInvalidConfiguration", test.threads, err)
				}
			}
		})
	}
}

func TestNewRendererValidatesIterations(t *testing.T) {
	if _, err := NewRenderer(0, 1); !errors.Is(err, misc.ErrInvalidConfiguration) {
		t.Errorf("NewRenderer(0, 1) = %v, want an ErrInvalidConfiguration", err)
	}
}

func TestRenderCoversEveryPixel(t *testing.T) {
	// The height does not divide evenly by the thread count, so the last band
	// has to absorb the remainder rows. A fresh RGBA image is fully
	// transparent and every rendered pixel comes back opaque, which makes
	// missed pixels visible.
	renderer, err := NewRenderer(50, 3)
	if err != nil {
		t.Fatal(err)
	}

	job := testJob(32, 10, 50)
	img := image.NewRGBA(image.Rect(0, 0, job.Width, job.Height))
	if err := renderer.Render(job, img); err != nil {
		t.Fatal(err)
	}

	for j := 0; j < job.Height; j++ {
		for i := 0; i < job.Width; i++ {
			if img.RGBAAt(i, j).A != 255 {
				t.Fatalf("pixel (%d, %d) was never written", i, j)
			}
		}
	}
}

func TestRenderThreadedMatchesSingleThreaded(t *testing.T) {
	job := testJob(64, 48, 100)

	single, err := NewRenderer(100, 1)
	if err != nil {
		t.Fatal(err)
	}
	reference := image.NewRGBA(image.Rect(0, 0, job.Width, job.Height))
	if err := single.Render(job, reference); err != nil {
		t.Fatal(err)
	}

	for _, threads := range []int{2, 3, 7, MaxThreads} {
		threaded, err := NewRenderer(100, threads)
		if err != nil {
			t.Fatal(err)
		}
		img := image.NewRGBA(image.Rect(0, 0, job.Width, job.Height))
		if err := threaded.Render(job, img); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(reference.Pix, img.Pix) {
			t.Errorf("%d thread render differs from the single threaded render", threads)
		}
	}
}

func TestRenderRejectsBadJobs(t *testing.T) {
	renderer, err := NewRenderer(100, 2)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(*task.Job)
	}{
		{name: "zero width", mutate: func(j *task.Job) { j.Width = 0 }},
		{name: "zero height", mutate: func(j *task.Job) { j.Height = 0 }},
		{name: "inverted viewport", mutate: func(j *task.Job) { j.Viewport.XMin, j.Viewport.XMax = j.Viewport.XMax, j.Viewport.XMin }},
		{name: "flat viewport", mutate: func(j *task.Job) { j.Viewport.YMax = j.Viewport.YMin }},
		{name: "iteration cap mismatch", mutate: func(j *task.Job) { j.MaxIterations = 99 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			job := testJob(16, 16, 100)
			test.mutate(&job)
			img := image.NewRGBA(image.Rect(0, 0, 16, 16))
			err := renderer.Render(job, img)
			if !errors.Is(err, misc.ErrInvalidConfiguration) {
				t.Errorf("Render() = %v, want an ErrInvalidConfiguration", err)
			}
		})
	}
}

// panicCanvas forwards writes until it reaches the poisoned row.
type panicCanvas struct {
	target   *image.RGBA
	panicRow int
}

func (pc *panicCanvas) SetRGBA(x int, y int, c color.RGBA) {
	if y == pc.panicRow {
		panic("poisoned row")
	}
	pc.target.SetRGBA(x, y, c)
}

func TestRenderReportsLostBands(t *testing.T) {
	renderer, err := NewRenderer(50, 4)
	if err != nil {
		t.Fatal(err)
	}

	job := testJob(16, 16, 50)
	canvas := &panicCanvas{
		target:   image.NewRGBA(image.Rect(0, 0, job.Width, job.Height)),
		panicRow: 6,
	}

	err = renderer.Render(job, canvas)
	if !errors.Is(err, misc.ErrWorkerFailure) {
		t.Fatalf("Render() = %v, want an ErrWorkerFailure", err)
	}

	// The poisoned row sits in the second band; the other bands must still
	// have finished their rows.
	for j := 0; j < 4; j++ {
		for i := 0; i < job.Width; i++ {
			if canvas.target.RGBAAt(i, j).A != 255 {
				t.Fatalf("pixel (%d, %d) in a healthy band was never written", i, j)
			}
		}
	}
}
