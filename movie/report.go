package movie

import (
	"fmt"
	"time"

	"MandelbrotMovie/task"

	"github.com/google/uuid"
)

// FrameFailure records one frame that did not make it to the sink.
type FrameFailure struct {
	Frame int
	Err   error
}

// RangeReport is what one range worker hands back after walking its frames.
type RangeReport struct {
	Frames   task.Range
	Rendered int
	Failures []FrameFailure
}

// Report sums up a run. A run with failures still renders everything it can;
// the report names exactly what is missing.
type Report struct {
	RunID      uuid.UUID
	Frames     int
	Rendered   int
	Failures   []FrameFailure
	LostRanges []task.Range
	Elapsed    time.Duration
}

func (r *Report) merge(rangeReport RangeReport) {
	r.Rendered += rangeReport.Rendered
	r.Failures = append(r.Failures, rangeReport.Failures...)
}

// Failed reports whether any frame is missing from the output.
func (r *Report) Failed() bool {
	return len(r.Failures) > 0 || len(r.LostRanges) > 0
}

// Missing returns how many frames never reached the sink.
func (r *Report) Missing() int {
	return r.Frames - r.Rendered
}

// FailedFrames returns the indices of the frames that failed outright, in
// render order. Frames inside lost ranges are listed by LostRanges instead.
func (r *Report) FailedFrames() []int {
	frames := make([]int, 0, len(r.Failures))
	for _, failure := range r.Failures {
		frames = append(frames, failure.Frame)
	}
	return frames
}

func (r *Report) String() string {
	output := fmt.Sprintf("Run %s: ", r.RunID)
	output += fmt.Sprintf("%d of %d frames rendered in %s", r.Rendered, r.Frames, r.Elapsed)
	if len(r.Failures) > 0 {
		output += fmt.Sprintf(", %d failed %v", len(r.Failures), r.FailedFrames())
	}
	for _, lost := range r.LostRanges {
		output += fmt.Sprintf(", frames %s lost", lost)
	}
	return output
}
