package task

import (
	"fmt"

	"github.com/google/uuid"
)

// Lease is a frame range checked out by one farm worker. The coordinator
// remembers which worker holds which lease so the frames can be requeued if
// that worker stops answering roll calls.
type Lease struct {
	ID            uuid.UUID
	Frames        Range
	WorkerAddress string
}

func NewLease(frames Range) Lease {
	return Lease{
		ID:     uuid.New(),
		Frames: frames,
	}
}

func (l *Lease) String() string {
	output := "{Lease "
	output += fmt.Sprintf("ID: %s ", l.ID)
	output += fmt.Sprintf("Frames: %s ", l.Frames)
	output += fmt.Sprintf("Worker: %s}", l.WorkerAddress)
	return output
}

// EncodedFrame is one finished frame coming back from a farm worker, already
// serialized in the movie's image format.
type EncodedFrame struct {
	Frame   int
	Outfile string
	Data    []byte
}

func (ef *EncodedFrame) String() string {
	output := "{EncodedFrame "
	output += fmt.Sprintf("Frame: %d ", ef.Frame)
	output += fmt.Sprintf("Outfile: %s ", ef.Outfile)
	output += fmt.Sprintf("Size: %d bytes}", len(ef.Data))
	return output
}

// FrameError describes one frame a worker could not finish. The message
// travels as text because the error crosses an rpc boundary.
type FrameError struct {
	Frame   int
	Message string
}

// LeaseResult is everything a worker hands back for one lease: the frames
// that rendered and the ones that did not.
type LeaseResult struct {
	LeaseID       uuid.UUID
	WorkerAddress string
	Frames        []EncodedFrame
	Failures      []FrameError
}

func (lr *LeaseResult) String() string {
	output := "{LeaseResult "
	output += fmt.Sprintf("ID: %s ", lr.LeaseID)
	output += fmt.Sprintf("Worker: %s ", lr.WorkerAddress)
	output += fmt.Sprintf("Frames: %d ", len(lr.Frames))
	output += fmt.Sprintf("Failures: %d}", len(lr.Failures))
	return output
}
