package sink

import (
	"fmt"
	"sync"

	"MandelbrotMovie/misc"

	"github.com/BrugadaSyndrome/bslogger"
)

// FileSink writes serialized frames to disk. Frame buffers are recycled
// through a pool because at movie resolutions a frame is tens of megabytes
// and every range worker is allocating them in a loop.
type FileSink struct {
	logger  bslogger.Logger
	pool    sync.Pool
	quality int
}

func NewFileSink(quality int) *FileSink {
	return &FileSink{
		logger:  bslogger.NewLogger("FileSink", bslogger.Normal, nil),
		quality: quality,
	}
}

func (fs *FileSink) Allocate(width int, height int) Frame {
	if cached := fs.pool.Get(); cached != nil {
		frame := cached.(*rgbaFrame)
		if frame.Width() == width && frame.Height() == height {
			return frame
		}
	}
	return newRGBAFrame(width, height)
}

func (fs *FileSink) Serialize(frame Frame, fileName string) error {
	if _, err := checkLength(fileName); err != nil {
		return err
	}

	data, err := Encode(frame, fileName, fs.quality)
	if err != nil {
		return err
	}

	if _, err := misc.WriteFile(fileName, data); err != nil {
		return fmt.Errorf("%w: writing %s: %s", misc.ErrSinkFailure, fileName, err)
	}
	fs.logger.Debugf("Saved image %s", fileName)
	return nil
}

func (fs *FileSink) Release(frame Frame) {
	if rgba, ok := frame.(*rgbaFrame); ok {
		fs.pool.Put(rgba)
	}
}
