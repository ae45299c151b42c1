package sink

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"MandelbrotMovie/misc"
)

// MaxFilenameLength bounds every derived output path. A frame whose path
// would not fit is rejected before its buffer is even allocated.
const MaxFilenameLength = 255

// DefaultQuality is the jpeg quality used when a run does not pick its own.
const DefaultQuality = 90

// Frame is one allocated pixel buffer being filled for serialization. The
// caller owns a frame from Allocate until it hands it back to Release and
// must not touch it afterwards.
type Frame interface {
	SetRGBA(x int, y int, c color.RGBA)
	Width() int
	Height() int
}

// Sink turns finished frames into stored images. Implementations are safe
// for concurrent use, so every range worker can serialize through the same
// sink.
type Sink interface {
	Allocate(width int, height int) Frame
	Serialize(frame Frame, fileName string) error
	Release(frame Frame)
}

// Outfile derives the deterministic output path of a frame, the base name
// with the frame index spliced in before the extension.
func Outfile(savePath string, base string, frame int, extension string) (string, error) {
	return checkLength(filepath.Join(savePath, fmt.Sprintf("%s%d%s", base, frame, extension)))
}

// FinalOutfile derives the output path of the final frame preview.
func FinalOutfile(savePath string, base string, extension string) (string, error) {
	return checkLength(filepath.Join(savePath, fmt.Sprintf("%s_final%s", base, extension)))
}

func checkLength(fileName string) (string, error) {
	if len(fileName) > MaxFilenameLength {
		return "", fmt.Errorf("%w: %q is %d bytes, the limit is %d", misc.ErrFilenameOverflow, fileName, len(fileName), MaxFilenameLength)
	}
	return fileName, nil
}

// Encode serializes a frame into the image format its file extension names
// and returns the bytes. Jpeg honors the quality setting, png ignores it.
func Encode(frame Frame, fileName string, quality int) ([]byte, error) {
	rgba, ok := frame.(*rgbaFrame)
	if !ok {
		return nil, fmt.Errorf("%w: cannot encode foreign frame type %T", misc.ErrSinkFailure, frame)
	}

	buffer := &bytes.Buffer{}
	var err error
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(buffer, rgba.img, &jpeg.Options{Quality: quality})
	case ".png":
		err = png.Encode(buffer, rgba.img)
	default:
		err = fmt.Errorf("unsupported image format %q", filepath.Ext(fileName))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: encoding %s: %s", misc.ErrSinkFailure, fileName, err)
	}
	return buffer.Bytes(), nil
}

// rgbaFrame is the one Frame implementation; both sinks hand these out.
type rgbaFrame struct {
	img *image.RGBA
}

func newRGBAFrame(width int, height int) *rgbaFrame {
	return &rgbaFrame{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (f *rgbaFrame) SetRGBA(x int, y int, c color.RGBA) {
	f.img.SetRGBA(x, y, c)
}

func (f *rgbaFrame) Width() int {
	return f.img.Rect.Dx()
}

func (f *rgbaFrame) Height() int {
	return f.img.Rect.Dy()
}
