package sink

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"MandelbrotMovie/misc"
)

func TestOutfile(t *testing.T) {
	tests := []struct {
		name      string
		savePath  string
		base      string
		frame     int
		extension string
		want      string
	}{
		{name: "bare name", base: "mandel", frame: 0, extension: ".jpg", want: "mandel0.jpg"},
		{name: "late frame", base: "mandel", frame: 299, extension: ".png", want: "mandel299.png"},
		{name: "with save path", savePath: "out", base: "zoom", frame: 7, extension: ".jpg", want: filepath.Join("out", "zoom7.jpg")},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Outfile(test.savePath, test.base, test.frame, test.extension)
			if err != nil {
				t.Fatal(err)
			}
			if got != test.want {
				t.Errorf("Outfile() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestOutfileRejectsOverflow(t *testing.T) {
	base := strings.Repeat("m", MaxFilenameLength)
	if _, err := Outfile("", base, 0, ".jpg"); !errors.Is(err, misc.ErrFilenameOverflow) {
		t.Errorf("Outfile() = %v, want an ErrFilenameOverflow", err)
	}
}

func TestFinalOutfile(t *testing.T) {
	got, err := FinalOutfile("", "mandel", ".jpg")
	if err != nil {
		t.Fatal(err)
	}
	if got != "mandel_final.jpg" {
		t.Errorf("FinalOutfile() = %q, want \"mandel_final.jpg\"", got)
	}
}

func fillFrame(frame Frame, c color.RGBA) {
	for y := 0; y < frame.Height(); y++ {
		for x := 0; x < frame.Width(); x++ {
			frame.SetRGBA(x, y, c)
		}
	}
}

func TestFileSinkRoundTrip(t *testing.T) {
	fileSink := NewFileSink(DefaultQuality)
	fileName := filepath.Join(t.TempDir(), "frame0.png")

	frame := fileSink.Allocate(8, 4)
	fillFrame(frame, color.RGBA{R: 10, G: 200, B: 30, A: 255})
	frame.SetRGBA(3, 2, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	if err := fileSink.Serialize(frame, fileName); err != nil {
		t.Fatal(err)
	}
	fileSink.Release(frame)

	data, err := misc.ReadFile(fileName)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Fatalf("decoded image is %v, want 8x4", img.Bounds())
	}
	got := color.RGBAModel.Convert(img.At(3, 2)).(color.RGBA)
	if got != (color.RGBA{R: 255, G: 0, B: 0, A: 255}) {
		t.Errorf("pixel (3, 2) decoded as %v, want pure red", got)
	}
}

func TestFileSinkJpeg(t *testing.T) {
	fileSink := NewFileSink(DefaultQuality)
	fileName := filepath.Join(t.TempDir(), "frame0.jpg")

	frame := fileSink.Allocate(16, 16)
	fillFrame(frame, color.RGBA{R: 120, G: 10, B: 200, A: 255})
	if err := fileSink.Serialize(frame, fileName); err != nil {
		t.Fatal(err)
	}
	fileSink.Release(frame)

	data, err := misc.ReadFile(fileName)
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Fatalf("decoded image is %v, want 16x16", img.Bounds())
	}
}

func TestFileSinkAllocateAfterRelease(t *testing.T) {
	fileSink := NewFileSink(DefaultQuality)

	frame := fileSink.Allocate(10, 10)
	fileSink.Release(frame)

	// A recycled buffer is only handed back out for matching dimensions.
	recycled := fileSink.Allocate(10, 10)
	if recycled.Width() != 10 || recycled.Height() != 10 {
		t.Fatalf("Allocate(10, 10) came back %dx%d", recycled.Width(), recycled.Height())
	}
	fileSink.Release(recycled)

	resized := fileSink.Allocate(4, 6)
	if resized.Width() != 4 || resized.Height() != 6 {
		t.Fatalf("Allocate(4, 6) came back %dx%d", resized.Width(), resized.Height())
	}
}

func TestSerializeRejectsOverflowingName(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), strings.Repeat("f", MaxFilenameLength)+".png")

	memorySink := NewMemorySink(DefaultQuality)
	frame := memorySink.Allocate(2, 2)
	if err := memorySink.Serialize(frame, fileName); !errors.Is(err, misc.ErrFilenameOverflow) {
		t.Errorf("MemorySink.Serialize() = %v, want an ErrFilenameOverflow", err)
	}

	fileSink := NewFileSink(DefaultQuality)
	frame = fileSink.Allocate(2, 2)
	if err := fileSink.Serialize(frame, fileName); !errors.Is(err, misc.ErrFilenameOverflow) {
		t.Errorf("FileSink.Serialize() = %v, want an ErrFilenameOverflow", err)
	}
}

func TestEncodeRejectsUnsupportedFormat(t *testing.T) {
	frame := newRGBAFrame(2, 2)
	if _, err := Encode(frame, "frame0.bmp", DefaultQuality); !errors.Is(err, misc.ErrSinkFailure) {
		t.Errorf("Encode() = %v, want an ErrSinkFailure", err)
	}
}

// flatFrame satisfies Frame without being one of this package's buffers.
type flatFrame struct{}

func (flatFrame) SetRGBA(x int, y int, c color.RGBA) {}
func (flatFrame) Width() int                         { return 1 }
func (flatFrame) Height() int                        { return 1 }

func TestEncodeRejectsForeignFrames(t *testing.T) {
	if _, err := Encode(flatFrame{}, "frame0.png", DefaultQuality); !errors.Is(err, misc.ErrSinkFailure) {
		t.Errorf("Encode() = %v, want an ErrSinkFailure", err)
	}
}

func TestMemorySink(t *testing.T) {
	memorySink := NewMemorySink(DefaultQuality)

	frame := memorySink.Allocate(4, 4)
	fillFrame(frame, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	if err := memorySink.Serialize(frame, "frame0.png"); err != nil {
		t.Fatal(err)
	}
	memorySink.Release(frame)

	data, ok := memorySink.Frame("frame0.png")
	if !ok || len(data) == 0 {
		t.Fatal("serialized frame did not land in the sink")
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("stored frame does not decode: %v", err)
	}
	if got := memorySink.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

func TestMemorySinkConcurrentSerialize(t *testing.T) {
	memorySink := NewMemorySink(DefaultQuality)

	waitGroup := &sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		waitGroup.Add(1)
		go func(i int) {
			defer waitGroup.Done()
			frame := memorySink.Allocate(4, 4)
			fillFrame(frame, color.RGBA{R: uint8(i), A: 255})
			if err := memorySink.Serialize(frame, fmt.Sprintf("frame%d.png", i)); err != nil {
				t.Error(err)
			}
			memorySink.Release(frame)
		}(i)
	}
	waitGroup.Wait()

	if got := memorySink.Count(); got != 8 {
		t.Errorf("Count() = %d, want 8", got)
	}
	if got := len(memorySink.FileNames()); got != 8 {
		t.Errorf("FileNames() lists %d frames, want 8", got)
	}
}

func TestLabel(t *testing.T) {
	memorySink := NewMemorySink(DefaultQuality)
	frame := memorySink.Allocate(120, 40)
	fillFrame(frame, color.RGBA{R: 50, G: 50, B: 50, A: 255})

	if err := Label(frame, "frame 0 scale 4.000e+00"); err != nil {
		t.Fatal(err)
	}

	rgba := frame.(*rgbaFrame)
	white, black := 0, 0
	for y := 0; y < frame.Height(); y++ {
		for x := 0; x < frame.Width(); x++ {
			switch rgba.img.RGBAAt(x, y) {
			case color.RGBA{R: 255, G: 255, B: 255, A: 255}:
				white++
			case color.RGBA{R: 0, G: 0, B: 0, A: 255}:
				black++
			}
		}
	}
	if white == 0 {
		t.Error("labeling drew no light pixels")
	}
	if black == 0 {
		t.Error("labeling drew no shadow pixels")
	}
}

func TestLabelRejectsForeignFrames(t *testing.T) {
	if err := Label(flatFrame{}, "caption"); !errors.Is(err, misc.ErrSinkFailure) {
		t.Errorf("Label() = %v, want an ErrSinkFailure", err)
	}
}
