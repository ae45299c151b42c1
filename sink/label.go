package sink

import (
	"fmt"
	"image"
	"image/color"

	"MandelbrotMovie/misc"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const labelMargin = 6

// Label burns a caption into the bottom left corner of a frame. The text is
// drawn twice, a dark pass offset by one pixel under a light pass, so it
// stays readable over both the bright and the dark ends of the gradient.
// Call it after the frame is rendered and before it is serialized.
func Label(frame Frame, caption string) error {
	rgba, ok := frame.(*rgbaFrame)
	if !ok {
		return fmt.Errorf("%w: cannot label foreign frame type %T", misc.ErrSinkFailure, frame)
	}

	face := basicfont.Face7x13
	baseline := rgba.img.Rect.Max.Y - labelMargin

	drawer := &font.Drawer{
		Dst:  rgba.img,
		Src:  image.NewUniform(color.RGBA{R: 0, G: 0, B: 0, A: 255}),
		Face: face,
		Dot:  fixed.P(labelMargin+1, baseline+1),
	}
	drawer.DrawString(caption)

	drawer.Src = image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	drawer.Dot = fixed.P(labelMargin, baseline)
	drawer.DrawString(caption)
	return nil
}
