package compositor

import (
	"strconv"

	ffmpegWrap "github.com/ZacxDev/av-merge/internal/ffmpeg"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Window is a crop rectangle in source pixels.
type Window struct {
	Width  int
	Height int
	X      int
	Y      int
}

// CropWindow returns the centred rectangle of size (width/factor,
// height/factor). Factors at or below 1 yield the full frame.
func CropWindow(width, height int, factor float64) Window {
	if factor <= 1 {
		return Window{Width: width, Height: height}
	}
	w := ffmpegWrap.EvenFloor(float64(width) / factor)
	h := ffmpegWrap.EvenFloor(float64(height) / factor)
	if w > width {
		w = width
	}
	if h > height {
		h = height
	}
	return Window{
		Width:  w,
		Height: h,
		X:      (width - w) / 2,
		Y:      (height - h) / 2,
	}
}

// Zoom magnifies the frame centre by Factor without changing resolution.
// Factors below 1 shrink the picture and pad it back to the frame size.
type Zoom struct {
	Factor float64
}

func (z Zoom) Name() string { return "zoom" }

func (z Zoom) Apply(c Clip) (Clip, error) {
	if z.Factor <= 0 {
		return Clip{}, errors.Errorf("zoom factor must be positive, got %v", z.Factor)
	}
	if z.Factor == 1 {
		return c, nil
	}

	width, height := strconv.Itoa(c.Width), strconv.Itoa(c.Height)

	if z.Factor < 1 {
		sw := ffmpegWrap.EvenFloor(float64(c.Width) * z.Factor)
		sh := ffmpegWrap.EvenFloor(float64(c.Height) * z.Factor)
		c.Video = c.Video.
			Filter("scale", ffmpeg.Args{strconv.Itoa(sw), strconv.Itoa(sh)}).
			Filter("pad", ffmpeg.Args{width, height, "(ow-iw)/2", "(oh-ih)/2"})
		return c, nil
	}

	win := CropWindow(c.Width, c.Height, z.Factor)
	c.Video = c.Video.
		Filter("crop", ffmpeg.Args{
			strconv.Itoa(win.Width),
			strconv.Itoa(win.Height),
			strconv.Itoa(win.X),
			strconv.Itoa(win.Y),
		}).
		Filter("scale", ffmpeg.Args{width, height})
	return c, nil
}
