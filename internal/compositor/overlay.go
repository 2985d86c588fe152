package compositor

import (
	"strconv"

	ffmpegWrap "github.com/ZacxDev/av-merge/internal/ffmpeg"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const (
	// ReactionDivisor sizes the reaction clip relative to the main frame.
	ReactionDivisor = 8
	// WatermarkDivisor sizes the watermark relative to its own image.
	WatermarkDivisor = 5
)

// Reaction overlays a small clip that plays alongside the main one. The main
// clip keeps running once the reaction ends.
type Reaction struct {
	Source   *ffmpeg.Stream
	HasAlpha bool
	Anchor   Anchor
}

func (r Reaction) Name() string { return "reaction" }

func (r Reaction) Apply(c Clip) (Clip, error) {
	if r.Source == nil {
		return Clip{}, errors.New("no reaction stream")
	}

	w := ffmpegWrap.EvenFloor(float64(c.Width) / ReactionDivisor)
	h := ffmpegWrap.EvenFloor(float64(c.Height) / ReactionDivisor)

	src := r.Source
	if r.HasAlpha {
		src = src.Filter("format", ffmpeg.Args{"yuva420p"})
	}
	src = src.Filter("scale", ffmpeg.Args{strconv.Itoa(w), strconv.Itoa(h)})

	x, y := anchorOr(r.Anchor, AnchorLeftBottom).Position()
	c.Video = ffmpegWrap.CreateOverlayFilter(c.Video, src, x, y, "pass")
	return c, nil
}

// Watermark overlays a still image for the whole clip.
type Watermark struct {
	Source *ffmpeg.Stream
	Anchor Anchor
}

func (w Watermark) Name() string { return "watermark" }

func (w Watermark) Apply(c Clip) (Clip, error) {
	if w.Source == nil {
		return Clip{}, errors.New("no watermark stream")
	}

	divisor := strconv.Itoa(WatermarkDivisor)
	src := w.Source.Filter("scale", ffmpeg.Args{"iw/" + divisor, "ih/" + divisor})

	x, y := anchorOr(w.Anchor, AnchorRightTop).Position()
	c.Video = ffmpegWrap.CreateOverlayFilter(c.Video, src, x, y, "repeat")
	return c, nil
}

func anchorOr(a, fallback Anchor) Anchor {
	if a.Value == "" {
		return fallback
	}
	return a
}
