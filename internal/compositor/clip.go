// Package compositor builds the ffmpeg filter graph for a merge as an ordered
// list of transforms, each taking a Clip and returning a new one.
package compositor

import (
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Clip is a composed audio/video value. Transforms never modify a Clip in
// place; they return a copy with new stream nodes.
type Clip struct {
	Video    *ffmpeg.Stream
	Audio    *ffmpeg.Stream // nil when the clip carries no audio
	Width    int
	Height   int
	Duration float64
}

// Streams returns the clip's output streams in mapping order.
func (c Clip) Streams() []*ffmpeg.Stream {
	if c.Audio == nil {
		return []*ffmpeg.Stream{c.Video}
	}
	return []*ffmpeg.Stream{c.Video, c.Audio}
}

// Transform is one step of a composition.
type Transform interface {
	Name() string
	Apply(c Clip) (Clip, error)
}

// Compose applies transforms to base in order.
func Compose(base Clip, transforms ...Transform) (Clip, error) {
	if base.Video == nil {
		return Clip{}, errors.New("base clip has no video stream")
	}

	clip := base
	for _, t := range transforms {
		next, err := t.Apply(clip)
		if err != nil {
			return Clip{}, errors.Wrapf(err, "applying %s", t.Name())
		}
		clip = next
	}
	return clip, nil
}

// Names lists the transform names, for logging.
func Names(transforms []Transform) []string {
	names := make([]string, 0, len(transforms))
	for _, t := range transforms {
		names = append(names, t.Name())
	}
	return names
}
