package compositor

import (
	ffmpegWrap "github.com/ZacxDev/av-merge/internal/ffmpeg"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ReplaceAudio drops the clip's own audio and uses Audio scaled by Gain.
type ReplaceAudio struct {
	Audio *ffmpeg.Stream
	Gain  float64
}

func (r ReplaceAudio) Name() string { return "replace-audio" }

func (r ReplaceAudio) Apply(c Clip) (Clip, error) {
	if r.Audio == nil {
		return Clip{}, errors.New("no audio stream to attach")
	}
	if r.Gain < 0 {
		return Clip{}, errors.Errorf("negative gain %v", r.Gain)
	}
	c.Audio = r.Audio.Filter("volume", ffmpeg.Args{ffmpegWrap.FormatGain(r.Gain)})
	return c, nil
}
