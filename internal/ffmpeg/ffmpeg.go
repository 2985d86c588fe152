package ffmpeg

import (
	"fmt"
	"log"
	"math"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	cache "github.com/Code-Hex/go-generics-cache"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type CodecSettings struct {
	VideoCodec      string
	AudioCodec      string
	ContainerFormat string
	FileExtension   string
	EncoderPresets  map[string]ffmpeg.KwArgs
}

var codecPresets = map[string]CodecSettings{
	"webm": {
		VideoCodec:      "libvpx-vp9",
		AudioCodec:      "libopus",
		ContainerFormat: "webm",
		FileExtension:   ".webm",
		EncoderPresets: map[string]ffmpeg.KwArgs{
			"balanced": {
				"b:v":          "0",
				"deadline":     "good",
				"cpu-used":     2,
				"row-mt":       1,
				"tile-columns": 2,
			},
		},
	},
	"mp4": {
		VideoCodec:      "libx264",
		AudioCodec:      "aac",
		ContainerFormat: "mp4",
		FileExtension:   ".mp4",
		EncoderPresets: map[string]ffmpeg.KwArgs{
			"balanced": {
				"profile:v": "high",
				"movflags":  "+faststart",
			},
		},
	},
}

// GetCodecSettings returns the codec preset for a container, defaulting to MP4.
func GetCodecSettings(outputFormat string) CodecSettings {
	if settings, ok := codecPresets[outputFormat]; ok {
		return settings
	}
	return codecPresets["mp4"]
}

// FormatForPath picks the output container from a file extension.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webm":
		return "webm"
	default:
		return "mp4"
	}
}

// EncoderArgs builds the output arguments for a container. preset is only
// meaningful for x264 and is ignored for VP9.
func EncoderArgs(outputFormat, preset string, crf int) ffmpeg.KwArgs {
	settings := GetCodecSettings(outputFormat)
	kwargs := ffmpeg.KwArgs{
		"c:v":     settings.VideoCodec,
		"pix_fmt": "yuv420p",
		"crf":     crf,
		"threads": GetOptimalThreadCount(),
	}
	for k, v := range settings.EncoderPresets["balanced"] {
		kwargs[k] = v
	}
	if settings.VideoCodec == "libx264" {
		kwargs["preset"] = preset
	}
	return kwargs
}

// Processor wraps ffprobe access and memoises probe results per path.
type Processor struct {
	verbose bool
	probes  *cache.Cache[string, *Metadata]
	probe   func(path string) (string, error)
}

// NewProcessor creates a new FFmpeg processor
func NewProcessor(verbose bool) *Processor {
	return &Processor{
		verbose: verbose,
		probes:  cache.New[string, *Metadata](),
		probe: func(path string) (string, error) {
			return ffmpeg.Probe(path)
		},
	}
}

// GetMediaMetadata probes a media file. Results are cached until Forget is
// called for the same path.
func (p *Processor) GetMediaMetadata(path string) (*Metadata, error) {
	if md, ok := p.probes.Get(path); ok {
		return md, nil
	}

	raw, err := p.probe(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error probing %s", path)
	}

	md, err := ParseProbe(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading probe output for %s", path)
	}
	md.Path = path

	if p.verbose {
		log.Printf("Probed %s: %s, audio=%t\n", path, describe(md), md.HasAudio)
	}

	p.probes.Set(path, md)
	return md, nil
}

// Forget drops the cached probe result for path.
func (p *Processor) Forget(path string) {
	p.probes.Delete(path)
}

func GetOptimalThreadCount() int {
	cpuCount := runtime.NumCPU()
	// Use 75% of available cores to prevent overload
	return int(math.Max(1, float64(cpuCount)*0.75))
}

// CreateOverlayFilter creates a filter for overlaying one video on top of another
func CreateOverlayFilter(main, overlay *ffmpeg.Stream, x, y, eofAction string) *ffmpeg.Stream {
	return ffmpeg.Filter([]*ffmpeg.Stream{main, overlay}, "overlay", ffmpeg.Args{}, ffmpeg.KwArgs{
		"x":          x,
		"y":          y,
		"eof_action": eofAction,
	})
}

// EnsureExtension appends extension when filename has no recognised video extension.
func EnsureExtension(filename, extension string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp4", ".webm", ".mkv", ".mov", ".avi":
		return filename
	}
	return filename + extension
}

// FormatSeconds renders a duration for ffmpeg's -t/-ss options.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}

// FormatGain renders a linear gain factor for the volume filter.
func FormatGain(gain float64) string {
	return strconv.FormatFloat(gain, 'f', -1, 64)
}

// EvenFloor rounds v down to an even integer of at least 2, keeping
// dimensions valid for 4:2:0 chroma subsampling.
func EvenFloor(v float64) int {
	n := int(math.Floor(v))
	n -= n % 2
	if n < 2 {
		return 2
	}
	return n
}

func describe(md *Metadata) string {
	return fmt.Sprintf("%dx%d %s %.2fs", md.Width, md.Height, md.Codec, md.Duration)
}
