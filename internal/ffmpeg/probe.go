package ffmpeg

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ProbeStream is the subset of an ffprobe stream entry we rely on.
type ProbeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	PixFmt     string `json:"pix_fmt"`
	RFrameRate string `json:"r_frame_rate"`
	Duration   string `json:"duration"`
	NbFrames   string `json:"nb_frames"`
	Tags       struct {
		AlphaMode string `json:"alpha_mode"`
		Duration  string `json:"DURATION"`
		Rotate    string `json:"rotate"`
	} `json:"tags"`
	SideDataList []struct {
		SideDataType string  `json:"side_data_type"`
		Rotation     float64 `json:"rotation"`
	} `json:"side_data_list"`
	Disposition struct {
		AttachedPic int `json:"attached_pic"`
	} `json:"disposition"`
}

type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
}

// Metadata describes a probed media file.
type Metadata struct {
	Path      string
	Duration  float64
	Width     int
	Height    int
	Codec     string
	PixFmt    string
	FrameRate float64
	Rotation  int // degrees, as stored in the display matrix
	HasVideo  bool
	HasAudio  bool
	HasAlpha  bool
}

// ParseProbe converts ffprobe JSON output (-show_format -show_streams) into Metadata.
// A zero Duration is not an error here: still images have none.
func ParseProbe(raw string) (*Metadata, error) {
	var result ProbeResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, errors.WithStack(err)
	}
	if len(result.Streams) == 0 {
		return nil, fmt.Errorf("no streams found")
	}

	md := &Metadata{
		HasAudio: lo.SomeBy(result.Streams, func(s ProbeStream) bool {
			return s.CodecType == "audio"
		}),
	}

	// Cover art in audio files shows up as a video stream flagged attached_pic.
	videoStream, found := lo.Find(result.Streams, func(s ProbeStream) bool {
		return s.CodecType == "video" && s.Disposition.AttachedPic == 0
	})
	if found {
		md.HasVideo = true
		md.Width = videoStream.Width
		md.Height = videoStream.Height
		md.Rotation = streamRotation(videoStream)
		// ffmpeg autorotates, so filters see the displayed size
		if md.Rotation%180 != 0 {
			md.Width, md.Height = md.Height, md.Width
		}
		md.Codec = videoStream.CodecName
		md.PixFmt = videoStream.PixFmt
		md.FrameRate = parseRate(videoStream.RFrameRate)
		md.HasAlpha = IsAlphaPixelFormat(videoStream.PixFmt) || videoStream.Tags.AlphaMode == "1"
		md.Duration = parseSeconds(videoStream.Duration)
	} else {
		audioStream, _ := lo.Find(result.Streams, func(s ProbeStream) bool {
			return s.CodecType == "audio"
		})
		md.Codec = audioStream.CodecName
		md.Duration = parseSeconds(audioStream.Duration)
	}

	if md.Duration == 0 {
		md.Duration = parseSeconds(result.Format.Duration)
	}

	// Matroska/WebM only carries the duration as a tag
	if md.Duration == 0 && found {
		md.Duration = parseClock(videoStream.Tags.Duration)
	}

	if md.Duration == 0 && found && md.FrameRate > 0 {
		if frames, err := strconv.ParseFloat(videoStream.NbFrames, 64); err == nil {
			md.Duration = frames / md.FrameRate
		}
	}

	return md, nil
}

// streamRotation returns the stream's rotation in degrees, preferring the
// display matrix over the legacy rotate tag. Values are multiples of 90.
func streamRotation(s ProbeStream) int {
	for _, sd := range s.SideDataList {
		if sd.SideDataType == "Display Matrix" || sd.Rotation != 0 {
			return int(math.Round(sd.Rotation/90)) * 90 % 360
		}
	}
	if deg, err := strconv.ParseFloat(strings.TrimSpace(s.Tags.Rotate), 64); err == nil {
		return int(math.Round(deg/90)) * 90 % 360
	}
	return 0
}

// IsAlphaPixelFormat reports whether pixFmt carries an alpha plane.
func IsAlphaPixelFormat(pixFmt string) bool {
	switch {
	case strings.HasPrefix(pixFmt, "yuva"),
		strings.HasPrefix(pixFmt, "rgba"),
		strings.HasPrefix(pixFmt, "bgra"),
		strings.HasPrefix(pixFmt, "argb"),
		strings.HasPrefix(pixFmt, "abgr"),
		strings.HasPrefix(pixFmt, "gbrap"),
		strings.HasPrefix(pixFmt, "ya"):
		return true
	}
	return false
}

func parseSeconds(s string) float64 {
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return d
}

func parseRate(rate string) float64 {
	nums := strings.Split(rate, "/")
	if len(nums) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(nums[0], 64)
	den, err2 := strconv.ParseFloat(nums[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// parseClock parses "HH:MM:SS.fffffffff" durations.
func parseClock(s string) float64 {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0
	}
	h, err1 := strconv.ParseFloat(parts[0], 64)
	m, err2 := strconv.ParseFloat(parts[1], 64)
	sec, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}
	return h*3600 + m*60 + sec
}
