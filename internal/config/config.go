package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ZacxDev/av-merge/internal/errs"
	"github.com/joho/godotenv"
)

// Options holds the raw command line input before resolution.
type Options struct {
	VideoPath     string
	AudioPath     string
	OutputPath    string
	ReactionPath  string
	WatermarkPath string
	Dir           string
	Volume        float64 // percentage, 100 = unchanged
	VolumeSet     bool    // false when --volume was not given at all
	Zoom          float64
	Verbose       bool
	DryRun        bool
}

// Config is the fully resolved run configuration. It is built once at
// startup and never modified afterwards.
type Config struct {
	VideoPath     string
	AudioPath     string
	OutputPath    string
	ReactionPath  string // empty when no reaction overlay was requested
	WatermarkPath string // empty when no watermark is configured
	Dir           string
	Volume        float64 // linear gain multiplier
	Zoom          float64
	Encoder       EncoderSettings
	Verbose       bool
	DryRun        bool
}

// EncoderSettings tunes the output encoder.
type EncoderSettings struct {
	Preset       string
	CRF          int
	AudioBitrate string
}

const (
	DefaultVolumePercent = 100
	DefaultZoom          = 1.0

	// WatermarkFilename is picked up from the working directory when present.
	WatermarkFilename = "watermark.png"
	// ReactionFilename is never selected as the main video during scanning.
	ReactionFilename = "reaction.mp4"

	MergedSuffix  = "_merged"
	DefaultFormat = "mp4"

	DefaultPreset       = "medium"
	DefaultCRF          = 23
	DefaultAudioBitrate = "192k"

	// Quality bounds accepted for AVMERGE_CRF
	MinCRF = 0
	MaxCRF = 51
)

// NormalizeVolume turns a volume percentage into a linear gain. A flag that
// was never given yields 1.0; an explicit 0 yields silence.
func NormalizeVolume(percent float64, set bool) (float64, error) {
	if !set {
		return 1.0, nil
	}
	if percent < 0 {
		return 0, errs.InvalidConfig("volume must not be negative, got %v", percent)
	}
	return percent / 100, nil
}

// ValidateZoom rejects factors that cannot describe a crop window.
func ValidateZoom(factor float64) error {
	if factor <= 0 {
		return errs.InvalidConfig("zoom factor must be positive, got %v", factor)
	}
	return nil
}

// LoadEncoderSettings reads encoder tuning from the environment, loading a
// .env file from the current directory first if one exists.
func LoadEncoderSettings() (EncoderSettings, error) {
	_ = godotenv.Load()

	settings := EncoderSettings{
		Preset:       getEnv("AVMERGE_PRESET", DefaultPreset),
		AudioBitrate: getEnv("AVMERGE_AUDIO_BITRATE", DefaultAudioBitrate),
	}

	crf, err := getEnvAsInt("AVMERGE_CRF", DefaultCRF)
	if err != nil {
		return EncoderSettings{}, err
	}
	settings.CRF = crf

	if err := settings.Validate(); err != nil {
		return EncoderSettings{}, err
	}
	return settings, nil
}

// Validate checks the encoder settings are usable
func (s EncoderSettings) Validate() error {
	if s.CRF < MinCRF || s.CRF > MaxCRF {
		return errs.InvalidConfig("AVMERGE_CRF must be between %d and %d, got %d", MinCRF, MaxCRF, s.CRF)
	}
	if s.Preset == "" {
		return errs.InvalidConfig("AVMERGE_PRESET must not be empty")
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("Config{Video: %s, Audio: %s, Output: %s, Volume: %.2f, Zoom: %.2f}",
		c.VideoPath, c.AudioPath, c.OutputPath, c.Volume, c.Zoom)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errs.InvalidConfig("%s must be an integer, got %q", key, valueStr)
	}
	return value, nil
}
