package config

import (
	"os"
	"testing"

	"github.com/ZacxDev/av-merge/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVolume(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		set     bool
		want    float64
	}{
		{name: "flag absent", percent: 0, set: false, want: 1.0},
		{name: "unchanged", percent: 100, set: true, want: 1.0},
		{name: "half", percent: 50, set: true, want: 0.5},
		{name: "double", percent: 200, set: true, want: 2.0},
		{name: "explicit zero is silence", percent: 0, set: true, want: 0},
		{name: "fractional", percent: 12.5, set: true, want: 0.125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeVolume(tt.percent, tt.set)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeVolumeRejectsNegative(t *testing.T) {
	_, err := NormalizeVolume(-10, true)
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestValidateZoom(t *testing.T) {
	assert.NoError(t, ValidateZoom(1))
	assert.NoError(t, ValidateZoom(1.2))
	assert.NoError(t, ValidateZoom(0.5))
	assert.ErrorIs(t, ValidateZoom(0), errs.ErrInvalidConfig)
	assert.ErrorIs(t, ValidateZoom(-2), errs.ErrInvalidConfig)
}

func TestLoadEncoderSettingsDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AVMERGE_PRESET", "")
	t.Setenv("AVMERGE_CRF", "")
	t.Setenv("AVMERGE_AUDIO_BITRATE", "")

	settings, err := LoadEncoderSettings()
	require.NoError(t, err)
	assert.Equal(t, EncoderSettings{Preset: DefaultPreset, CRF: DefaultCRF, AudioBitrate: DefaultAudioBitrate}, settings)
}

func TestLoadEncoderSettingsFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AVMERGE_PRESET", "veryfast")
	t.Setenv("AVMERGE_CRF", "18")
	t.Setenv("AVMERGE_AUDIO_BITRATE", "320k")

	settings, err := LoadEncoderSettings()
	require.NoError(t, err)
	assert.Equal(t, "veryfast", settings.Preset)
	assert.Equal(t, 18, settings.CRF)
	assert.Equal(t, "320k", settings.AudioBitrate)
}

func TestLoadEncoderSettingsInvalidCRF(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("AVMERGE_CRF", "high")
	_, err := LoadEncoderSettings()
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)

	t.Setenv("AVMERGE_CRF", "70")
	_, err = LoadEncoderSettings()
	assert.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
