package pipeline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZacxDev/av-merge/internal/config"
	"github.com/ZacxDev/av-merge/internal/errs"
	ffmpegWrap "github.com/ZacxDev/av-merge/internal/ffmpeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type fakeProber struct {
	meta      map[string]*ffmpegWrap.Metadata
	forgotten []string
}

func (f *fakeProber) GetMediaMetadata(path string) (*ffmpegWrap.Metadata, error) {
	md, ok := f.meta[filepath.Base(path)]
	if !ok {
		return nil, errors.New("no such file")
	}
	return md, nil
}

func (f *fakeProber) Forget(path string) {
	f.forgotten = append(f.forgotten, filepath.Base(path))
}

func newFakeProber() *fakeProber {
	return &fakeProber{meta: map[string]*ffmpegWrap.Metadata{
		"video.mp4":     {HasVideo: true, HasAudio: true, Width: 1920, Height: 1080, Codec: "h264", Duration: 12},
		"audio.mp3":     {HasAudio: true, Codec: "mp3", Duration: 40},
		"reaction.mp4":  {HasVideo: true, HasAudio: true, Width: 1280, Height: 720, Codec: "h264", Duration: 4},
		"watermark.png": {HasVideo: true, HasAlpha: true, Width: 500, Height: 200, Codec: "png"},
	}}
}

func testConfig(dir string) config.Config {
	return config.Config{
		VideoPath:  filepath.Join(dir, "video.mp4"),
		AudioPath:  filepath.Join(dir, "audio.mp3"),
		OutputPath: filepath.Join(dir, "video_merged.mp4"),
		Dir:        dir,
		Volume:     1,
		Zoom:       1,
		Encoder: config.EncoderSettings{
			Preset:       config.DefaultPreset,
			CRF:          config.DefaultCRF,
			AudioBitrate: config.DefaultAudioBitrate,
		},
		DryRun: true,
	}
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
}

// dryRun returns the ffmpeg command line the pipeline would execute.
func dryRun(t *testing.T, cfg config.Config) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, New(cfg).WithProber(newFakeProber()).WithOutput(&out).Run())
	return out.String()
}

func TestMissingWatermarkMatchesNoWatermark(t *testing.T) {
	dir := t.TempDir()

	missing := testConfig(dir)
	missing.WatermarkPath = filepath.Join(dir, "watermark.png")

	none := testConfig(dir)

	assert.Equal(t, dryRun(t, none), dryRun(t, missing))
	assert.NotContains(t, dryRun(t, missing), "watermark.png")
}

func TestMissingReactionIsSkipped(t *testing.T) {
	dir := t.TempDir()

	cfg := testConfig(dir)
	cfg.ReactionPath = filepath.Join(dir, "reaction.mp4")

	assert.Equal(t, dryRun(t, testConfig(dir)), dryRun(t, cfg))
}

func TestOverlaysAppliedInOrder(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "reaction.mp4", "watermark.png")

	cfg := testConfig(dir)
	cfg.ReactionPath = filepath.Join(dir, "reaction.mp4")
	cfg.WatermarkPath = filepath.Join(dir, "watermark.png")
	cfg.Zoom = 1.2
	cfg.Volume = 0.5

	cmd := dryRun(t, cfg)
	assert.Contains(t, cmd, "-i "+cfg.ReactionPath)
	assert.Contains(t, cmd, "-i "+cfg.WatermarkPath)
	assert.Contains(t, cmd, "volume=0.5")
	assert.Contains(t, cmd, "crop=1600:900:160:90")
	assert.Contains(t, cmd, "scale=240:134")
	assert.Contains(t, cmd, "-t 12.000")

	reaction := strings.Index(cmd, "eof_action=pass")
	watermark := strings.Index(cmd, "eof_action=repeat")
	require.True(t, reaction >= 0 && watermark >= 0, cmd)
	assert.Less(t, reaction, watermark)
}

func TestRotatedVideoUsesDisplayedSize(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "reaction.mp4")

	portrait, err := ffmpegWrap.ParseProbe(`{"streams": [
		{"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080,
		 "pix_fmt": "yuv420p", "r_frame_rate": "30/1", "duration": "12.0",
		 "side_data_list": [{"side_data_type": "Display Matrix", "rotation": -90}]}
	], "format": {"duration": "12.0"}}`)
	require.NoError(t, err)

	prober := newFakeProber()
	prober.meta["portrait.mp4"] = portrait

	cfg := testConfig(dir)
	cfg.VideoPath = filepath.Join(dir, "portrait.mp4")
	cfg.ReactionPath = filepath.Join(dir, "reaction.mp4")
	cfg.Zoom = 1.2

	var out bytes.Buffer
	require.NoError(t, New(cfg).WithProber(prober).WithOutput(&out).Run())

	cmd := out.String()
	assert.Contains(t, cmd, "crop=900:1600:90:160")
	assert.Contains(t, cmd, "scale=1080:1920")
	assert.Contains(t, cmd, "scale=134:240")
	assert.NotContains(t, cmd, "crop=1600:900")
}

func TestRunReleasesInputs(t *testing.T) {
	dir := t.TempDir()
	prober := newFakeProber()
	var out bytes.Buffer

	cfg := testConfig(dir)
	cfg.DryRun = false

	err := New(cfg).
		WithProber(prober).
		WithOutput(&out).
		WithRunner(func(*ffmpeg.Stream) error { return errors.New("exit status 1") }).
		Run()
	assert.ErrorIs(t, err, errs.ErrLibraryFailure)
	assert.ElementsMatch(t, []string{"video.mp4", "audio.mp3"}, prober.forgotten)
	assert.NoFileExists(t, cfg.OutputPath)
}

func TestRunFailsOnUnreadableVideo(t *testing.T) {
	dir := t.TempDir()

	cfg := testConfig(dir)
	cfg.VideoPath = filepath.Join(dir, "broken.mov")

	err := New(cfg).WithProber(newFakeProber()).WithOutput(&bytes.Buffer{}).Run()
	require.ErrorIs(t, err, errs.ErrLibraryFailure)
	assert.Contains(t, err.Error(), "broken.mov")
}
