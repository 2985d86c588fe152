package media

import (
	"errors"
	"testing"

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
	md, ok := f.meta[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return md, nil
}

func (f *fakeProber) Forget(path string) {
	f.forgotten = append(f.forgotten, path)
}

func newFakeProber() *fakeProber {
	return &fakeProber{meta: map[string]*ffmpegWrap.Metadata{
		"video.mp4":     {HasVideo: true, HasAudio: true, Width: 1280, Height: 720, Codec: "h264", Duration: 10},
		"audio.mp3":     {HasAudio: true, Codec: "mp3", Duration: 30},
		"silent.mp4":    {HasVideo: true, Width: 640, Height: 360, Codec: "h264", Duration: 5},
		"reaction.webm": {HasVideo: true, HasAlpha: true, Width: 640, Height: 360, Codec: "vp9", Duration: 3},
		"still.png":     {HasVideo: true, HasAlpha: true, Width: 300, Height: 100, Codec: "png"},
	}}
}

func TestRoles(t *testing.T) {
	assert.Len(t, Roles.Members(), 4)
	require.NotNil(t, Roles.Parse("reaction"))
	assert.Equal(t, RoleReaction, *Roles.Parse("reaction"))
	assert.Nil(t, Roles.Parse("subtitle"))
}

func TestOpenValidatesRole(t *testing.T) {
	set := NewSet(newFakeProber())
	defer set.Close()

	ref, err := set.Open("video.mp4", RoleVideo)
	require.NoError(t, err)
	assert.Equal(t, 1280, ref.Meta.Width)

	_, err = set.Open("silent.mp4", RoleAudio)
	assert.ErrorIs(t, err, errs.ErrLibraryFailure)

	_, err = set.Open("audio.mp3", RoleVideo)
	assert.ErrorIs(t, err, errs.ErrLibraryFailure)

	_, err = set.Open("still.png", RoleVideo)
	assert.ErrorIs(t, err, errs.ErrLibraryFailure, "a still image has no duration")

	_, err = set.Open("still.png", RoleWatermark)
	assert.NoError(t, err)
}

func TestOpenMissingFileIsLibraryFailure(t *testing.T) {
	set := NewSet(newFakeProber())
	defer set.Close()

	_, err := set.Open("missing.mp4", RoleVideo)
	assert.ErrorIs(t, err, errs.ErrLibraryFailure)
	assert.Contains(t, err.Error(), "missing.mp4")
}

func TestCloseReleasesInReverseOrder(t *testing.T) {
	prober := newFakeProber()
	set := NewSet(prober)

	_, err := set.Open("video.mp4", RoleVideo)
	require.NoError(t, err)
	_, err = set.Open("audio.mp3", RoleAudio)
	require.NoError(t, err)

	var order []string
	set.OnClose(func() error {
		order = append(order, "partial")
		return nil
	})

	require.NoError(t, set.Close())
	assert.Equal(t, []string{"partial"}, order)
	assert.Equal(t, []string{"audio.mp3", "video.mp4"}, prober.forgotten)

	// a second close has nothing left to release
	require.NoError(t, set.Close())
	assert.Len(t, prober.forgotten, 2)
}

func TestCloseRunsEveryCloserAndReturnsFirstError(t *testing.T) {
	set := NewSet(newFakeProber())
	first := errors.New("first")
	ran := 0

	set.OnClose(func() error { ran++; return errors.New("older") })
	set.OnClose(func() error { ran++; return first })

	err := set.Close()
	assert.Equal(t, 2, ran)
	assert.Equal(t, first, err)
}

func TestInputUsesLibvpxForAlphaVP9(t *testing.T) {
	set := NewSet(newFakeProber())
	defer set.Close()

	ref, err := set.Open("reaction.webm", RoleReaction)
	require.NoError(t, err)
	assert.Same(t, ref.Input(), ref.Input())

	args := ffmpeg.Output([]*ffmpeg.Stream{ref.Input()}, "out.mp4").GetArgs()
	assert.Contains(t, args, "libvpx-vp9")

	plain, err := set.Open("video.mp4", RoleVideo)
	require.NoError(t, err)
	args = ffmpeg.Output([]*ffmpeg.Stream{plain.Input()}, "out.mp4").GetArgs()
	assert.NotContains(t, args, "libvpx-vp9")
}
