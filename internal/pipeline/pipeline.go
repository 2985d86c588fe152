// Package pipeline runs one merge: open inputs, compose, write, release.
package pipeline

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/ZacxDev/av-merge/internal/compositor"
	"github.com/ZacxDev/av-merge/internal/config"
	"github.com/ZacxDev/av-merge/internal/errs"
	ffmpegWrap "github.com/ZacxDev/av-merge/internal/ffmpeg"
	"github.com/ZacxDev/av-merge/internal/media"
	"github.com/ZacxDev/av-merge/internal/writer"
)

type Pipeline struct {
	cfg    config.Config
	prober media.Prober
	writer *writer.Writer
}

// New creates a pipeline probing through ffprobe and encoding with ffmpeg.
func New(cfg config.Config) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		prober: ffmpegWrap.NewProcessor(cfg.Verbose),
		writer: writer.New(cfg.Encoder, cfg.Verbose, cfg.DryRun),
	}
}

func (p *Pipeline) WithProber(prober media.Prober) *Pipeline {
	p.prober = prober
	return p
}

func (p *Pipeline) WithRunner(run writer.Runner) *Pipeline {
	p.writer.WithRunner(run)
	return p
}

// WithOutput redirects user-facing messages.
func (p *Pipeline) WithOutput(out io.Writer) *Pipeline {
	p.writer.Out = out
	return p
}

// Run performs the merge. Every opened input and the partial output file are
// released before Run returns, whether it succeeds or not.
func (p *Pipeline) Run() (err error) {
	set := media.NewSet(p.prober)
	defer func() {
		if cerr := set.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	clip, err := p.Compose(set)
	if err != nil {
		return err
	}
	return p.writer.Write(set, clip, p.cfg.OutputPath)
}

// Compose opens the inputs into set and returns the composed clip.
func (p *Pipeline) Compose(set *media.Set) (compositor.Clip, error) {
	video, err := set.Open(p.cfg.VideoPath, media.RoleVideo)
	if err != nil {
		return compositor.Clip{}, err
	}
	audio, err := set.Open(p.cfg.AudioPath, media.RoleAudio)
	if err != nil {
		return compositor.Clip{}, err
	}

	base := compositor.Clip{
		Video:    video.Input().Video(),
		Width:    video.Meta.Width,
		Height:   video.Meta.Height,
		Duration: video.Meta.Duration,
	}

	transforms := []compositor.Transform{
		compositor.ReplaceAudio{Audio: audio.Input().Audio(), Gain: p.cfg.Volume},
		compositor.Zoom{Factor: p.cfg.Zoom},
	}

	reaction, err := p.openOptional(set, p.cfg.ReactionPath, media.RoleReaction)
	if err != nil {
		return compositor.Clip{}, err
	}
	if reaction != nil {
		transforms = append(transforms, compositor.Reaction{
			Source:   reaction.Input().Video(),
			HasAlpha: reaction.Meta.HasAlpha,
		})
	}

	watermark, err := p.openOptional(set, p.cfg.WatermarkPath, media.RoleWatermark)
	if err != nil {
		return compositor.Clip{}, err
	}
	if watermark != nil {
		transforms = append(transforms, compositor.Watermark{Source: watermark.Input().Video()})
	}

	if p.cfg.Verbose {
		log.Printf("Applying: %s\n", strings.Join(compositor.Names(transforms), ", "))
	}

	return compositor.Compose(base, transforms...)
}

// openOptional opens an overlay asset. A path that was not configured or does
// not exist yields a nil ref and no error.
func (p *Pipeline) openOptional(set *media.Set, path string, role media.Role) (*media.Ref, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		log.Printf("Warning: %v, skipping %s overlay", errs.OptionalAssetMissing("%s file %s not found", role.Value, path), role.Value)
		return nil, nil
	}
	return set.Open(path, role)
}
