// Package media opens probed media references and guarantees their release.
package media

import (
	"log"

	"github.com/ZacxDev/av-merge/internal/errs"
	ffmpegWrap "github.com/ZacxDev/av-merge/internal/ffmpeg"
	"github.com/orsinium-labs/enum"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Role is the part an input plays in the composition.
type Role enum.Member[string]

var (
	RoleVideo     = Role{Value: "video"}
	RoleAudio     = Role{Value: "audio"}
	RoleReaction  = Role{Value: "reaction"}
	RoleWatermark = Role{Value: "watermark"}
	Roles         = enum.New(RoleVideo, RoleAudio, RoleReaction, RoleWatermark)
)

// Prober reads stream metadata for a path.
type Prober interface {
	GetMediaMetadata(path string) (*ffmpegWrap.Metadata, error)
	Forget(path string)
}

// Ref is an opened media input.
type Ref struct {
	Path string
	Role Role
	Meta *ffmpegWrap.Metadata

	prober Prober
	input  *ffmpeg.Stream
}

// Input returns the ffmpeg input node for the reference, created on first use.
func (r *Ref) Input() *ffmpeg.Stream {
	if r.input == nil {
		r.input = ffmpeg.Input(r.Path, r.inputArgs())
	}
	return r.input
}

// inputArgs forces libvpx decoding for VP8/VP9 sources with an alpha
// channel; ffmpeg's native decoders drop it.
func (r *Ref) inputArgs() ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{}
	if !r.Meta.HasAlpha {
		return kwargs
	}
	switch r.Meta.Codec {
	case "vp9":
		kwargs["c:v"] = "libvpx-vp9"
	case "vp8":
		kwargs["c:v"] = "libvpx"
	}
	return kwargs
}

func (r *Ref) Close() error {
	r.prober.Forget(r.Path)
	r.input = nil
	return nil
}

// Set tracks every resource acquired during a run and releases them in
// reverse order on Close.
type Set struct {
	prober  Prober
	closers []func() error
}

func NewSet(prober Prober) *Set {
	return &Set{prober: prober}
}

// Open probes path and checks it can serve role.
func (s *Set) Open(path string, role Role) (*Ref, error) {
	md, err := s.prober.GetMediaMetadata(path)
	if err != nil {
		return nil, errs.LibraryFailure(err, "cannot open %s file %s", role.Value, path)
	}

	if err := validate(path, md, role); err != nil {
		s.prober.Forget(path)
		return nil, err
	}

	ref := &Ref{Path: path, Role: role, Meta: md, prober: s.prober}
	s.OnClose(ref.Close)
	return ref, nil
}

// OnClose registers fn to run when the set is closed.
func (s *Set) OnClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Close releases everything registered, newest first. Every closer runs;
// the first error is returned.
func (s *Set) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Printf("Warning: failed to release resource: %v", err)
			if first == nil {
				first = err
			}
		}
	}
	s.closers = nil
	return first
}

func validate(path string, md *ffmpegWrap.Metadata, role Role) error {
	switch role {
	case RoleVideo:
		if !md.HasVideo {
			return errs.LibraryFailure(nil, "%s has no video stream", path)
		}
		if md.Duration <= 0 {
			return errs.LibraryFailure(nil, "could not determine duration of %s", path)
		}
	case RoleAudio:
		if !md.HasAudio {
			return errs.LibraryFailure(nil, "%s has no audio stream", path)
		}
	case RoleReaction, RoleWatermark:
		if !md.HasVideo {
			return errs.LibraryFailure(nil, "%s has no picture to overlay", path)
		}
	}
	return nil
}
