// Package resolver turns command line options into a complete run
// configuration, scanning the working directory for inputs that were not
// given explicitly.
package resolver

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZacxDev/av-merge/internal/config"
	"github.com/ZacxDev/av-merge/internal/errs"
	ffmpegWrap "github.com/ZacxDev/av-merge/internal/ffmpeg"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Extensions in priority order. Earlier entries win over later ones.
var (
	VideoExtensions = []string{"mp4", "mov", "avi", "mkv", "webm"}
	AudioExtensions = []string{"mp3", "wav", "ogg", "aac", "m4a"}
)

// Resolve fills every path in opts that was left empty and validates the
// numeric options.
func Resolve(opts config.Options, enc config.EncoderSettings) (config.Config, error) {
	volume, err := config.NormalizeVolume(opts.Volume, opts.VolumeSet)
	if err != nil {
		return config.Config{}, err
	}

	if err := config.ValidateZoom(opts.Zoom); err != nil {
		return config.Config{}, err
	}

	dir := opts.Dir
	if dir == "" {
		dir, err = os.Getwd()
		if err != nil {
			return config.Config{}, errors.Wrap(err, "error getting working directory")
		}
	}

	cfg := config.Config{
		VideoPath:     opts.VideoPath,
		AudioPath:     opts.AudioPath,
		OutputPath:    opts.OutputPath,
		ReactionPath:  opts.ReactionPath,
		WatermarkPath: opts.WatermarkPath,
		Dir:           dir,
		Volume:        volume,
		Zoom:          opts.Zoom,
		Encoder:       enc,
		Verbose:       opts.Verbose,
		DryRun:        opts.DryRun,
	}

	if cfg.VideoPath == "" {
		exclude := mapset.NewSet(config.ReactionFilename)
		if cfg.ReactionPath != "" && sameDir(filepath.Dir(cfg.ReactionPath), dir) {
			exclude.Add(filepath.Base(cfg.ReactionPath))
		}

		name, err := FindFirstByExtension(dir, VideoExtensions, exclude)
		if err != nil {
			return config.Config{}, err
		}
		if name == "" {
			return config.Config{}, errs.InputNotFound("no video file found in %s (looked for %s)",
				dir, strings.Join(VideoExtensions, ", "))
		}
		cfg.VideoPath = filepath.Join(dir, name)
		log.Printf("Using video file: %s", cfg.VideoPath)
	}

	if cfg.AudioPath == "" {
		name, err := FindFirstByExtension(dir, AudioExtensions, nil)
		if err != nil {
			return config.Config{}, err
		}
		if name == "" {
			return config.Config{}, errs.InputNotFound("no audio file found in %s (looked for %s)",
				dir, strings.Join(AudioExtensions, ", "))
		}
		cfg.AudioPath = filepath.Join(dir, name)
		log.Printf("Using audio file: %s", cfg.AudioPath)
	}

	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath(dir, cfg.VideoPath)
		log.Printf("Output will be saved as: %s", cfg.OutputPath)
	} else {
		cfg.OutputPath = ffmpegWrap.EnsureExtension(cfg.OutputPath, "."+config.DefaultFormat)
	}

	if cfg.WatermarkPath == "" {
		cfg.WatermarkPath = filepath.Join(dir, config.WatermarkFilename)
	}

	return cfg, nil
}

// DefaultOutputPath returns <dir>/<video basename>_merged.mp4.
func DefaultOutputPath(dir, videoPath string) string {
	base := filepath.Base(videoPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+config.MergedSuffix+"."+config.DefaultFormat)
}

// FindFirstByExtension returns the name of the highest-priority regular file
// in dir. Files are ranked by the position of their extension in extensions,
// then by name. Names in exclude are skipped. An empty name means nothing
// matched.
func FindFirstByExtension(dir string, extensions []string, exclude mapset.Set[string]) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errs.InputNotFound("cannot read directory %s: %v", dir, err)
	}

	type candidate struct {
		name string
		rank int
	}
	var candidates []candidate

	for _, entry := range entries {
		name := entry.Name()
		if !isRegularFile(dir, entry) {
			continue
		}
		if exclude != nil && exclude.Contains(name) {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		rank := slices.Index(extensions, ext)
		if rank < 0 {
			continue
		}
		candidates = append(candidates, candidate{name: name, rank: rank})
	}

	if len(candidates) == 0 {
		return "", nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank < candidates[j].rank
		}
		return candidates[i].name < candidates[j].name
	})
	return candidates[0].name, nil
}

// isRegularFile reports whether entry is a regular file or a symlink to one.
func isRegularFile(dir string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.Type().IsRegular()
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
