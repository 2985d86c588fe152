// Package writer encodes a composed clip to its output file.
package writer

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZacxDev/av-merge/internal/compositor"
	"github.com/ZacxDev/av-merge/internal/config"
	"github.com/ZacxDev/av-merge/internal/errs"
	ffmpegWrap "github.com/ZacxDev/av-merge/internal/ffmpeg"
	"github.com/ZacxDev/av-merge/internal/media"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// stderrTailSize bounds how much ffmpeg stderr is kept for error reports.
const stderrTailSize = 4096

// Runner executes a prepared ffmpeg command.
type Runner func(stream *ffmpeg.Stream) error

type Writer struct {
	Encoder config.EncoderSettings
	Verbose bool
	DryRun  bool
	// Out receives user-facing messages.
	Out io.Writer

	run Runner
}

func New(enc config.EncoderSettings, verbose, dryRun bool) *Writer {
	return &Writer{
		Encoder: enc,
		Verbose: verbose,
		DryRun:  dryRun,
		Out:     os.Stdout,
		run: func(stream *ffmpeg.Stream) error {
			return stream.Run()
		},
	}
}

// WithRunner replaces the function that executes ffmpeg.
func (w *Writer) WithRunner(run Runner) *Writer {
	w.run = run
	return w
}

// OutputArgs returns the output options used for outputPath. The output is
// cut to duration seconds when duration is positive.
func (w *Writer) OutputArgs(outputPath string, duration float64) ffmpeg.KwArgs {
	format := ffmpegWrap.FormatForPath(outputPath)
	settings := ffmpegWrap.GetCodecSettings(format)

	kwargs := ffmpegWrap.EncoderArgs(format, w.Encoder.Preset, w.Encoder.CRF)
	kwargs["c:a"] = settings.AudioCodec
	kwargs["b:a"] = w.Encoder.AudioBitrate
	if duration > 0 {
		kwargs["t"] = ffmpegWrap.FormatSeconds(duration)
	}
	return kwargs
}

// Command builds the ffmpeg command writing clip to target with the output
// options for outputPath.
func (w *Writer) Command(clip compositor.Clip, outputPath, target string) *ffmpeg.Stream {
	return w.command(clip, target, w.OutputArgs(outputPath, clip.Duration))
}

func (w *Writer) command(clip compositor.Clip, target string, kwargs ffmpeg.KwArgs) *ffmpeg.Stream {
	return ffmpeg.Output(clip.Streams(), target, kwargs).OverWriteOutput()
}

// Write encodes clip to outputPath. The encode goes to a partial file next to
// the output, which is renamed into place once ffmpeg succeeds. The partial
// file is registered with set so it is removed on every exit path.
func (w *Writer) Write(set *media.Set, clip compositor.Clip, outputPath string) error {
	if w.DryRun {
		args := w.Command(clip, outputPath, outputPath).GetArgs()
		fmt.Fprintf(w.Out, "ffmpeg %s\n", strings.Join(args, " "))
		return nil
	}

	ensureOutputDir(outputPath)

	partial := PartialPath(outputPath)
	set.OnClose(func() error {
		if err := os.Remove(partial); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "error removing partial output %s", partial)
		}
		return nil
	})

	tail := newTailBuffer(stderrTailSize)
	kwargs := w.OutputArgs(outputPath, clip.Duration)

	var stream *ffmpeg.Stream
	if w.Verbose {
		progress := ffmpegWrap.NewProgressWriter(clip.Duration, func(p ffmpegWrap.Progress) {
			log.Printf("Progress: %.1f%% (%s / %s, speed %s)\n", p.Percent,
				ffmpegWrap.FormatSeconds(p.CurrentSeconds), ffmpegWrap.FormatSeconds(p.TotalSeconds), p.Speed)
		})
		kwargs["progress"] = "pipe:1"
		stream = w.command(clip, partial, kwargs)
		log.Printf("Running: ffmpeg %s\n", strings.Join(stream.GetArgs(), " "))
		stream = stream.WithOutput(progress).WithErrorOutput(io.MultiWriter(os.Stderr, tail))
	} else {
		stream = w.command(clip, partial, kwargs).WithErrorOutput(tail)
	}

	if err := w.run(stream); err != nil {
		return errs.LibraryFailure(err, "ffmpeg failed writing %s: %v\n%s", outputPath, err, tail.String())
	}

	if err := os.Rename(partial, outputPath); err != nil {
		return errors.Wrapf(err, "error moving %s into place", outputPath)
	}

	fmt.Fprintf(w.Out, "Video successfully created: %s\n", outputPath)
	return nil
}

// PartialPath returns a unique sibling of outputPath with the same extension,
// so ffmpeg still picks the right muxer.
func PartialPath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	id := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return strings.TrimSuffix(outputPath, ext) + ".part-" + id + ext
}

func ensureOutputDir(path string) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			// the encode will fail with a clearer error
			log.Printf("Warning: failed to create directory %s: %v", dir, err)
		}
	}
}
