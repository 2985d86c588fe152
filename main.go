package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ZacxDev/av-merge/internal/config"
	"github.com/ZacxDev/av-merge/internal/pipeline"
	"github.com/ZacxDev/av-merge/internal/resolver"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "av-merge",
	Short: "Merge a video with a separate audio track",
	Long: fmt.Sprintf(`av-merge replaces the audio of a video with a separate track, optionally
zooming into the frame, overlaying a reaction clip in the bottom-left corner
and a watermark in the top-right corner.

Inputs not given on the command line are picked from the working directory.
Video extensions, in priority order: %s (%s is never picked).
Audio extensions, in priority order: %s.
A %s in the working directory is used as watermark.

Encoder tuning is read from the environment or a .env file:
  AVMERGE_PRESET         x264 preset (default %s)
  AVMERGE_CRF            quality, %d-%d (default %d)
  AVMERGE_AUDIO_BITRATE  audio bitrate (default %s)

Examples:
  # Merge the first video and audio found in the current directory
  av-merge

  # Quieter music, slight zoom and a reaction clip
  av-merge -v talk.mp4 -a music.mp3 -vol 40 -z 1.2 -r reaction.webm`,
		strings.Join(resolver.VideoExtensions, ", "), config.ReactionFilename,
		strings.Join(resolver.AudioExtensions, ", "), config.WatermarkFilename,
		config.DefaultPreset, config.MinCRF, config.MaxCRF, config.DefaultCRF, config.DefaultAudioBitrate),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := config.Options{}

		opts.VideoPath, _ = cmd.Flags().GetString("video")
		opts.AudioPath, _ = cmd.Flags().GetString("audio")
		opts.OutputPath, _ = cmd.Flags().GetString("output")
		opts.ReactionPath, _ = cmd.Flags().GetString("reaction")
		opts.WatermarkPath, _ = cmd.Flags().GetString("watermark")
		opts.Dir, _ = cmd.Flags().GetString("dir")
		opts.Volume, _ = cmd.Flags().GetFloat64("volume")
		opts.VolumeSet = cmd.Flags().Changed("volume")
		opts.Zoom, _ = cmd.Flags().GetFloat64("zoom")
		opts.Verbose, _ = cmd.Flags().GetBool("verbose")
		opts.DryRun, _ = cmd.Flags().GetBool("dry-run")

		enc, err := config.LoadEncoderSettings()
		if err != nil {
			return err
		}

		cfg, err := resolver.Resolve(opts, enc)
		if err != nil {
			return err
		}

		if cfg.Verbose {
			log.Printf("Resolved configuration:\n%s", spew.Sdump(cfg))
		}

		return pipeline.New(cfg).Run()
	},
}

func init() {
	rootCmd.Flags().StringP("video", "v", "", "Input video file (default: first video in --dir)")
	rootCmd.Flags().StringP("audio", "a", "", "Input audio file (default: first audio in --dir)")
	rootCmd.Flags().StringP("output", "o", "", "Output file (default: <video>_merged.mp4)")
	rootCmd.Flags().Float64("volume", config.DefaultVolumePercent, "Audio volume in percent, also accepted as -vol (100 = unchanged, 0 = silent)")
	rootCmd.Flags().StringP("reaction", "r", "", "Reaction video overlaid in the bottom-left corner")
	rootCmd.Flags().StringP("watermark", "w", "", "Watermark image overlaid in the top-right corner (default: <dir>/"+config.WatermarkFilename+")")
	rootCmd.Flags().Float64P("zoom", "z", config.DefaultZoom, "Zoom factor, >1 crops into the centre, <1 zooms out")
	rootCmd.Flags().StringP("dir", "d", "", "Directory scanned for inputs (default: current directory)")
	rootCmd.Flags().Bool("dry-run", false, "Print the ffmpeg command without running it")
	rootCmd.Flags().Bool("verbose", false, "Enable verbose logging")
}

// normalizeLegacyFlags rewrites the single-dash -vol flag to --volume, which
// pflag cannot express as a shorthand.
func normalizeLegacyFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		switch {
		case arg == "-vol":
			out = append(out, "--volume")
		case strings.HasPrefix(arg, "-vol="):
			out = append(out, "--volume="+strings.TrimPrefix(arg, "-vol="))
		default:
			out = append(out, arg)
		}
	}
	return out
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	rootCmd.SetArgs(normalizeLegacyFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
