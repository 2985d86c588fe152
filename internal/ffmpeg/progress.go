package ffmpeg

import (
	"bytes"
	"strconv"
	"strings"
)

type ProgressCallback func(Progress)

// Progress is one block of ffmpeg's -progress output.
type Progress struct {
	Percent        float64
	CurrentSeconds float64
	TotalSeconds   float64
	Speed          string
	Done           bool
}

// ProgressWriter parses the key=value lines ffmpeg writes with
// "-progress pipe:1" and reports each completed block to a callback.
type ProgressWriter struct {
	cb       ProgressCallback
	pending  bytes.Buffer
	progress Progress
}

// NewProgressWriter returns a writer reporting progress against totalSeconds.
func NewProgressWriter(totalSeconds float64, cb ProgressCallback) *ProgressWriter {
	return &ProgressWriter{
		cb:       cb,
		progress: Progress{TotalSeconds: totalSeconds},
	}
}

func (w *ProgressWriter) Write(p []byte) (int, error) {
	w.pending.Write(p)
	for {
		line, err := w.pending.ReadString('\n')
		if err != nil {
			// incomplete line, keep it for the next write
			w.pending.Reset()
			w.pending.WriteString(line)
			break
		}
		w.parseLine(strings.TrimSpace(line))
	}
	return len(p), nil
}

func (w *ProgressWriter) parseLine(line string) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return
	}

	switch key {
	case "out_time_us", "out_time_ms":
		// out_time_ms is in microseconds as well
		us, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return
		}
		w.progress.CurrentSeconds = us / 1000 / 1000
		if w.progress.TotalSeconds > 0 {
			w.progress.Percent = w.progress.CurrentSeconds / w.progress.TotalSeconds * 100
			if w.progress.Percent > 100 {
				w.progress.Percent = 100
			}
		}
	case "speed":
		w.progress.Speed = value
	case "progress":
		if value == "end" {
			w.progress.Percent = 100
			w.progress.Done = true
		}
		if w.cb != nil {
			w.cb(w.progress)
		}
	}
}
