// Package audio loads recordings as 16 kHz mono sample buffers and computes
// the frame-level measurements the analyzers share.
package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

const DefaultSampleRate = 16000

// Waveform is a mono recording with samples in [-1, 1].
type Waveform struct {
	Samples    []float64
	SampleRate int
}

func (w *Waveform) Duration() float64 {
	if w == nil || w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Slice returns the samples between start and end seconds, clamped to the
// recording. It never copies.
func (w *Waveform) Slice(start, end float64) []float64 {
	if w == nil || w.SampleRate <= 0 || end <= start {
		return nil
	}
	lo := int(math.Max(0, start) * float64(w.SampleRate))
	hi := int(end * float64(w.SampleRate))
	if hi > len(w.Samples) {
		hi = len(w.Samples)
	}
	if lo >= hi {
		return nil
	}
	return w.Samples[lo:hi]
}

// Load decodes a wav or mp3 file, downmixes it to mono and resamples it to
// sampleRate.
func Load(path string, sampleRate int) (*Waveform, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		streamer, format, err = wav.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	target := beep.SampleRate(sampleRate)
	if format.SampleRate != target {
		s = beep.Resample(4, format.SampleRate, target, streamer)
	}

	samples := make([]float64, 0, streamer.Len())
	buf := make([][2]float64, 4096)
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			samples = append(samples, (buf[i][0]+buf[i][1])/2)
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("stream %s: %w", filepath.Base(path), err)
	}
	return &Waveform{Samples: samples, SampleRate: sampleRate}, nil
}
