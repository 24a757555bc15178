// Package audiotest builds synthetic recordings for tests.
package audiotest

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Tone returns dur seconds of a sine wave at freq Hz.
func Tone(freq, amp, dur float64, sampleRate int) []float64 {
	n := int(dur * float64(sampleRate))
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

// Silence returns dur seconds of digital silence.
func Silence(dur float64, sampleRate int) []float64 {
	return make([]float64, int(dur*float64(sampleRate)))
}

// Noise returns dur seconds of uniform white noise, seeded for repeatability.
func Noise(amp, dur float64, sampleRate int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, int(dur*float64(sampleRate)))
	for i := range out {
		out[i] = amp * (2*r.Float64() - 1)
	}
	return out
}

func Concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// WriteWAV writes samples as a 16-bit mono PCM file under t.TempDir and
// returns its path.
func WriteWAV(t testing.TB, name string, samples []float64, sampleRate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	data := make([]int, len(samples))
	for i, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		data[i] = int(s * 32767)
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}
