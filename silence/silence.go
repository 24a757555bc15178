// Package silence finds pauses in a recording from short-time frame energy.
package silence

import (
	"math"

	"github.com/maastricht-university/meeting-engagement/audio"
	"github.com/maastricht-university/meeting-engagement/config"
	"github.com/maastricht-university/meeting-engagement/model"
)

const eps = 1e-9

// Result describes the silence inside one time window, or inside all windows
// of one speaker when built by Combine.
type Result struct {
	Window               float64 // sec analysed
	TotalSilenceDuration float64
	SilencePercentage    float64
	PauseCount           int
	AveragePauseDuration float64
	LongestPause         float64
	Intervals            []model.SilenceInterval
}

type Analyzer struct {
	frameMs    int
	relativeDB float64
	floorDB    float64
	minPause   float64
}

func New(c config.Silence) *Analyzer {
	return &Analyzer{
		frameMs:    c.FrameMs,
		relativeDB: c.ThresholdDB,
		floorDB:    c.AbsoluteFloorDB,
		minPause:   c.MinPause,
	}
}

// Analyze scans [start, end] of wave in non-overlapping frames. A frame is
// silent when its energy is more than the threshold below the loudest frame
// of the window, or below the absolute floor. Runs of silent frames shorter
// than the minimum pause are dropped; a run reaching the end of the window is
// closed at the window end. The window is clamped to the recording, and an
// empty window yields a zero Result.
func (a *Analyzer) Analyze(wave *audio.Waveform, start, end float64) Result {
	start = math.Max(0, start)
	end = math.Min(end, wave.Duration())
	samples := wave.Slice(start, end)
	if end <= start || len(samples) == 0 || a.frameMs <= 0 {
		return Result{}
	}

	frame := wave.SampleRate * a.frameMs / 1000
	if frame <= 0 {
		frame = 1
	}
	frameDur := float64(frame) / float64(wave.SampleRate)
	energy := audio.FrameEnergyDB(samples, frame)
	peak := math.Inf(-1)
	for _, e := range energy {
		peak = math.Max(peak, e)
	}

	var intervals []model.SilenceInterval
	closeRun := func(from, to int) {
		s := start + float64(from)*frameDur
		e := math.Min(start+float64(to)*frameDur, end)
		if to == len(energy) {
			e = end
		}
		if e-s+eps >= a.minPause {
			intervals = append(intervals, model.SilenceInterval{Start: s, End: e, Duration: e - s})
		}
	}
	run := -1
	for i, e := range energy {
		silent := e < peak+a.relativeDB || e < a.floorDB
		switch {
		case silent && run < 0:
			run = i
		case !silent && run >= 0:
			closeRun(run, i)
			run = -1
		}
	}
	if run >= 0 {
		closeRun(run, len(energy))
	}
	return summarise(end-start, intervals)
}

// AnalyzeSegments runs Analyze over every segment and combines the results.
func (a *Analyzer) AnalyzeSegments(wave *audio.Waveform, segs []model.SpeakerSegment) Result {
	rs := make([]Result, 0, len(segs))
	for _, s := range segs {
		rs = append(rs, a.Analyze(wave, s.Start, s.End))
	}
	return Combine(rs...)
}

// Combine merges per-window results. The silence percentage is taken over
// the summed window length.
func Combine(rs ...Result) Result {
	var (
		window    float64
		intervals []model.SilenceInterval
	)
	for _, r := range rs {
		window += r.Window
		intervals = append(intervals, r.Intervals...)
	}
	return summarise(window, intervals)
}

func summarise(window float64, intervals []model.SilenceInterval) Result {
	r := Result{Window: window, Intervals: intervals, PauseCount: len(intervals)}
	for _, iv := range intervals {
		r.TotalSilenceDuration += iv.Duration
		r.LongestPause = math.Max(r.LongestPause, iv.Duration)
	}
	if r.PauseCount > 0 {
		r.AveragePauseDuration = r.TotalSilenceDuration / float64(r.PauseCount)
	}
	if window > 0 {
		r.SilencePercentage = r.TotalSilenceDuration / window * 100
	}
	return r
}
