// Package align attaches transcript text to diarized speaker segments by
// temporal overlap.
package align

import (
	"sort"
	"strings"

	"github.com/maastricht-university/meeting-engagement/model"
)

// MinOverlapPct is the share of a speaker segment a transcript segment must
// cover to be attributed to it.
const MinOverlapPct = 50.0

// Aligned is a speaker segment with the transcript text spoken in it.
type Aligned struct {
	model.SpeakerSegment
	Text      string
	WordCount int
}

// Align returns one Aligned per speaker segment, in input order. Every
// transcript segment covering more than half of a speaker segment
// contributes its trimmed text, in chronological order. When none does, the
// transcript segment starting closest to the speaker segment is used; on a
// tie the one appearing first in transcript wins.
func Align(speakers []model.SpeakerSegment, transcript []model.TranscriptSegment) []Aligned {
	ts := make([]model.TranscriptSegment, len(transcript))
	copy(ts, transcript)
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].Start < ts[j].Start })

	out := make([]Aligned, 0, len(speakers))
	for _, s := range speakers {
		text := matchOverlap(s, ts)
		if text == "" {
			text = closest(s, transcript)
		}
		out = append(out, Aligned{SpeakerSegment: s, Text: text, WordCount: len(strings.Fields(text))})
	}
	return out
}

func matchOverlap(s model.SpeakerSegment, ts []model.TranscriptSegment) string {
	dur := s.Duration()
	if dur <= 0 {
		return ""
	}
	var parts []string
	for _, t := range ts {
		overlap := min(s.End, t.End) - max(s.Start, t.Start)
		if overlap <= 0 {
			continue
		}
		text := strings.TrimSpace(t.Text)
		if overlap/dur*100 > MinOverlapPct && text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func closest(s model.SpeakerSegment, ts []model.TranscriptSegment) string {
	best, bestDist := -1, 0.0
	for i, t := range ts {
		d := s.Start - t.Start
		if d < 0 {
			d = -d
		}
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return ""
	}
	return strings.TrimSpace(ts[best].Text)
}
