// Package merger cleans raw diarization output into a sorted,
// non-overlapping list of speaker segments.
package merger

import (
	"sort"

	"github.com/maastricht-university/meeting-engagement/config"
	"github.com/maastricht-university/meeting-engagement/model"
)

// DefaultConfidence stands in for a confidence the diarizer did not report.
const DefaultConfidence = 0.9

type Merger struct {
	minDuration float64
	maxGap      float64
}

func New(c config.Merger) *Merger {
	return &Merger{minDuration: c.MinSpeakerDuration, maxGap: c.MaxMergeGap}
}

// Merge drops fragments shorter than the minimum speaker duration, sorts the
// rest by start and joins same-speaker neighbours separated by at most the
// merge gap. A segment that starts inside the previous one of another
// speaker is clipped to begin where that one ends. The input is not
// modified.
func (m *Merger) Merge(segs []model.SpeakerSegment) []model.SpeakerSegment {
	kept := make([]model.SpeakerSegment, 0, len(segs))
	for _, s := range segs {
		if s.Duration() < m.minDuration {
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return []model.SpeakerSegment{}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })

	out := make([]model.SpeakerSegment, 0, len(kept))
	cur := kept[0]
	for _, next := range kept[1:] {
		if next.SpeakerID == cur.SpeakerID && next.Start-cur.End <= m.maxGap {
			cur.End = max(cur.End, next.End)
			cur.Confidence = maxConfidence(cur.Confidence, next.Confidence)
			continue
		}
		if next.Start < cur.End {
			if next.End <= cur.End {
				continue
			}
			next.Start = cur.End
		}
		out = append(out, cur)
		cur = next
	}
	return append(out, cur)
}

func maxConfidence(a, b *float64) *float64 {
	if a == nil && b == nil {
		return nil
	}
	ca := model.SpeakerSegment{Confidence: a}.ConfidenceOr(DefaultConfidence)
	cb := model.SpeakerSegment{Confidence: b}.ConfidenceOr(DefaultConfidence)
	return model.Confidence(max(ca, cb))
}
