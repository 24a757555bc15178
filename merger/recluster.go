package merger

import (
	"fmt"

	"github.com/maastricht-university/meeting-engagement/audio"
	"github.com/maastricht-university/meeting-engagement/model"
)

// Reclusterer relabels speaker segments by voice similarity. It is an
// optional refinement run after Merge; the diarizer's labels are discarded.
type Reclusterer struct {
	Threshold float64
}

func NewReclusterer(threshold float64) *Reclusterer {
	return &Reclusterer{Threshold: threshold}
}

type cluster struct {
	centroid []float64
	size     int
	sealed   bool // built from a segment without samples
}

// Recluster assigns every segment, in order, to the cluster whose centroid is
// nearest and closer than the threshold, or opens a new cluster. Equal
// distances go to the older cluster. Centroids are running means of their
// members. Segments whose waveform slice is empty get a cluster of their own
// that nothing else joins. Clusters are named Speaker_1, Speaker_2, ... in
// the order they were opened. Fewer than two segments are returned as is.
func (r *Reclusterer) Recluster(segs []model.SpeakerSegment, wave *audio.Waveform) []model.SpeakerSegment {
	out := make([]model.SpeakerSegment, len(segs))
	copy(out, segs)
	if len(segs) < 2 || wave == nil {
		return out
	}

	var clusters []*cluster
	for i, s := range out {
		f := audio.ExtractVoiceFeatures(wave.Slice(s.Start, s.End), wave.SampleRate)
		v := f.Vector()

		best, bestDist := -1, r.Threshold
		if !f.Empty {
			for ci, c := range clusters {
				if c.sealed {
					continue
				}
				if d := audio.Distance(v, c.centroid); d < bestDist {
					best, bestDist = ci, d
				}
			}
		}
		if best < 0 {
			clusters = append(clusters, &cluster{centroid: v, size: 1, sealed: f.Empty})
			best = len(clusters) - 1
		} else {
			clusters[best].add(v)
		}
		out[i].SpeakerID = fmt.Sprintf("Speaker_%d", best+1)
	}
	return out
}

func (c *cluster) add(v []float64) {
	c.size++
	n := float64(c.size)
	for i := range c.centroid {
		c.centroid[i] += (v[i] - c.centroid[i]) / n
	}
}
