package silence

import (
	"fmt"
	"sort"

	"github.com/maastricht-university/meeting-engagement/model"
)

// SpeakerResult is one speaker's combined silence.
type SpeakerResult struct {
	SpeakerID string
	Result
}

// PauseSummary is the meeting-level view of pauses. OverallSilencePercentage
// is left for the caller, who owns the whole-recording analysis.
type PauseSummary struct {
	model.PauseStatistics
	Insights []string
}

// Summarize ranks speakers by pause count, most first, and picks the speakers
// with the most and the least total silence. Ties keep the input order.
func Summarize(rs []SpeakerResult) PauseSummary {
	out := PauseSummary{PauseStatistics: model.PauseStatistics{SpeakerPauseRanking: []model.PauseRank{}}}
	if len(rs) == 0 {
		return out
	}

	var pauses int
	quietest, chattiest := rs[0], rs[0]
	for _, r := range rs {
		out.TotalSilenceTime += r.TotalSilenceDuration
		pauses += r.PauseCount
		if r.TotalSilenceDuration > quietest.TotalSilenceDuration {
			quietest = r
		}
		if r.TotalSilenceDuration < chattiest.TotalSilenceDuration {
			chattiest = r
		}
		out.Insights = append(out.Insights, insights(r)...)
	}
	out.AveragePauseCount = float64(pauses) / float64(len(rs))
	out.QuietestSpeaker = quietest.SpeakerID
	out.MostConversational = chattiest.SpeakerID

	ranked := make([]SpeakerResult, len(rs))
	copy(ranked, rs)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].PauseCount > ranked[j].PauseCount })
	for _, r := range ranked {
		out.SpeakerPauseRanking = append(out.SpeakerPauseRanking, model.PauseRank{
			SpeakerID:        r.SpeakerID,
			PauseCount:       r.PauseCount,
			AvgPauseDuration: r.AveragePauseDuration,
			TotalSilence:     r.TotalSilenceDuration,
		})
	}
	return out
}

func insights(r SpeakerResult) []string {
	switch {
	case r.SilencePercentage > 40:
		return []string{fmt.Sprintf("%s: Very high silence (%.1f%%) - may indicate low engagement", r.SpeakerID, r.SilencePercentage)}
	case r.SilencePercentage > 25:
		return []string{fmt.Sprintf("%s: High silence (%.1f%%) - natural pauses", r.SpeakerID, r.SilencePercentage)}
	case r.AveragePauseDuration > 3:
		return []string{fmt.Sprintf("%s: Long average pauses (%.1fs) - thinking/processing", r.SpeakerID, r.AveragePauseDuration)}
	}
	return nil
}
