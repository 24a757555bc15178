package sentiment

import (
	"fmt"
	"sort"
)

// Emotional tones of a meeting.
const (
	ToneEngaged   = "engaged_and_positive"
	ToneConcerned = "concerned_or_frustrated"
	ToneCalm      = "calm_and_neutral"
)

type EngagementRank struct {
	SpeakerID  string
	Engagement float64
	Label      string
}

type Summary struct {
	AveragePolarity float64
	Overall         string
	Distribution    map[string]int
	Tone            string
	Ranking         []EngagementRank
	Insights        []string
}

// Summarize aggregates per-speaker results. The tone follows the most common
// dominant emotion; on a tie the one seen first wins.
func Summarize(rs []Result) Summary {
	s := Summary{Overall: Neutral, Distribution: map[string]int{}, Tone: ToneCalm, Ranking: []EngagementRank{}}
	if len(rs) == 0 {
		return s
	}

	var sum float64
	emotions := map[string]int{}
	var seen []string
	for _, r := range rs {
		sum += r.Polarity
		s.Distribution[r.Label]++
		if emotions[r.DominantEmotion] == 0 {
			seen = append(seen, r.DominantEmotion)
		}
		emotions[r.DominantEmotion]++
		s.Ranking = append(s.Ranking, EngagementRank{SpeakerID: r.SpeakerID, Engagement: r.Engagement, Label: r.Label})

		switch {
		case r.Polarity > 0.5:
			s.Insights = append(s.Insights, fmt.Sprintf("%s: Highly positive and enthusiastic", r.SpeakerID))
		case r.Polarity < -0.5:
			s.Insights = append(s.Insights, fmt.Sprintf("%s: Negative tone detected - may indicate frustration", r.SpeakerID))
		}
		switch {
		case r.Engagement > 70:
			s.Insights = append(s.Insights, fmt.Sprintf("%s: Very engaged and interactive", r.SpeakerID))
		case r.Engagement < 30:
			s.Insights = append(s.Insights, fmt.Sprintf("%s: Limited engagement markers", r.SpeakerID))
		}
	}

	s.AveragePolarity = sum / float64(len(rs))
	switch {
	case s.AveragePolarity > 0.2:
		s.Overall = Positive
	case s.AveragePolarity < -0.2:
		s.Overall = Negative
	}

	dominant := seen[0]
	for _, e := range seen[1:] {
		if emotions[e] > emotions[dominant] {
			dominant = e
		}
	}
	switch dominant {
	case Positive:
		s.Tone = ToneEngaged
	case Negative:
		s.Tone = ToneConcerned
	}

	sort.SliceStable(s.Ranking, func(i, j int) bool { return s.Ranking[i].Engagement > s.Ranking[j].Engagement })
	return s
}
