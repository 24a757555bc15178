// Package metrics turns speaker segments and per-speaker analyses into the
// meeting engagement record.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/maastricht-university/meeting-engagement/model"
)

// Balance selects how participation balance is scored.
type Balance string

const (
	// BalanceEven scores how far the largest share sits from an even split:
	// 100 when every speaker has 100/n percent, 0 when one speaker has it all.
	// A single-speaker meeting therefore scores 0 balance.
	BalanceEven Balance = "even"
	// BalancePeak scores 100 - |100 - max share|.
	BalancePeak Balance = "peak"
)

func ParseBalance(s string) (Balance, error) {
	switch Balance(s) {
	case BalanceEven, BalancePeak:
		return Balance(s), nil
	case "":
		return BalanceEven, nil
	}
	return "", fmt.Errorf("unknown balance mode %q", s)
}

// Speakers lists speaker ids in order of first appearance.
func Speakers(segs []model.SpeakerSegment) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range segs {
		if !seen[s.SpeakerID] {
			seen[s.SpeakerID] = true
			out = append(out, s.SpeakerID)
		}
	}
	return out
}

// TalkTime sums segment durations per speaker.
func TalkTime(segs []model.SpeakerSegment) map[string]float64 {
	out := make(map[string]float64)
	for _, s := range segs {
		out[s.SpeakerID] += s.Duration()
	}
	return out
}

// Participation gives each speaker's share of the total talk time in
// percent, rounded to two decimals; every share is 0 when nobody talked.
func Participation(talk map[string]float64) map[string]float64 {
	var total float64
	for _, v := range talk {
		total += v
	}
	out := make(map[string]float64, len(talk))
	for id, v := range talk {
		if total > 0 {
			out[id] = Round2(v / total * 100)
		} else {
			out[id] = 0
		}
	}
	return out
}

// TurnCount counts adjacent segments, in time order, whose speakers differ.
func TurnCount(segs []model.SpeakerSegment) int {
	n := 0
	for i := 1; i < len(segs); i++ {
		if segs[i].SpeakerID != segs[i-1].SpeakerID {
			n++
		}
	}
	return n
}

// TurnTakingFrequency is turns per minute, rounded to two decimals.
func TurnTakingFrequency(turns int, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return Round2(float64(turns) / (duration / 60))
}

// EngagementScore blends participation balance (40%) and turn-taking
// rate (60%, saturating at two turns per minute). The result is in [0, 100].
func EngagementScore(participation map[string]float64, turnFreq float64, mode Balance) float64 {
	if len(participation) == 0 {
		return 0
	}
	turnScore := math.Min(100, math.Max(0, turnFreq/2*100))
	score := 0.4*balanceScore(participation, mode) + 0.6*turnScore
	return Round2(clamp(score, 0, 100))
}

func balanceScore(participation map[string]float64, mode Balance) float64 {
	shares := make([]float64, 0, len(participation))
	for _, v := range participation {
		shares = append(shares, v)
	}
	peak := floats.Max(shares)
	if mode == BalancePeak {
		return clamp(100-math.Abs(100-peak), 0, 100)
	}
	n := float64(len(shares))
	if n < 2 || floats.Sum(shares) == 0 {
		return 0
	}
	ideal := 100 / n
	return clamp(100*(1-(peak-ideal)/(100-ideal)), 0, 100)
}

// SpeakerEngagement weighs sentiment engagement at one half, and the absence
// of fillers and of silence at one quarter each.
func SpeakerEngagement(sentimentEngagement, fillerRatio, silencePct float64) float64 {
	fillerScore := 100 - math.Min(100, fillerRatio*10)
	silenceScore := 100 - clamp(silencePct, 0, 100)
	return Round2(clamp(0.5*sentimentEngagement+0.25*fillerScore+0.25*silenceScore, 0, 100))
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
