package filler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	r := Analyze("Um, so I was like, you know, thinking. UMM right? Hmm, basically yeah.", "S1")
	assert.Equal(t, "S1", r.SpeakerID)
	assert.Equal(t, map[string]int{
		"um": 3, "so": 1, "like": 1, "you_know": 1, "right": 1, "basically": 1, "yeah": 1,
	}, r.Counts)
	assert.Equal(t, 9, r.Total)
	assert.Equal(t, 13, r.WordCount)
	assert.InDelta(t, 9.0/13*100, r.Ratio, 1e-9)
}

func TestAnalyzeWordBoundaries(t *testing.T) {
	r := Analyze("Umbrella likely someone unlike sort", "S1")
	assert.Zero(t, r.Total)
	assert.Empty(t, r.Counts)
}

func TestRatioZeroWithoutWords(t *testing.T) {
	r := Analyze("", "S1")
	assert.Zero(t, r.WordCount)
	assert.Zero(t, r.Ratio)

	r = Analyze("   \n\t", "S2")
	assert.Zero(t, r.Ratio)
}

func TestSummarize(t *testing.T) {
	rs := []Result{
		{SpeakerID: "S1", Counts: map[string]int{"um": 2, "like": 1}, Total: 3, Ratio: 3},
		{SpeakerID: "S2", Counts: map[string]int{"uh": 4, "so": 2, "right": 1, "yeah": 1, "oh": 1, "er": 1}, Total: 10, Ratio: 5},
		{SpeakerID: "S3", Counts: map[string]int{}, Total: 0, Ratio: 0},
		{SpeakerID: "S4", Counts: map[string]int{"um": 3}, Total: 3, Ratio: 1},
	}
	s := Summarize(rs)
	assert.Equal(t, 16, s.Total)
	assert.InDelta(t, 2.25, s.AverageRatio, 1e-9)
	assert.Equal(t, map[string]int{"um": 5, "uh": 4, "so": 2, "er": 1, "oh": 1}, s.MostCommon)

	require.Len(t, s.Ranking, 4)
	var order []string
	for _, r := range s.Ranking {
		order = append(order, r.SpeakerID)
	}
	assert.Equal(t, []string{"S2", "S1", "S4", "S3"}, order)
	assert.Equal(t, "1. S2 - 10 fillers (5.0%)", s.Insights()[0])
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Empty(t, s.MostCommon)
	assert.Empty(t, s.Insights())
}
