package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/meeting-engagement/model"
)

func spk(start, end float64, id string) model.SpeakerSegment {
	return model.SpeakerSegment{Start: start, End: end, SpeakerID: id}
}

func tr(start, end float64, text string) model.TranscriptSegment {
	return model.TranscriptSegment{Start: start, End: end, Text: text}
}

func TestAlignOverlap(t *testing.T) {
	speakers := []model.SpeakerSegment{spk(0, 4, "S1"), spk(4, 10, "S2")}
	transcript := []model.TranscriptSegment{
		tr(7, 10, " and the second half "),
		tr(0, 4, "hello everyone"),
		tr(4, 7, "this is the first half"),
	}
	got := Align(speakers, transcript)
	require.Len(t, got, 2)
	assert.Equal(t, "hello everyone", got[0].Text)
	assert.Equal(t, 2, got[0].WordCount)
	assert.Equal(t, "S1", got[0].SpeakerID)
	// each half covers exactly 50% of S2, which is not enough; the closest
	// start wins instead
	assert.Equal(t, "this is the first half", got[1].Text)
}

func TestAlignJoinsChronologically(t *testing.T) {
	speakers := []model.SpeakerSegment{spk(0, 2, "S1")}
	transcript := []model.TranscriptSegment{
		tr(0.5, 2, "world"),
		tr(0, 1.8, "hello"),
		tr(0, 2, "   "),
	}
	got := Align(speakers, transcript)
	assert.Equal(t, "hello world", got[0].Text)
	assert.Equal(t, 2, got[0].WordCount)
}

func TestAlignFallbackTieFirstWins(t *testing.T) {
	speakers := []model.SpeakerSegment{spk(5, 6, "S1")}
	transcript := []model.TranscriptSegment{tr(3, 3.5, "before"), tr(7, 7.5, "after")}
	got := Align(speakers, transcript)
	assert.Equal(t, "before", got[0].Text)
}

func TestAlignFallbackTieKeepsInputOrder(t *testing.T) {
	speakers := []model.SpeakerSegment{spk(5, 6, "S1")}
	transcript := []model.TranscriptSegment{tr(7, 7.5, "after"), tr(3, 3.5, "before")}
	got := Align(speakers, transcript)
	assert.Equal(t, "after", got[0].Text)
}

func TestAlignEmptyTranscript(t *testing.T) {
	got := Align([]model.SpeakerSegment{spk(0, 1, "S1")}, nil)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Text)
	assert.Zero(t, got[0].WordCount)
	assert.Empty(t, Align(nil, []model.TranscriptSegment{tr(0, 1, "x")}))
}

func TestBySpeaker(t *testing.T) {
	aligned := []Aligned{
		{SpeakerSegment: spk(0, 1, "S2"), Text: "Is everyone here?", WordCount: 3},
		{SpeakerSegment: spk(1, 2, "S1"), Text: "", WordCount: 0},
		{SpeakerSegment: spk(2, 3, "S2"), Text: "Let's discuss the assignment.", WordCount: 4},
	}
	st := BySpeaker(aligned)
	assert.Equal(t, []string{"S2", "S1"}, st.IDs())

	s2 := st.Get("S2")
	assert.Equal(t, "Is everyone here? Let's discuss the assignment.", s2.Transcript)
	assert.Equal(t, 7, s2.WordCount)
	assert.Len(t, s2.Segments, 2)
	assert.Equal(t, 1, s2.Stats.Questions)
	assert.Equal(t, []string{"assignment", "discuss", "everyone"}, s2.Stats.Keywords)

	s1 := st.Get("S1")
	assert.Empty(t, s1.Transcript)
	assert.Zero(t, s1.Stats.Words)
	assert.Equal(t, "S9", st.Get("S9").SpeakerID)
}

func TestStats(t *testing.T) {
	s := Stats("Which which WHICH students students? Students, wonderful")
	assert.Equal(t, 7, s.Words)
	assert.Equal(t, 5, s.UniqueWords) // which, students, students?, students,, wonderful
	assert.Equal(t, 1, s.Questions)
	assert.Equal(t, []string{"students", "wonderful"}, s.Keywords)

	long := Stats("alphabet1 alphabet2 alphabet3 alphabet4 alphabet5 alphabet6 alphabet7 alphabet8 alphabet9 alphabetA alphabetB")
	assert.Len(t, long.Keywords, 10)
	assert.Equal(t, "alphabet1", long.Keywords[0])
	assert.Equal(t, TextStats{}, Stats("  "))
}
