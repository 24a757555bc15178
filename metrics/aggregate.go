package metrics

import (
	"fmt"
	"time"

	"github.com/maastricht-university/meeting-engagement/align"
	"github.com/maastricht-university/meeting-engagement/filler"
	"github.com/maastricht-university/meeting-engagement/merger"
	"github.com/maastricht-university/meeting-engagement/model"
	"github.com/maastricht-university/meeting-engagement/sentiment"
	"github.com/maastricht-university/meeting-engagement/silence"
)

// SpeakerInput is everything the analyzers produced for one speaker.
type SpeakerInput struct {
	Text      align.SpeakerText
	Filler    filler.Result
	Silence   silence.Result
	Sentiment sentiment.Result
}

type Input struct {
	MeetingID     string
	SourceType    model.SourceType
	AudioFileName string
	Language      string
	Duration      float64 // sec
	CreatedAt     time.Time

	Segments   []model.SpeakerSegment // merged, time ordered
	Transcript string
	Speakers   map[string]SpeakerInput
	// Recording is the silence over the whole recording.
	Recording silence.Result
	Balance   Balance
}

const (
	maxMeetingFillers   = 50
	lowMeetingScore     = 40.0
	dominantShare       = 70.0
	lowSpeakerEngage    = 30.0
	highSpeakerFillerPc = 5.0
)

// Aggregate builds the meeting record in one pass over the speakers, in
// order of first appearance. An empty segment list yields zero metrics.
func Aggregate(in Input) *model.MeetingAnalysis {
	ids := Speakers(in.Segments)
	talk := TalkTime(in.Segments)
	part := Participation(talk)
	turns := TurnCount(in.Segments)
	freq := TurnTakingFrequency(turns, in.Duration)

	out := &model.MeetingAnalysis{
		MeetingID:            in.MeetingID,
		SourceType:           in.SourceType,
		Duration:             Round2(in.Duration),
		Language:             in.Language,
		AudioFileName:        in.AudioFileName,
		CreatedAt:            in.CreatedAt,
		Segments:             append([]model.SpeakerSegment{}, in.Segments...),
		Speakers:             append([]string{}, ids...),
		EngagementScore:      EngagementScore(part, freq, in.Balance),
		SpeakerTalkTime:      talk,
		SpeakerParticipation: part,
		TurnTakingFrequency:  freq,
		SpeakerAnalysis:      make(map[string]model.SpeakerAnalysis, len(ids)),
		MeetingTranscript:    in.Transcript,
		SilenceSegments:      []model.SilenceInterval{},
	}

	var (
		fillers    []filler.Result
		pauses     []silence.SpeakerResult
		sentiments []sentiment.Result
	)
	runs := turnRuns(in.Segments)
	for _, id := range ids {
		sp := in.Speakers[id]
		sp.Filler.SpeakerID, sp.Sentiment.SpeakerID = id, id
		fillers = append(fillers, sp.Filler)
		pauses = append(pauses, silence.SpeakerResult{SpeakerID: id, Result: sp.Silence})
		sentiments = append(sentiments, sp.Sentiment)
		out.SilenceSegments = append(out.SilenceSegments, sp.Silence.Intervals...)
		out.SpeakerAnalysis[id] = speakerAnalysis(id, in.Segments, talk[id], part[id], runs[id], sp)
	}

	fs := filler.Summarize(fillers)
	out.TotalFillerCount = fs.Total
	out.AverageFillerRatio = Round2(fs.AverageRatio)
	out.MostCommonFillers = fs.MostCommon

	ps := silence.Summarize(pauses)
	ps.TotalSilenceTime = Round2(ps.TotalSilenceTime)
	ps.AveragePauseCount = Round2(ps.AveragePauseCount)
	ps.OverallSilencePercentage = Round2(in.Recording.SilencePercentage)
	for i := range ps.SpeakerPauseRanking {
		r := &ps.SpeakerPauseRanking[i]
		r.AvgPauseDuration, r.TotalSilence = Round2(r.AvgPauseDuration), Round2(r.TotalSilence)
	}
	out.TotalSilenceTime = ps.TotalSilenceTime
	out.PauseStatistics = ps.PauseStatistics

	ss := sentiment.Summarize(sentiments)
	out.OverallSentiment = ss.Overall
	out.AveragePolarity = Round2(ss.AveragePolarity)
	out.EmotionalTone = ss.Tone
	out.SentimentDistribution = ss.Distribution

	out.AnalysisInsights = append(append(fs.Insights(), ps.Insights...), ss.Insights...)
	out.Recommendations = recommendations(out, ids)
	return out
}

func speakerAnalysis(id string, segs []model.SpeakerSegment, talk, part float64, runs int, sp SpeakerInput) model.SpeakerAnalysis {
	var (
		count int
		conf  float64
	)
	for _, s := range segs {
		if s.SpeakerID == id {
			count++
			conf += s.ConfidenceOr(merger.DefaultConfidence)
		}
	}
	if count > 0 {
		conf /= float64(count)
	}
	breakdown := sp.Filler.Counts
	if breakdown == nil {
		breakdown = map[string]int{}
	}
	return model.SpeakerAnalysis{
		SpeakerID:               id,
		TalkTime:                talk,
		ParticipationPercentage: part,
		TurnCount:               runs,
		SegmentCount:            count,
		AverageConfidence:       Round2(conf),

		Transcript:     sp.Text.Transcript,
		WordCount:      sp.Text.WordCount,
		UniqueWords:    sp.Text.Stats.UniqueWords,
		QuestionsAsked: sp.Text.Stats.Questions,
		Keywords:       sp.Text.Stats.Keywords,

		FillerCount:     sp.Filler.Total,
		FillerRatio:     Round2(sp.Filler.Ratio),
		FillerBreakdown: breakdown,

		TotalSilenceDuration: Round2(sp.Silence.TotalSilenceDuration),
		SilencePercentage:    Round2(sp.Silence.SilencePercentage),
		PauseCount:           sp.Silence.PauseCount,
		AveragePauseDuration: Round2(sp.Silence.AveragePauseDuration),
		LongestPause:         Round2(sp.Silence.LongestPause),

		SentimentPolarity:       Round2(sp.Sentiment.Polarity),
		SentimentSubjectivity:   Round2(sp.Sentiment.Subjectivity),
		SentimentLabel:          sp.Sentiment.Label,
		SentimentConfidence:     Round2(sp.Sentiment.Confidence),
		EngagementFromSentiment: Round2(sp.Sentiment.Engagement),
		DominantEmotion:         sp.Sentiment.DominantEmotion,
		EmotionIntensity:        Round2(sp.Sentiment.Intensity),
		Emotions:                sp.Sentiment.Emotions,

		SpeakerEngagementScore: SpeakerEngagement(sp.Sentiment.Engagement, sp.Filler.Ratio, sp.Silence.SilencePercentage),
	}
}

// turnRuns counts, per speaker, the maximal runs of consecutive segments.
func turnRuns(segs []model.SpeakerSegment) map[string]int {
	out := map[string]int{}
	for i, s := range segs {
		if i == 0 || segs[i-1].SpeakerID != s.SpeakerID {
			out[s.SpeakerID]++
		}
	}
	return out
}

func recommendations(m *model.MeetingAnalysis, ids []string) []string {
	out := []string{}
	if m.TotalFillerCount > maxMeetingFillers {
		out = append(out, fmt.Sprintf("The meeting contained %d filler words; encourage short pauses instead of fillers such as 'um' and 'like'", m.TotalFillerCount))
	}
	if len(ids) > 1 && m.EngagementScore < lowMeetingScore {
		out = append(out, "Overall engagement is low; invite quieter participants to respond and keep turns short")
	}
	if len(ids) > 1 {
		for _, id := range ids {
			if p := m.SpeakerParticipation[id]; p > dominantShare {
				out = append(out, fmt.Sprintf("%s held %.1f%% of the talk time; leave more room for others", id, p))
			}
		}
	}
	for _, id := range ids {
		sa := m.SpeakerAnalysis[id]
		if sa.EngagementFromSentiment < lowSpeakerEngage {
			out = append(out, fmt.Sprintf("%s: use more affirming, interactive language to signal engagement", id))
		}
		if sa.FillerRatio > highSpeakerFillerPc {
			out = append(out, fmt.Sprintf("%s: reduce filler words (%.1f%% of words)", id, sa.FillerRatio))
		}
	}
	return out
}
