package model

import "time"

// SpeakerAnalysis holds every per-speaker metric of a meeting.
type SpeakerAnalysis struct {
	SpeakerID               string  `json:"speaker_id" bson:"speaker_id"`
	TalkTime                float64 `json:"talk_time" bson:"talk_time"`
	ParticipationPercentage float64 `json:"participation_percentage" bson:"participation_percentage"`
	TurnCount               int     `json:"turn_count" bson:"turn_count"`
	SegmentCount            int     `json:"segment_count" bson:"segment_count"`
	AverageConfidence       float64 `json:"average_confidence" bson:"average_confidence"`

	Transcript     string   `json:"transcript" bson:"transcript"`
	WordCount      int      `json:"word_count" bson:"word_count"`
	UniqueWords    int      `json:"unique_words" bson:"unique_words"`
	QuestionsAsked int      `json:"questions_asked" bson:"questions_asked"`
	Keywords       []string `json:"keywords,omitempty" bson:"keywords,omitempty"`

	FillerCount     int            `json:"filler_count" bson:"filler_count"`
	FillerRatio     float64        `json:"filler_ratio" bson:"filler_ratio"`
	FillerBreakdown map[string]int `json:"filler_breakdown" bson:"filler_breakdown"`

	TotalSilenceDuration float64 `json:"total_silence_duration" bson:"total_silence_duration"`
	SilencePercentage    float64 `json:"silence_percentage" bson:"silence_percentage"`
	PauseCount           int     `json:"pause_count" bson:"pause_count"`
	AveragePauseDuration float64 `json:"average_pause_duration" bson:"average_pause_duration"`
	LongestPause         float64 `json:"longest_pause" bson:"longest_pause"`

	SentimentPolarity       float64            `json:"sentiment_polarity" bson:"sentiment_polarity"`
	SentimentSubjectivity   float64            `json:"sentiment_subjectivity" bson:"sentiment_subjectivity"`
	SentimentLabel          string             `json:"sentiment_label" bson:"sentiment_label"`
	SentimentConfidence     float64            `json:"sentiment_confidence" bson:"sentiment_confidence"`
	EngagementFromSentiment float64            `json:"engagement_from_sentiment" bson:"engagement_from_sentiment"`
	DominantEmotion         string             `json:"dominant_emotion" bson:"dominant_emotion"`
	EmotionIntensity        float64            `json:"emotion_intensity" bson:"emotion_intensity"`
	Emotions                map[string]float64 `json:"emotions,omitempty" bson:"emotions,omitempty"`

	SpeakerEngagementScore float64 `json:"speaker_engagement_score" bson:"speaker_engagement_score"`
}

type PauseRank struct {
	SpeakerID        string  `json:"speaker_id" bson:"speaker_id"`
	PauseCount       int     `json:"pause_count" bson:"pause_count"`
	AvgPauseDuration float64 `json:"avg_pause_duration" bson:"avg_pause_duration"`
	TotalSilence     float64 `json:"total_silence" bson:"total_silence"`
}

type PauseStatistics struct {
	TotalSilenceTime         float64     `json:"total_silence_time" bson:"total_silence_time"`
	AveragePauseCount        float64     `json:"average_pause_count" bson:"average_pause_count"`
	OverallSilencePercentage float64     `json:"overall_silence_percentage" bson:"overall_silence_percentage"`
	SpeakerPauseRanking      []PauseRank `json:"speaker_pause_ranking" bson:"speaker_pause_ranking"`
	QuietestSpeaker          string      `json:"quietest_speaker,omitempty" bson:"quietest_speaker,omitempty"`
	MostConversational       string      `json:"most_conversational,omitempty" bson:"most_conversational,omitempty"`
}

// MeetingAnalysis is the single record produced per processed recording.
// Speakers keeps first-appearance order of the speaker ids.
type MeetingAnalysis struct {
	// RecordID is the identifier the sink stored the record under. It is
	// filled in after saving and never persisted.
	RecordID string `json:"-" bson:"-"`

	MeetingID     string     `json:"meeting_id" bson:"meeting_id"`
	SourceType    SourceType `json:"source_type" bson:"source_type"`
	Duration      float64    `json:"duration" bson:"duration"`
	Language      string     `json:"language,omitempty" bson:"language,omitempty"`
	AudioFileName string     `json:"audio_file_name,omitempty" bson:"audio_file_name,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`

	Segments             []SpeakerSegment           `json:"segments" bson:"segments"`
	Speakers             []string                   `json:"speakers" bson:"speakers"`
	EngagementScore      float64                    `json:"engagement_score" bson:"engagement_score"`
	SpeakerTalkTime      map[string]float64         `json:"speaker_talk_time" bson:"speaker_talk_time"`
	SpeakerParticipation map[string]float64         `json:"speaker_participation" bson:"speaker_participation"`
	TurnTakingFrequency  float64                    `json:"turn_taking_frequency" bson:"turn_taking_frequency"`
	SpeakerAnalysis      map[string]SpeakerAnalysis `json:"speaker_analysis" bson:"speaker_analysis"`
	MeetingTranscript    string                     `json:"meeting_transcript" bson:"meeting_transcript"`

	TotalFillerCount   int            `json:"total_filler_count" bson:"total_filler_count"`
	AverageFillerRatio float64        `json:"average_filler_ratio" bson:"average_filler_ratio"`
	MostCommonFillers  map[string]int `json:"most_common_fillers" bson:"most_common_fillers"`

	TotalSilenceTime float64           `json:"total_silence_time" bson:"total_silence_time"`
	SilenceSegments  []SilenceInterval `json:"silence_segments" bson:"silence_segments"`
	PauseStatistics  PauseStatistics   `json:"pause_statistics" bson:"pause_statistics"`

	OverallSentiment      string         `json:"overall_sentiment" bson:"overall_sentiment"`
	AveragePolarity       float64        `json:"average_polarity" bson:"average_polarity"`
	EmotionalTone         string         `json:"emotional_tone" bson:"emotional_tone"`
	SentimentDistribution map[string]int `json:"sentiment_distribution" bson:"sentiment_distribution"`

	AnalysisInsights []string `json:"analysis_insights" bson:"analysis_insights"`
	Recommendations  []string `json:"recommendations" bson:"recommendations"`

	// Degraded names the stages that ran on fallback data. A non-empty list
	// means the record is not authoritative.
	Degraded            []string `json:"degraded,omitempty" bson:"degraded,omitempty"`
	DiarizationFallback bool     `json:"diarization_fallback" bson:"diarization_fallback"`
	Reclustered         bool     `json:"reclustered" bson:"reclustered"`
}
