package model

type SourceType string

const (
	SourceLive  SourceType = "live"
	SourceTeams SourceType = "teams"
)

func (s SourceType) Valid() bool { return s == SourceLive || s == SourceTeams }

// SpeakerSegment is one diarized speaker turn. Confidence is nil when the
// diarizer did not report one.
type SpeakerSegment struct {
	Start      float64  `json:"start" bson:"start"` // sec
	End        float64  `json:"end" bson:"end"`     // sec
	SpeakerID  string   `json:"speaker_id" bson:"speaker_id"`
	Confidence *float64 `json:"confidence,omitempty" bson:"confidence,omitempty"`
}

func (s SpeakerSegment) Duration() float64 { return s.End - s.Start }

// ConfidenceOr returns the confidence, or def when absent.
func (s SpeakerSegment) ConfidenceOr(def float64) float64 {
	if s.Confidence == nil {
		return def
	}
	return *s.Confidence
}

func Confidence(v float64) *float64 { return &v }

type TranscriptSegment struct {
	Start float64 `json:"start" bson:"start"`
	End   float64 `json:"end" bson:"end"`
	Text  string  `json:"text" bson:"text"`
}

type SilenceInterval struct {
	Start    float64 `json:"start" bson:"start"`
	End      float64 `json:"end" bson:"end"`
	Duration float64 `json:"duration" bson:"duration"`
}

// Job is one recording to analyze. The pipeline removes AudioPath on exit
// when OwnsAudio is set.
type Job struct {
	MeetingID     string     `json:"meeting_id"`
	SourceType    SourceType `json:"source_type"`
	AudioPath     string     `json:"audio_path"`
	AudioFileName string     `json:"audio_file_name,omitempty"`
	OwnsAudio     bool       `json:"owns_audio,omitempty"`
}
