package orchestrator

import (
	"context"

	"github.com/maastricht-university/meeting-engagement/clients"
	"github.com/maastricht-university/meeting-engagement/model"
)

// Diarizer splits a recording into speaker turns.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]model.SpeakerSegment, error)
}

// Transcriber turns a recording into time-stamped text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*clients.Transcript, error)
}

// Stage names recorded in MeetingAnalysis.Degraded.
const (
	StageDiarization   = "diarization"
	StageTranscription = "transcription"
	StageEmotionModel  = "emotion_model"
)
