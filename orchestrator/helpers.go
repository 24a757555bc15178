package orchestrator

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/meeting-engagement/apperr"
	"github.com/maastricht-university/meeting-engagement/clients"
	"github.com/maastricht-university/meeting-engagement/model"
)

// fallbackSegments stands in for diarization when the service fails. The
// record is marked as degraded whenever they are used.
func fallbackSegments() []model.SpeakerSegment {
	return []model.SpeakerSegment{
		{Start: 0, End: 5, SpeakerID: "Speaker_1"},
		{Start: 5, End: 10, SpeakerID: "Speaker_2"},
		{Start: 10, End: 15, SpeakerID: "Speaker_1"},
		{Start: 15, End: 20, SpeakerID: "Speaker_2"},
	}
}

func (p *Pipeline) diarize(ctx context.Context, path string, log logrus.FieldLogger) apperr.Outcome[[]model.SpeakerSegment] {
	if p.diarizer == nil {
		err := errors.New("no diarization service configured")
		log.WithError(err).Warn("diarization skipped, using fallback segments")
		return apperr.Fallback(fallbackSegments(), err)
	}
	segs, err := p.diarizer.Diarize(ctx, path)
	if err != nil {
		log.WithError(err).Warn("diarization failed, using fallback segments")
		return apperr.Fallback(fallbackSegments(), err)
	}
	return apperr.OK(segs)
}

func (p *Pipeline) transcribe(ctx context.Context, path string, log logrus.FieldLogger) apperr.Outcome[*clients.Transcript] {
	empty := &clients.Transcript{Language: "unknown"}
	if p.transcriber == nil {
		err := errors.New("no transcription service configured")
		log.WithError(err).Warn("transcription skipped, continuing without text")
		return apperr.Fallback(empty, err)
	}
	tr, err := p.transcriber.Transcribe(ctx, path)
	if err == nil && tr == nil {
		err = errors.New("empty transcription response")
	}
	if err != nil {
		log.WithError(err).Warn("transcription failed, continuing without text")
		return apperr.Fallback(empty, err)
	}
	return apperr.OK(tr)
}

// segmentsOf returns the segments of one speaker, in order.
func segmentsOf(segs []model.SpeakerSegment, speakerID string) []model.SpeakerSegment {
	var out []model.SpeakerSegment
	for _, s := range segs {
		if s.SpeakerID == speakerID {
			out = append(out, s)
		}
	}
	return out
}

// removeAudio deletes the job's recording. A file that is already gone is
// not an error.
func removeAudio(path string, log logrus.FieldLogger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Warn("could not remove audio file")
		return
	}
	log.Debug("audio file removed")
}
