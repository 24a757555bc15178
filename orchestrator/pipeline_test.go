package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/meeting-engagement/apperr"
	"github.com/maastricht-university/meeting-engagement/audio"
	"github.com/maastricht-university/meeting-engagement/audio/audiotest"
	"github.com/maastricht-university/meeting-engagement/clients"
	cfg "github.com/maastricht-university/meeting-engagement/config"
	"github.com/maastricht-university/meeting-engagement/model"
)

const sr = 16000

type fakeDiarizer struct {
	segs []model.SpeakerSegment
	err  error
}

func (f *fakeDiarizer) Diarize(context.Context, string) ([]model.SpeakerSegment, error) {
	return f.segs, f.err
}

type fakeTranscriber struct {
	tr  *clients.Transcript
	err error
}

func (f *fakeTranscriber) Transcribe(context.Context, string) (*clients.Transcript, error) {
	return f.tr, f.err
}

type fakeEmotion struct{ err error }

func (f *fakeEmotion) Detect(context.Context, string) (map[string]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return map[string]float64{"joy": 0.8}, nil
}

type memSink struct {
	mu    sync.Mutex
	saved []*model.MeetingAnalysis
	err   error
}

func (s *memSink) Save(_ context.Context, m *model.MeetingAnalysis) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, m)
	return "rec-1", nil
}

func seg(start, end float64, spk string) model.SpeakerSegment {
	return model.SpeakerSegment{Start: start, End: end, SpeakerID: spk}
}

func twoSpeakers() *fakeDiarizer {
	return &fakeDiarizer{segs: []model.SpeakerSegment{
		seg(0, 5, "A"), seg(5, 10, "B"), seg(10, 15, "A"), seg(15, 20, "B"),
	}}
}

func transcript() *fakeTranscriber {
	return &fakeTranscriber{tr: &clients.Transcript{
		Text:     "Great question, I love this idea. Um, I mean, maybe. What do you think? Um, like, I guess so.",
		Language: "en",
		Segments: []model.TranscriptSegment{
			{Start: 0, End: 5, Text: "Great question, I love this idea."},
			{Start: 5, End: 10, Text: "Um, I mean, maybe."},
			{Start: 10, End: 15, Text: "What do you think?"},
			{Start: 15, End: 20, Text: "Um, like, I guess so."},
		},
	}}
}

func newTestPipeline(t *testing.T, d Deps) *Pipeline {
	t.Helper()
	if d.Logger == nil {
		d.Logger, _ = test.NewNullLogger()
	}
	p, err := New(cfg.Default(), d)
	require.NoError(t, err)
	p.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	p.loadAudio = func(string, int) (*audio.Waveform, error) {
		wave := audiotest.Concat(
			audiotest.Tone(220, 0.5, 4, sr), audiotest.Silence(1, sr),
			audiotest.Tone(330, 0.5, 15, sr),
		)
		return &audio.Waveform{Samples: wave, SampleRate: sr}, nil
	}
	return p
}

func job() model.Job {
	return model.Job{MeetingID: "m-1", SourceType: model.SourceLive, AudioPath: "/tmp/m-1.wav", AudioFileName: "m-1.wav"}
}

func TestRun(t *testing.T) {
	sink := &memSink{}
	p := newTestPipeline(t, Deps{Diarizer: twoSpeakers(), Transcriber: transcript(), Sink: sink})

	res, err := p.Run(context.Background(), job())
	require.NoError(t, err)
	require.Len(t, sink.saved, 1)
	assert.Same(t, sink.saved[0], res)

	assert.Equal(t, "rec-1", res.RecordID)
	assert.Equal(t, "m-1", res.MeetingID)
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, 20.0, res.Duration)
	assert.Equal(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), res.CreatedAt)
	assert.Empty(t, res.Degraded)
	assert.False(t, res.DiarizationFallback)

	assert.Equal(t, []string{"A", "B"}, res.Speakers)
	assert.Equal(t, map[string]float64{"A": 50, "B": 50}, res.SpeakerParticipation)
	assert.InDelta(t, 9.0, res.TurnTakingFrequency, 1e-9)

	a := res.SpeakerAnalysis["A"]
	assert.Equal(t, "Great question, I love this idea. What do you think?", a.Transcript)
	assert.Equal(t, 1, a.QuestionsAsked)
	assert.Equal(t, 2, a.SegmentCount)
	b := res.SpeakerAnalysis["B"]
	assert.Greater(t, b.FillerCount, a.FillerCount)

	// the 1 s gap inside A's first turn is the only pause
	require.Len(t, res.SilenceSegments, 1)
	assert.InDelta(t, 4.0, res.SilenceSegments[0].Start, 0.03)
	assert.InDelta(t, 5.0, res.SilenceSegments[0].End, 0.03)
	assert.Greater(t, res.PauseStatistics.OverallSilencePercentage, 0.0)
}

func TestRunDiarizationFallback(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sink := &memSink{}
	p := newTestPipeline(t, Deps{
		Diarizer:    &fakeDiarizer{err: errors.New("diarizer down")},
		Transcriber: transcript(),
		Sink:        sink,
		Logger:      logger,
	})

	res, err := p.Run(context.Background(), job())
	require.NoError(t, err)
	assert.True(t, res.DiarizationFallback)
	assert.Equal(t, []string{StageDiarization}, res.Degraded)
	if diff := cmp.Diff(fallbackSegments(), res.Segments); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Message == "diarization failed, using fallback segments" {
			warned = true
			assert.EqualError(t, e.Data["error"].(error), "diarizer down")
		}
	}
	assert.True(t, warned)
}

func TestRunWithoutServices(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := newTestPipeline(t, Deps{Sink: &memSink{}, Logger: logger})

	res, err := p.Run(context.Background(), job())
	require.NoError(t, err)
	assert.Equal(t, []string{StageDiarization, StageTranscription}, res.Degraded)
	assert.Equal(t, "unknown", res.Language)
	assert.Empty(t, res.MeetingTranscript)
	assert.Zero(t, res.TotalFillerCount)
	assert.Equal(t, []string{"Speaker_1", "Speaker_2"}, res.Speakers)

	var warnings []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings = append(warnings, e.Message)
		}
	}
	assert.Contains(t, warnings, "diarization skipped, using fallback segments")
	assert.Contains(t, warnings, "transcription skipped, continuing without text")
}

func TestRunTranscriptionFallback(t *testing.T) {
	p := newTestPipeline(t, Deps{
		Diarizer:    twoSpeakers(),
		Transcriber: &fakeTranscriber{err: errors.New("asr timeout")},
		Sink:        &memSink{},
	})

	res, err := p.Run(context.Background(), job())
	require.NoError(t, err)
	assert.Equal(t, []string{StageTranscription}, res.Degraded)
	for _, sa := range res.SpeakerAnalysis {
		assert.Zero(t, sa.WordCount)
		assert.Zero(t, sa.FillerRatio)
	}
}

func TestRunEmotionModel(t *testing.T) {
	p := newTestPipeline(t, Deps{Diarizer: twoSpeakers(), Transcriber: transcript(), Emotion: &fakeEmotion{}, Sink: &memSink{}})
	res, err := p.Run(context.Background(), job())
	require.NoError(t, err)
	assert.Empty(t, res.Degraded)
	assert.Equal(t, map[string]float64{"joy": 0.8}, res.SpeakerAnalysis["A"].Emotions)

	p = newTestPipeline(t, Deps{Diarizer: twoSpeakers(), Transcriber: transcript(), Emotion: &fakeEmotion{err: errors.New("503")}, Sink: &memSink{}})
	res, err = p.Run(context.Background(), job())
	require.NoError(t, err)
	assert.Equal(t, []string{StageEmotionModel}, res.Degraded)
}

func TestRunEmptyDiarization(t *testing.T) {
	p := newTestPipeline(t, Deps{Diarizer: &fakeDiarizer{}, Transcriber: transcript(), Sink: &memSink{}})
	res, err := p.Run(context.Background(), job())
	require.NoError(t, err)
	assert.Zero(t, res.EngagementScore)
	assert.Zero(t, res.TurnTakingFrequency)
	assert.Empty(t, res.SpeakerAnalysis)
}

func TestRunPersistenceFailure(t *testing.T) {
	p := newTestPipeline(t, Deps{Diarizer: twoSpeakers(), Transcriber: transcript(), Sink: &memSink{err: errors.New("disk full")}})
	res, err := p.Run(context.Background(), job())
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindPersistence))
	assert.True(t, apperr.Fatal(err))
}

func TestRunCancelledDoesNotPersist(t *testing.T) {
	sink := &memSink{}
	p := newTestPipeline(t, Deps{Diarizer: twoSpeakers(), Transcriber: transcript(), Sink: sink})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, job())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.saved)
}

func TestRunRejectsBadJobs(t *testing.T) {
	p := newTestPipeline(t, Deps{Sink: &memSink{}})
	_, err := p.Run(context.Background(), model.Job{MeetingID: "m-1"})
	assert.True(t, apperr.IsKind(err, apperr.KindInput))

	j := job()
	j.SourceType = "zoom"
	_, err = p.Run(context.Background(), j)
	assert.True(t, apperr.IsKind(err, apperr.KindInput))
}

func TestRunRemovesOwnedAudio(t *testing.T) {
	path := audiotest.WriteWAV(t, "class.wav", audiotest.Tone(440, 0.5, 2, sr), sr)
	sink := &memSink{}
	p := newTestPipeline(t, Deps{Diarizer: &fakeDiarizer{segs: []model.SpeakerSegment{seg(0, 2, "A")}}, Sink: sink})
	p.loadAudio = audio.Load

	j := job()
	j.AudioPath, j.OwnsAudio = path, true
	res, err := p.Run(context.Background(), j)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, res.Duration, 0.01)
	assert.NoFileExists(t, path)
}

func TestRunUnreadableAudio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a wav file"), 0o644))
	sink := &memSink{}
	p := newTestPipeline(t, Deps{Diarizer: twoSpeakers(), Sink: sink})
	p.loadAudio = audio.Load

	j := job()
	j.AudioPath, j.OwnsAudio = path, true
	_, err := p.Run(context.Background(), j)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindIO))
	assert.Empty(t, sink.saved)
	assert.NoFileExists(t, path)
}

func TestRunRecluster(t *testing.T) {
	c := cfg.Default()
	c.Merger.Recluster.Enabled = true
	logger, _ := test.NewNullLogger()
	p, err := New(c, Deps{
		// the diarizer split one voice into two labels
		Diarizer: &fakeDiarizer{segs: []model.SpeakerSegment{seg(0, 2, "X"), seg(2.2, 4, "Y")}},
		Sink:     &memSink{},
		Logger:   logger,
	})
	require.NoError(t, err)
	p.loadAudio = func(string, int) (*audio.Waveform, error) {
		return &audio.Waveform{Samples: audiotest.Tone(220, 0.5, 4, sr), SampleRate: sr}, nil
	}

	res, err := p.Run(context.Background(), job())
	require.NoError(t, err)
	assert.True(t, res.Reclustered)
	assert.Equal(t, []string{"Speaker_1"}, res.Speakers)
	require.Len(t, res.Segments, 1)
	assert.Equal(t, 4.0, res.Segments[0].End)
}

func TestNewRequiresSink(t *testing.T) {
	_, err := New(cfg.Default(), Deps{})
	assert.Error(t, err)
}

func TestNewPipelineWiresConfiguredServices(t *testing.T) {
	c := cfg.Default()
	c.Services.Diarization.URL = "http://diar"
	p, err := NewPipeline(c, &memSink{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, p.diarizer)
	assert.Nil(t, p.transcriber)
}
