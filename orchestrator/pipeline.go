// Package orchestrator runs one analysis job end to end: load the audio,
// diarize, transcribe, clean up the segments, analyse every speaker and
// persist the resulting record.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/maastricht-university/meeting-engagement/align"
	"github.com/maastricht-university/meeting-engagement/apperr"
	"github.com/maastricht-university/meeting-engagement/audio"
	"github.com/maastricht-university/meeting-engagement/clients"
	cfg "github.com/maastricht-university/meeting-engagement/config"
	"github.com/maastricht-university/meeting-engagement/filler"
	"github.com/maastricht-university/meeting-engagement/logging"
	"github.com/maastricht-university/meeting-engagement/merger"
	"github.com/maastricht-university/meeting-engagement/metrics"
	"github.com/maastricht-university/meeting-engagement/model"
	"github.com/maastricht-university/meeting-engagement/sentiment"
	"github.com/maastricht-university/meeting-engagement/silence"
	"github.com/maastricht-university/meeting-engagement/store"
)

const tracerName = "meeting-engagement/orchestrator"

type Pipeline struct {
	cfg         *cfg.Root
	balance     metrics.Balance
	diarizer    Diarizer
	transcriber Transcriber
	merger      *merger.Merger
	recluster   *merger.Reclusterer
	silence     *silence.Analyzer
	sentiment   *sentiment.Analyzer
	sink        store.Sink
	log         logrus.FieldLogger
	tracer      trace.Tracer

	now       func() time.Time
	loadAudio func(path string, sampleRate int) (*audio.Waveform, error)
}

// Deps are the collaborators of a pipeline. A nil Diarizer or Transcriber
// makes that stage run on its fallback; Emotion is optional.
type Deps struct {
	Diarizer    Diarizer
	Transcriber Transcriber
	Emotion     sentiment.EmotionModel
	Sink        store.Sink
	Logger      logrus.FieldLogger
}

// NewPipeline wires the HTTP collaborators named in c.Services.
func NewPipeline(c *cfg.Root, sink store.Sink, log logrus.FieldLogger) (*Pipeline, error) {
	h := clients.NewHTTP(c.Services.Timeout, c.Services.MaxRetries)
	d := Deps{Sink: sink, Logger: log}
	if u := c.Services.Diarization.URL; u != "" {
		d.Diarizer = &clients.Diarizer{HTTP: h, URL: u}
	}
	if u := c.Services.ASR.URL; u != "" {
		d.Transcriber = &clients.Transcriber{HTTP: h, URL: u}
	}
	if u := c.Services.Emotion.URL; u != "" {
		d.Emotion = &clients.EmotionModel{HTTP: h, URL: u}
	}
	return New(c, d)
}

func New(c *cfg.Root, d Deps) (*Pipeline, error) {
	if d.Sink == nil {
		return nil, errors.New("orchestrator: a sink is required")
	}
	bal, err := metrics.ParseBalance(c.Engagement.Balance)
	if err != nil {
		return nil, err
	}
	log := d.Logger
	if log == nil {
		log = logging.Discard()
	}
	opts := []sentiment.Option{sentiment.WithLogger(log)}
	if d.Emotion != nil {
		opts = append(opts, sentiment.WithEmotionModel(d.Emotion))
	}
	p := &Pipeline{
		cfg:         c,
		balance:     bal,
		diarizer:    d.Diarizer,
		transcriber: d.Transcriber,
		merger:      merger.New(c.Merger),
		silence:     silence.New(c.Silence),
		sentiment:   sentiment.New(opts...),
		sink:        d.Sink,
		log:         log,
		tracer:      otel.Tracer(tracerName),
		now:         time.Now,
		loadAudio:   audio.Load,
	}
	if c.Merger.Recluster.Enabled {
		p.recluster = merger.NewReclusterer(c.Merger.Recluster.Threshold)
	}
	return p, nil
}

// Run analyses job and stores exactly one record for it. Collaborator
// failures degrade the record; only an unreadable recording or a failed
// save make Run return an error. An owned audio file is removed on every
// exit path.
func (p *Pipeline) Run(ctx context.Context, job model.Job) (*model.MeetingAnalysis, error) {
	log := p.log.WithField("meeting_id", job.MeetingID)
	if job.OwnsAudio && job.AudioPath != "" {
		defer removeAudio(job.AudioPath, log)
	}
	if job.MeetingID == "" || job.AudioPath == "" {
		return nil, apperr.E(apperr.KindInput, "orchestrator.Run", "job needs a meeting id and an audio path", nil)
	}
	if !job.SourceType.Valid() {
		return nil, apperr.E(apperr.KindInput, "orchestrator.Run", "source type must be live or teams", nil)
	}

	ctx, span := p.tracer.Start(ctx, "run", trace.WithAttributes(attribute.String("meeting_id", job.MeetingID)))
	defer span.End()
	start := p.now()

	wave, err := p.load(ctx, job.AudioPath)
	if err != nil {
		span.SetStatus(codes.Error, "audio")
		return nil, err
	}
	duration := wave.Duration()

	var degraded []string

	_, sp := p.stage(ctx, "diarize", log)
	diar := p.diarize(ctx, job.AudioPath, log.WithField("stage", "diarize"))
	sp.SetAttributes(attribute.Int("segments", len(diar.Value)), attribute.Bool("degraded", diar.Degraded))
	sp.End()
	if diar.Degraded {
		degraded = append(degraded, StageDiarization)
	}

	_, sp = p.stage(ctx, "transcribe", log)
	trans := p.transcribe(ctx, job.AudioPath, log.WithField("stage", "transcribe"))
	sp.SetAttributes(attribute.Int("segments", len(trans.Value.Segments)), attribute.Bool("degraded", trans.Degraded))
	sp.End()
	if trans.Degraded {
		degraded = append(degraded, StageTranscription)
	}

	_, sp = p.stage(ctx, "merge", log)
	segs := p.merger.Merge(diar.Value)
	reclustered := false
	if p.recluster != nil && len(segs) > 1 {
		segs = p.merger.Merge(p.recluster.Recluster(segs, wave))
		reclustered = true
	}
	sp.SetAttributes(attribute.Int("segments", len(segs)), attribute.Bool("reclustered", reclustered))
	sp.End()

	_, sp = p.stage(ctx, "align", log)
	texts := align.BySpeaker(align.Align(segs, trans.Value.Segments))
	sp.SetAttributes(attribute.Int("speakers", len(texts.IDs())))
	sp.End()

	actx, sp := p.stage(ctx, "analyze_speakers", log)
	speakers, modelFailed, err := p.analyzeSpeakers(actx, wave, segs, texts, log)
	sp.End()
	if err != nil {
		return nil, err
	}
	if modelFailed {
		degraded = append(degraded, StageEmotionModel)
	}

	_, sp = p.stage(ctx, "aggregate", log)
	analysis := metrics.Aggregate(metrics.Input{
		MeetingID:     job.MeetingID,
		SourceType:    job.SourceType,
		AudioFileName: job.AudioFileName,
		Language:      trans.Value.Language,
		Duration:      duration,
		CreatedAt:     p.now().UTC(),
		Segments:      segs,
		Transcript:    strings.TrimSpace(trans.Value.Text),
		Speakers:      speakers,
		Recording:     p.silence.Analyze(wave, 0, duration),
		Balance:       p.balance,
	})
	analysis.Degraded = degraded
	analysis.DiarizationFallback = diar.Degraded
	analysis.Reclustered = reclustered
	sp.SetAttributes(attribute.Float64("engagement_score", analysis.EngagementScore))
	sp.End()

	// Abandoned jobs must not leave a record behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sctx, sp := p.stage(ctx, "persist", log)
	defer sp.End()
	id, err := p.sink.Save(sctx, analysis)
	if err != nil {
		sp.SetStatus(codes.Error, "save")
		return nil, apperr.E(apperr.KindPersistence, "orchestrator.Run", "could not save analysis", err)
	}
	analysis.RecordID = id

	log.WithFields(logrus.Fields{
		"record_id":        id,
		"speakers":         len(analysis.Speakers),
		"engagement_score": analysis.EngagementScore,
		"degraded":         degraded,
		"took":             p.now().Sub(start).String(),
	}).Info("analysis complete")
	return analysis, nil
}

func (p *Pipeline) stage(ctx context.Context, name string, log logrus.FieldLogger) (context.Context, trace.Span) {
	log.WithField("stage", name).Debug("stage start")
	return p.tracer.Start(ctx, name)
}

func (p *Pipeline) load(ctx context.Context, path string) (*audio.Waveform, error) {
	_, sp := p.tracer.Start(ctx, "load_audio")
	defer sp.End()
	wave, err := p.loadAudio(path, p.cfg.Audio.SampleRate)
	if err != nil {
		return nil, apperr.E(apperr.KindIO, "orchestrator.load", "could not read audio", err)
	}
	sp.SetAttributes(attribute.Float64("duration", wave.Duration()))
	return wave, nil
}

// analyzeSpeakers fans the per-speaker analysis out over at most
// Pipeline.Workers goroutines. The waveform is shared read-only.
func (p *Pipeline) analyzeSpeakers(ctx context.Context, wave *audio.Waveform, segs []model.SpeakerSegment,
	texts *align.SpeakerTexts, log logrus.FieldLogger) (map[string]metrics.SpeakerInput, bool, error) {
	ids := metrics.Speakers(segs)
	results := make([]metrics.SpeakerInput, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if n := p.cfg.Pipeline.Workers; n > 0 {
		g.SetLimit(n)
	}
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			txt := texts.Get(id)
			results[i] = metrics.SpeakerInput{
				Text:      txt,
				Filler:    filler.Analyze(txt.Transcript, id),
				Silence:   p.silence.AnalyzeSegments(wave, segmentsOf(segs, id)),
				Sentiment: p.sentiment.Analyze(gctx, txt.Transcript, id),
			}
			log.WithFields(logrus.Fields{"stage": "analyze_speakers", "speaker_id": id}).Debug("speaker analysed")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	out := make(map[string]metrics.SpeakerInput, len(ids))
	failed := false
	for i, id := range ids {
		out[id] = results[i]
		failed = failed || results[i].Sentiment.ModelFailed
	}
	return out, failed, nil
}
