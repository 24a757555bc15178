// Package sentiment scores transcript text for polarity, emotion and
// engagement markers.
package sentiment

import (
	"context"
	"math"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/sirupsen/logrus"
)

const (
	Positive = "positive"
	Negative = "negative"
	Neutral  = "neutral"
)

// EmotionModel is a remote classifier returning a score per emotion label.
type EmotionModel interface {
	Detect(ctx context.Context, text string) (map[string]float64, error)
}

type Result struct {
	SpeakerID       string
	Polarity        float64 // [-1, 1]
	Subjectivity    float64 // [0, 1]
	Label           string
	Confidence      float64
	DominantEmotion string
	Intensity       float64
	PositiveScore   float64
	NegativeScore   float64
	Engagement      float64 // [0, 100]
	Emotions        map[string]float64
	// ModelFailed is set when the emotion model was configured but the call
	// failed and only the lexicon was used.
	ModelFailed bool
}

type Analyzer struct {
	vader *govader.SentimentIntensityAnalyzer
	model EmotionModel
	log   logrus.FieldLogger
}

type Option func(*Analyzer)

func WithEmotionModel(m EmotionModel) Option { return func(a *Analyzer) { a.model = m } }

func WithLogger(l logrus.FieldLogger) Option { return func(a *Analyzer) { a.log = l } }

func New(opts ...Option) *Analyzer {
	a := &Analyzer{vader: govader.NewSentimentIntensityAnalyzer(), log: logrus.StandardLogger()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze scores one speaker's transcript. Blank text gives an all-zero
// neutral result without calling the emotion model.
func (a *Analyzer) Analyze(ctx context.Context, text, speakerID string) Result {
	r := Result{SpeakerID: speakerID, Label: Neutral, DominantEmotion: Neutral}
	if strings.TrimSpace(text) == "" {
		return r
	}

	s := a.vader.PolarityScores(text)
	r.Polarity = clamp(s.Compound, -1, 1)
	r.Subjectivity = clamp(s.Positive+s.Negative, 0, 1)
	switch {
	case r.Polarity > 0.1:
		r.Label, r.Confidence = Positive, math.Min(r.Polarity, 1)
	case r.Polarity < -0.1:
		r.Label, r.Confidence = Negative, math.Min(-r.Polarity, 1)
	default:
		r.Confidence = 0.5
	}

	r.PositiveScore = positive.score(text)
	r.NegativeScore = negative.score(text)
	switch {
	case r.PositiveScore > math.Abs(r.NegativeScore):
		r.DominantEmotion, r.Intensity = Positive, math.Min(r.PositiveScore/5, 1)
	case math.Abs(r.NegativeScore) > r.PositiveScore:
		r.DominantEmotion, r.Intensity = Negative, math.Min(math.Abs(r.NegativeScore)/5, 1)
	default:
		r.Intensity = 0.5
	}

	r.Engagement = clamp((engaged.score(text)-math.Abs(disengaged.score(text)))*10, 0, 100)

	if a.model != nil {
		emo, err := a.model.Detect(ctx, text)
		if err != nil {
			a.log.WithError(err).WithField("speaker_id", speakerID).Warn("emotion model failed, using lexicon only")
			r.ModelFailed = true
		} else {
			r.Emotions = emo
		}
	}
	return r
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
