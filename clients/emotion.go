package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/maastricht-university/meeting-engagement/apperr"
)

// --- Emotion (/detect) ---
type EmoReq struct {
	Text string `json:"text"`
}
type EmoScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}
type EmoResp struct {
	Emotions        []EmoScore `json:"emotions"`
	DominantEmotion string     `json:"dominant_emotion"`
}

func (h *HTTP) Emotion(ctx context.Context, url, text string) (*EmoResp, error) {
	b, err := json.Marshal(EmoReq{Text: text})
	if err != nil {
		return nil, err
	}
	var out EmoResp
	err = h.do(ctx, "emotion", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/detect", bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// EmotionModel calls the emotion service at URL.
type EmotionModel struct {
	HTTP *HTTP
	URL  string
}

// Detect sums the scores per label.
func (m *EmotionModel) Detect(ctx context.Context, text string) (map[string]float64, error) {
	resp, err := m.HTTP.Emotion(ctx, m.URL, text)
	if err != nil {
		return nil, apperr.E(apperr.KindExternal, "clients.Emotion", "emotion request failed", err)
	}
	out := make(map[string]float64, len(resp.Emotions))
	for _, e := range resp.Emotions {
		out[e.Label] += e.Score
	}
	return out, nil
}
