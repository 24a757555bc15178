package clients

import (
	"context"
	"net/http"

	"github.com/maastricht-university/meeting-engagement/apperr"
	"github.com/maastricht-university/meeting-engagement/model"
)

// --- Diarization (/diarize) ---
type DiarSeg struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Speaker    string   `json:"speaker"`
	Confidence *float64 `json:"confidence,omitempty"`
}
type DiarResp struct {
	Segments []DiarSeg `json:"segments"`
}

func (h *HTTP) Diarization(ctx context.Context, url, wavPath string) (*DiarResp, error) {
	var out DiarResp
	err := h.do(ctx, "diarization", func() (*http.Request, error) {
		return uploadRequest(ctx, url+"/diarize", wavPath)
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Diarizer calls the diarization service at URL.
type Diarizer struct {
	HTTP *HTTP
	URL  string
}

// Diarize returns the raw speaker segments. Segments with a non-positive
// duration are dropped.
func (d *Diarizer) Diarize(ctx context.Context, audioPath string) ([]model.SpeakerSegment, error) {
	resp, err := d.HTTP.Diarization(ctx, d.URL, audioPath)
	if err != nil {
		return nil, apperr.E(apperr.KindExternal, "clients.Diarize", "diarization request failed", err)
	}
	out := make([]model.SpeakerSegment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		if s.End <= s.Start || s.Start < 0 {
			continue
		}
		out = append(out, model.SpeakerSegment{Start: s.Start, End: s.End, SpeakerID: s.Speaker, Confidence: s.Confidence})
	}
	return out, nil
}
