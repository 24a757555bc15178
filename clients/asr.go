package clients

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/maastricht-university/meeting-engagement/apperr"
	"github.com/maastricht-university/meeting-engagement/model"
)

type TransSeg struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
type ASRResp struct {
	Text     string     `json:"text"`
	Segments []TransSeg `json:"segments"`
	Language string     `json:"language"`
}

// Transcript is the transcriber's answer for one recording.
type Transcript struct {
	Text     string
	Segments []model.TranscriptSegment
	Language string
}

func (h *HTTP) ASR(ctx context.Context, url, wavPath string) (*ASRResp, error) {
	var out ASRResp
	err := h.do(ctx, "asr", func() (*http.Request, error) {
		return uploadRequest(ctx, url+"/transcribe", wavPath)
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Transcriber calls the ASR service at URL.
type Transcriber struct {
	HTTP *HTTP
	URL  string
}

func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	resp, err := t.HTTP.ASR(ctx, t.URL, audioPath)
	if err != nil {
		return nil, apperr.E(apperr.KindExternal, "clients.Transcribe", "asr request failed", err)
	}
	out := &Transcript{Text: strings.TrimSpace(resp.Text), Language: resp.Language}
	parts := make([]string, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		out.Segments = append(out.Segments, model.TranscriptSegment{Start: s.Start, End: s.End, Text: s.Text})
		if txt := strings.TrimSpace(s.Text); txt != "" {
			parts = append(parts, txt)
		}
	}
	if out.Text == "" {
		out.Text = strings.Join(parts, " ")
	}
	return out, nil
}

// uploadRequest posts the file at path as multipart field "file".
func uploadRequest(ctx context.Context, url, path string) (*http.Request, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}
