package clients

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/meeting-engagement/apperr"
	"github.com/maastricht-university/meeting-engagement/model"
)

func fastHTTP(retries int) *HTTP {
	h := NewHTTP(5*time.Second, retries)
	h.initial = time.Millisecond
	return h
}

func tempAudio(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "meeting.wav")
	require.NoError(t, os.WriteFile(p, []byte("RIFF....WAVE"), 0o644))
	return p
}

func TestDiarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/diarize", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "meeting.wav", hdr.Filename)
		assert.Equal(t, "RIFF....WAVE", string(body))

		_, _ = io.WriteString(w, `{"segments":[
			{"start":0,"end":2.5,"speaker":"SPEAKER_00","confidence":0.8},
			{"start":2.5,"end":2.5,"speaker":"SPEAKER_01"},
			{"start":3,"end":6,"speaker":"SPEAKER_01"}]}`)
	}))
	defer srv.Close()

	d := &Diarizer{HTTP: fastHTTP(0), URL: srv.URL}
	segs, err := d.Diarize(context.Background(), tempAudio(t))
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "SPEAKER_00", segs[0].SpeakerID)
	assert.Equal(t, 0.8, segs[0].ConfidenceOr(0))
	assert.Equal(t, model.SpeakerSegment{Start: 3, End: 6, SpeakerID: "SPEAKER_01"}, segs[1])
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe", r.URL.Path)
		_ = json.NewEncoder(w).Encode(ASRResp{
			Segments: []TransSeg{{Start: 0, End: 1, Text: " hello "}, {Start: 1, End: 2, Text: "world"}},
			Language: "en",
		})
	}))
	defer srv.Close()

	tr := &Transcriber{HTTP: fastHTTP(0), URL: srv.URL}
	out, err := tr.Transcribe(context.Background(), tempAudio(t))
	require.NoError(t, err)
	assert.Equal(t, "hello world", out.Text)
	assert.Equal(t, "en", out.Language)
	assert.Len(t, out.Segments, 2)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"emotions":[{"label":"joy","score":0.5},{"label":"joy","score":0.25}]}`)
	}))
	defer srv.Close()

	m := &EmotionModel{HTTP: fastHTTP(3), URL: srv.URL}
	emo, err := m.Detect(context.Background(), "great")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"joy": 0.75}, emo)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad file", http.StatusBadRequest)
	}))
	defer srv.Close()

	d := &Diarizer{HTTP: fastHTTP(3), URL: srv.URL}
	_, err := d.Diarize(context.Background(), tempAudio(t))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindExternal))
	assert.False(t, apperr.Fatal(err))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := &Transcriber{HTTP: fastHTTP(2), URL: srv.URL}
	_, err := tr.Transcribe(context.Background(), tempAudio(t))
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMissingAudioIsNotRetried(t *testing.T) {
	d := &Diarizer{HTTP: fastHTTP(3), URL: "http://127.0.0.1:0"}
	_, err := d.Diarize(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
