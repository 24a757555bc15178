package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/maastricht-university/meeting-engagement/apperr"
	"github.com/maastricht-university/meeting-engagement/model"
)

// FileSink writes each analysis as indented JSON under
// <root>/<meeting_id>/analysis_<timestamp>_<id>.json.
type FileSink struct {
	root string
}

func NewFileSink(root string) (*FileSink, error) {
	if root == "" {
		root = "outputs"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apperr.E(apperr.KindPersistence, "store.NewFileSink", "create outputs dir", err)
	}
	return &FileSink{root: root}, nil
}

func (s *FileSink) Save(ctx context.Context, m *model.MeetingAnalysis) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.E(apperr.KindPersistence, "store.FileSink.Save", "", err)
	}
	dir, err := mkMeetingDir(s.root, m.MeetingID)
	if err != nil {
		return "", apperr.E(apperr.KindPersistence, "store.FileSink.Save", "create meeting dir", err)
	}
	ts := m.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	name := "analysis_" + ts.UTC().Format("20060102-150405") + "_" + uuid.NewString()[:8] + ".json"
	path := filepath.Join(dir, name)
	if err := writeJSON(path, m); err != nil {
		return "", apperr.E(apperr.KindPersistence, "store.FileSink.Save", "write analysis", err)
	}
	return path, nil
}

func mkMeetingDir(root, meetingID string) (string, error) {
	if meetingID == "" {
		meetingID = "unknown"
	}
	dir := filepath.Join(root, filepath.Base(meetingID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// writeJSON writes v to a temp file next to path and renames it into place,
// so a reader never sees a partial record.
func writeJSON(path string, v any) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".analysis-*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
