// Package queue hands analysis jobs to background workers over a Redis
// stream and reports their progress on a pub/sub channel.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/maastricht-university/meeting-engagement/model"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// Status is published on StatusChannel(meetingID).
type Status struct {
	Type      string  `json:"type"`
	Status    string  `json:"status"`
	MeetingID string  `json:"meeting_id"`
	Message   string  `json:"message,omitempty"`
	RecordID  string  `json:"record_id,omitempty"`
	Score     float64 `json:"engagement_score,omitempty"`
}

func StatusChannel(meetingID string) string { return "meeting:" + meetingID + ":status" }

func publish(ctx context.Context, rdb *redis.Client, st Status) error {
	st.Type = "status"
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, StatusChannel(st.MeetingID), string(b)).Err()
}

type Producer struct {
	Redis  *redis.Client
	Stream string
}

// Enqueue appends job to the stream and returns the stream entry id.
func (p *Producer) Enqueue(ctx context.Context, job model.Job) (string, error) {
	if job.MeetingID == "" || job.AudioPath == "" {
		return "", errors.New("queue: job needs meeting_id and audio_path")
	}
	if !job.SourceType.Valid() {
		return "", errors.New("queue: source_type must be live or teams")
	}
	id, err := p.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.Stream,
		Values: map[string]any{
			"meeting_id":      job.MeetingID,
			"source_type":     string(job.SourceType),
			"audio_path":      job.AudioPath,
			"audio_file_name": job.AudioFileName,
			"owns_audio":      strconv.FormatBool(job.OwnsAudio),
		},
	}).Result()
	if err != nil {
		return "", err
	}
	_ = publish(ctx, p.Redis, Status{Status: StatusQueued, MeetingID: job.MeetingID, Message: "job queued"})
	return id, nil
}

func jobFromValues(values map[string]any) (model.Job, bool) {
	getStr := func(k string) string {
		v, ok := values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}
	owns, _ := strconv.ParseBool(getStr("owns_audio"))
	job := model.Job{
		MeetingID:     getStr("meeting_id"),
		SourceType:    model.SourceType(getStr("source_type")),
		AudioPath:     getStr("audio_path"),
		AudioFileName: getStr("audio_file_name"),
		OwnsAudio:     owns,
	}
	return job, job.MeetingID != "" && job.AudioPath != ""
}
