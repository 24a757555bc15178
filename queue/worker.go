package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/meeting-engagement/apperr"
	"github.com/maastricht-university/meeting-engagement/model"
)

// Runner analyses one job and persists the result.
type Runner interface {
	Run(ctx context.Context, job model.Job) (*model.MeetingAnalysis, error)
}

type WorkerPool struct {
	Redis      *redis.Client
	Runner     Runner
	NumWorkers int
	JobTimeout time.Duration

	Logger logrus.FieldLogger

	Stream         string
	Group          string
	ConsumerPrefix string

	wg sync.WaitGroup
}

func (p *WorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Runner == nil {
		return errors.New("WorkerPool missing dependency: Redis/Runner must be set")
	}
	if p.Stream == "" {
		p.Stream = "engagement:jobs"
	}
	if p.Group == "" {
		p.Group = "engagement-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.runConsumer(ctx, consumer)
		}()
	}
	return nil
}

// Wait blocks until every consumer has returned after ctx is cancelled.
func (p *WorkerPool) Wait() { p.wg.Wait() }

func (p *WorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("xreadgroup failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(context.WithoutCancel(ctx), p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

// handleMsg runs one job. Failures are reported on the status channel; the
// message is acked either way.
func (p *WorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	job, ok := jobFromValues(msg.Values)
	log := p.Logger.WithFields(logrus.Fields{"redis_id": msg.ID, "meeting_id": job.MeetingID})
	if !ok {
		log.Warn("dropping malformed job")
		return
	}

	// Status updates outlive a shutdown so subscribers learn how the job ended.
	sctx := context.WithoutCancel(ctx)
	_ = publish(sctx, p.Redis, Status{Status: StatusProcessing, MeetingID: job.MeetingID, Message: "analysis started"})

	jctx := ctx
	if p.JobTimeout > 0 {
		var cancel context.CancelFunc
		jctx, cancel = context.WithTimeout(ctx, p.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	analysis, err := p.Runner.Run(jctx, job)
	if err != nil {
		if apperr.Fatal(err) {
			log.WithError(err).Error("analysis failed")
		} else {
			log.WithError(err).Warn("job rejected")
		}
		_ = publish(sctx, p.Redis, Status{Status: StatusFailed, MeetingID: job.MeetingID, Message: err.Error()})
		return
	}
	log.WithFields(logrus.Fields{"record_id": analysis.RecordID, "took": time.Since(start).String()}).Info("analysis stored")
	_ = publish(sctx, p.Redis, Status{
		Status:    StatusDone,
		MeetingID: job.MeetingID,
		Message:   "analysis complete",
		RecordID:  analysis.RecordID,
		Score:     analysis.EngagementScore,
	})
}
