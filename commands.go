package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfg "github.com/maastricht-university/meeting-engagement/config"
	"github.com/maastricht-university/meeting-engagement/logging"
	"github.com/maastricht-university/meeting-engagement/model"
	"github.com/maastricht-university/meeting-engagement/orchestrator"
	"github.com/maastricht-university/meeting-engagement/queue"
	"github.com/maastricht-university/meeting-engagement/store"
)

func (a *app) analyzeCmd() *cobra.Command {
	var meetingID, source string
	cmd := &cobra.Command{
		Use:   "analyze <audio>",
		Short: "Analyse one recording and store the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.config()
			if err != nil {
				return err
			}
			log := logging.New(c.Pipeline.LogLvl, c.Pipeline.LogFormat)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if c.Pipeline.JobTimeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, c.Pipeline.JobTimeout)
				defer cancel()
			}

			p, closeSink, err := a.pipeline(ctx, c, log)
			if err != nil {
				return err
			}
			defer func() { _ = closeSink(context.WithoutCancel(ctx)) }()

			res, err := p.Run(ctx, newJob(meetingID, source, args[0], false))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&meetingID, "meeting-id", "", "meeting identifier (random when empty)")
	cmd.Flags().StringVar(&source, "source", string(model.SourceLive), "live|teams")
	return cmd
}

func (a *app) workerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume analysis jobs from the Redis stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.config()
			if err != nil {
				return err
			}
			log := logging.New(c.Pipeline.LogLvl, c.Pipeline.LogFormat)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			p, closeSink, err := a.pipeline(ctx, c, log)
			if err != nil {
				return err
			}
			defer func() { _ = closeSink(context.WithoutCancel(ctx)) }()

			rdb := redis.NewClient(&redis.Options{Addr: c.Queue.RedisAddr})
			defer rdb.Close()
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis %s: %w", c.Queue.RedisAddr, err)
			}

			pool := &queue.WorkerPool{
				Redis:          rdb,
				Runner:         p,
				NumWorkers:     c.Queue.Consumers,
				JobTimeout:     c.Pipeline.JobTimeout,
				Logger:         log,
				Stream:         c.Queue.Stream,
				Group:          c.Queue.Group,
				ConsumerPrefix: c.Queue.ConsumerPrefix,
			}
			if err := pool.Start(ctx); err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"stream": c.Queue.Stream, "consumers": c.Queue.Consumers}).Info("worker started")
			<-ctx.Done()
			pool.Wait()
			log.Info("worker stopped")
			return nil
		},
	}
	cmd.Flags().Int("consumers", 0, "number of stream consumers")
	a.bind(cmd, map[string]string{"queue.consumers": "consumers"})
	return cmd
}

func (a *app) enqueueCmd() *cobra.Command {
	var meetingID, source string
	var owns bool
	cmd := &cobra.Command{
		Use:   "enqueue <audio>",
		Short: "Queue a recording for a worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.config()
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err != nil {
				return err
			}
			rdb := redis.NewClient(&redis.Options{Addr: c.Queue.RedisAddr})
			defer rdb.Close()

			job := newJob(meetingID, source, path, owns)
			id, err := (&queue.Producer{Redis: rdb, Stream: c.Queue.Stream}).Enqueue(cmd.Context(), job)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued meeting %s as %s\n", job.MeetingID, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&meetingID, "meeting-id", "", "meeting identifier (random when empty)")
	cmd.Flags().StringVar(&source, "source", string(model.SourceLive), "live|teams")
	cmd.Flags().BoolVar(&owns, "delete-audio", false, "let the worker delete the file when done")
	return cmd
}

func (a *app) pipeline(ctx context.Context, c *cfg.Root, log logrus.FieldLogger) (*orchestrator.Pipeline, func(context.Context) error, error) {
	sink, closeSink, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, nil, err
	}
	p, err := orchestrator.NewPipeline(c, sink, log)
	if err != nil {
		return nil, nil, errors.Join(err, closeSink(ctx))
	}
	return p, closeSink, nil
}

func newJob(meetingID, source, path string, owns bool) model.Job {
	if meetingID == "" {
		meetingID = uuid.NewString()
	}
	return model.Job{
		MeetingID:     meetingID,
		SourceType:    model.SourceType(source),
		AudioPath:     path,
		AudioFileName: filepath.Base(path),
		OwnsAudio:     owns,
	}
}
