package worker

import (
	"context"
	"log/slog"
	"time"

	"consensus-bridge/internal/forum"
	"consensus-bridge/internal/model"
	"consensus-bridge/internal/storage"
)

// JobLister lists the merge jobs of a topic.
type JobLister interface {
	TopicMergeJobs(ctx context.Context, creds forum.Credentials, topicID string) (model.MergeJobList, error)
}

// PendingLedger is the part of the store the watcher writes to.
type PendingLedger interface {
	RecordPending(ctx context.Context, job storage.PendingJob, ttl time.Duration) error
	ResolvePending(ctx context.Context, topicID, jobID string) error
	IsResolved(ctx context.Context, topicID, jobID string) (bool, error)
	Pending(ctx context.Context, topicID string) ([]storage.PendingJob, error)
}

// PendingJobWatcher keeps the ledger in line with the merge jobs of the
// configured topics: pending jobs are recorded, applied ones resolved.
type PendingJobWatcher struct {
	Jobs     JobLister
	Ledger   PendingLedger
	Creds    forum.Credentials
	Topics   []string
	Interval time.Duration
	TTL      time.Duration
}

func (w *PendingJobWatcher) Name() string { return "pending-job-watcher" }

func (w *PendingJobWatcher) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 5 * time.Minute
	}
	t := time.NewTicker(w.Interval)
	defer t.Stop()

	// initial run
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *PendingJobWatcher) runOnce(ctx context.Context) {
	for _, topicID := range w.Topics {
		if ctx.Err() != nil {
			return
		}
		pending, resolved, err := w.syncTopic(ctx, topicID)
		if err != nil {
			slog.Error("pending watcher: sync failed", "topic_id", topicID, "err", err)
			continue
		}
		slog.Info("pending watcher: synced", "topic_id", topicID, "pending", pending, "resolved", resolved)
	}
}

func (w *PendingJobWatcher) syncTopic(ctx context.Context, topicID string) (pending, resolved int, err error) {
	jobs, err := w.Jobs.TopicMergeJobs(ctx, w.Creds, topicID)
	if err != nil {
		return 0, 0, err
	}
	now := time.Now().UTC()
	for _, j := range jobs.Pending() {
		// The job list can lag behind an apply made through the gateway.
		done, err := w.Ledger.IsResolved(ctx, topicID, j.ID)
		if err != nil {
			return pending, resolved, err
		}
		if done {
			continue
		}
		entry := storage.PendingJob{TopicID: topicID, JobID: j.ID, Summary: j.Summary, SeenAt: now}
		if err := w.Ledger.RecordPending(ctx, entry, w.TTL); err != nil {
			return pending, resolved, err
		}
		pending++
	}
	known, err := w.Ledger.Pending(ctx, topicID)
	if err != nil {
		return pending, resolved, err
	}
	applied := map[string]bool{}
	for _, j := range jobs.List {
		if j.Applied() {
			applied[j.ID] = true
		}
	}
	for _, k := range known {
		if !applied[k.JobID] {
			continue
		}
		if err := w.Ledger.ResolvePending(ctx, topicID, k.JobID); err != nil {
			return pending, resolved, err
		}
		resolved++
	}
	return pending, resolved, nil
}
