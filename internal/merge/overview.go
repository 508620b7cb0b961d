package merge

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"consensus-bridge/internal/forum"
	"consensus-bridge/internal/model"
)

// Overview is everything shown on a topic page.
type Overview struct {
	Topic         model.Topic
	Wiki          *model.WikiRevision
	Revisions     []model.WikiRevision
	Contributors  []model.Contributor
	Graph         model.DocGraph
	Posts         []model.Post
	ArchivedCount int
	SolvedPostID  string

	// Best effort: nil/empty when signed out or when the call failed.
	User        *model.CurrentUser
	PendingJobs []model.MergeJob
	ActiveJob   *model.MergeJobDetail
}

// CanQuickMerge reports whether the viewer may merge replies directly.
func (o Overview) CanQuickMerge() bool {
	return o.User != nil && (o.User.IsAdminModerator || o.User.ID == o.Topic.UserID)
}

// Overview gathers a topic page. The topic, wiki, revisions, contributors,
// graph and replies are required; the viewer and merge jobs are not.
// activeJobID, when set, loads that job's detail as well.
func (w *Workflow) Overview(ctx context.Context, creds forum.Credentials, topicID, activeJobID string) (Overview, error) {
	var (
		wg    sync.WaitGroup
		ov    Overview
		topic *model.Topic
		posts model.PostList
		jobs  model.MergeJobList
		errs  [6]error
	)
	wg.Add(6)
	go func() { defer wg.Done(); topic, errs[0] = w.api.Topic(ctx, creds, topicID) }()
	go func() { defer wg.Done(); ov.Wiki, errs[1] = w.api.TopicWiki(ctx, creds, topicID) }()
	go func() { defer wg.Done(); ov.Revisions, errs[2] = w.api.TopicWikiRevisions(ctx, creds, topicID) }()
	go func() { defer wg.Done(); ov.Contributors, errs[3] = w.api.Contributors(ctx, creds, topicID) }()
	go func() { defer wg.Done(); ov.Graph, errs[4] = w.api.DocGraph(ctx, creds, topicID) }()
	go func() { defer wg.Done(); posts, errs[5] = w.api.TopicPosts(ctx, creds, topicID) }()

	if !creds.Empty() {
		var userErr, jobsErr error
		wg.Add(2)
		go func() { defer wg.Done(); ov.User, userErr = w.api.CurrentUser(ctx, creds) }()
		go func() { defer wg.Done(); jobs, jobsErr = w.api.TopicMergeJobs(ctx, creds, topicID) }()
		wg.Wait()
		if userErr != nil {
			slog.Warn("merge: overview user lookup failed", "topic_id", topicID, "err", userErr)
			ov.User = nil
		}
		if jobsErr != nil {
			slog.Warn("merge: overview merge jobs failed", "topic_id", topicID, "err", jobsErr)
		}
	} else {
		wg.Wait()
	}

	if err := errors.Join(errs[:]...); err != nil {
		return Overview{}, err
	}
	if topic == nil {
		return Overview{}, ErrTopicNotFound
	}
	ov.Topic = *topic
	ov.SolvedPostID = topic.Solved()
	ov.Posts = posts.List
	for _, p := range posts.List {
		if p.Archived() {
			ov.ArchivedCount++
		}
	}
	ov.PendingJobs = jobs.Pending()

	if jobID := NormalizeIDToken(activeJobID); jobID != "" && !creds.Empty() {
		detail, err := w.api.MergeJob(ctx, creds, topicID, jobID)
		if err != nil {
			slog.Warn("merge: active job lookup failed", "topic_id", topicID, "job_id", jobID, "err", err)
		} else {
			ov.ActiveJob = detail
		}
	}
	return ov, nil
}
