package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"consensus-bridge/internal/forum"
	"consensus-bridge/internal/model"
)

// State names a step of a reply merge.
type State string

const (
	StateGather       State = "gather"
	StateShortCircuit State = "short_circuit"
	StateDecide       State = "decide"
	StatePropose      State = "propose"
	StateCommit       State = "commit"
	StateDone         State = "done"
)

// OutcomeKind is how a reply merge ended.
type OutcomeKind string

const (
	OutcomeMerged        OutcomeKind = "merged"
	OutcomeProposal      OutcomeKind = "proposal"
	OutcomeAlreadyMerged OutcomeKind = "already_merged"
)

// Outcome is the successful result of MergeReply.
type Outcome struct {
	Kind       OutcomeKind
	TopicID    string
	PostID     string
	JobID      string
	RevisionID string
}

// Notice is the message shown to the user after a successful run.
func (o Outcome) Notice() string {
	switch o.Kind {
	case OutcomeAlreadyMerged:
		return "Reply already merged."
	case OutcomeProposal:
		return fmt.Sprintf("Merge proposal submitted (job %s). A moderator will review it.", o.JobID)
	default:
		return fmt.Sprintf("Reply merged into the wiki (job %s).", o.JobID)
	}
}

// replyRun carries the data of one MergeReply call between states.
type replyRun struct {
	creds   forum.Credentials
	topicID string
	postID  string

	topic *model.Topic
	wiki  *model.WikiRevision
	post  model.Post
	user  *model.CurrentUser

	outcome Outcome
}

// MergeReply folds one reply into the topic wiki. Moderators and the topic
// owner merge immediately (create then apply a job); the reply's author gets
// a pending proposal; anyone else is refused without any write.
func (w *Workflow) MergeReply(ctx context.Context, creds forum.Credentials, topicID, postID string) (Outcome, error) {
	postID = NormalizeIDToken(postID)
	if postID == "" {
		return Outcome{}, invalid("missing reply id")
	}
	if err := requireCreds(creds); err != nil {
		return Outcome{}, err
	}
	run := &replyRun{creds: creds, topicID: topicID, postID: postID}
	run.outcome = Outcome{TopicID: topicID, PostID: postID}

	state := StateGather
	for state != StateDone {
		next, err := w.step(ctx, state, run)
		if err != nil {
			slog.Warn("merge: reply merge stopped", "state", state, "topic_id", topicID, "post_id", postID, "err", err)
			return Outcome{}, err
		}
		slog.Debug("merge: transition", "from", state, "to", next, "post_id", postID)
		state = next
	}
	return run.outcome, nil
}

func (w *Workflow) step(ctx context.Context, s State, run *replyRun) (State, error) {
	switch s {
	case StateGather:
		return w.gather(ctx, run)
	case StateShortCircuit:
		return shortCircuit(run), nil
	case StateDecide:
		return decide(run)
	case StatePropose:
		return w.propose(ctx, run)
	case StateCommit:
		return w.commit(ctx, run)
	}
	return StateDone, fmt.Errorf("unknown merge state %q", s)
}

func (w *Workflow) gather(ctx context.Context, run *replyRun) (State, error) {
	var (
		wg                          sync.WaitGroup
		posts                       model.PostList
		topicErr, wikiErr, postsErr error
		userErr                     error
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		run.topic, topicErr = w.api.Topic(ctx, run.creds, run.topicID)
	}()
	go func() {
		defer wg.Done()
		run.wiki, wikiErr = w.api.TopicWiki(ctx, run.creds, run.topicID)
	}()
	go func() {
		defer wg.Done()
		posts, postsErr = w.api.TopicPosts(ctx, run.creds, run.topicID)
	}()
	go func() {
		defer wg.Done()
		run.user, userErr = w.api.CurrentUser(ctx, run.creds)
	}()
	wg.Wait()

	if err := errors.Join(topicErr, wikiErr, postsErr); err != nil {
		return StateDone, err
	}
	if run.topic == nil {
		return StateDone, ErrTopicNotFound
	}
	if userErr != nil {
		if apiErr, ok := forum.AsAPIError(userErr); ok && apiErr.Unauthorized() {
			return StateDone, ErrLoginRequired
		}
		return StateDone, userErr
	}
	if run.user == nil || run.user.ID == "" {
		return StateDone, ErrLoginRequired
	}
	for _, p := range posts.List {
		if p.ID == run.postID {
			run.post = p
			return StateShortCircuit, nil
		}
	}
	return StateDone, ErrReplyNotFound
}

func shortCircuit(run *replyRun) State {
	if run.post.Archived() {
		run.outcome.Kind = OutcomeAlreadyMerged
		return StateDone
	}
	return StateDecide
}

func decide(run *replyRun) (State, error) {
	if run.user.IsAdminModerator || run.user.ID == run.topic.UserID {
		return StateCommit, nil
	}
	if run.user.ID == run.post.UserID {
		return StatePropose, nil
	}
	return StateDone, &forum.PermissionError{Message: "only moderators/topic wiki editors can quick-merge"}
}

func (w *Workflow) propose(ctx context.Context, run *replyRun) (State, error) {
	job, err := w.CreateMergeJob(ctx, run.creds, run.topicID, []string{run.postID}, "Merge proposal for reply "+run.postID)
	if err != nil {
		return StateDone, err
	}
	run.outcome.Kind = OutcomeProposal
	run.outcome.JobID = job.ID
	return StateDone, nil
}

func (w *Workflow) commit(ctx context.Context, run *replyRun) (State, error) {
	job, err := w.CreateMergeJob(ctx, run.creds, run.topicID, []string{run.postID}, "Quick merge reply "+run.postID)
	if err != nil {
		return StateDone, err
	}
	rev, err := w.ApplyMergeJob(ctx, run.creds, run.topicID, job.ID, ApplyRequest{
		Title:    mergeTitle(run),
		Document: mergeDocument(run),
		Summary:  "Quick merged reply " + run.postID,
		Weight:   DefaultWeight,
	})
	if err != nil {
		return StateDone, &OrphanJobError{JobID: job.ID, Err: err}
	}
	run.outcome.Kind = OutcomeMerged
	run.outcome.JobID = job.ID
	run.outcome.RevisionID = rev.ID
	return StateDone, nil
}

func mergeTitle(run *replyRun) string {
	if run.wiki != nil && strings.TrimSpace(run.wiki.Title) != "" {
		return run.wiki.Title
	}
	if strings.TrimSpace(run.topic.Title) != "" {
		return run.topic.Title
	}
	return "Topic " + run.topicID
}

func mergeDocument(run *replyRun) string {
	for _, s := range []string{wikiDocument(run.wiki), run.post.ParsedText, run.post.OriginalText} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return "Merged from reply " + run.postID
}

func wikiDocument(rev *model.WikiRevision) string {
	if rev == nil {
		return ""
	}
	return rev.Document
}
