// Package merge orchestrates the forum workflows that span several calls:
// folding a reply into the topic wiki, proposing merges, and the single-call
// actions (votes, solutions, revisions) that share the same trust boundary.
package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"consensus-bridge/internal/ai"
	"consensus-bridge/internal/forum"
	"consensus-bridge/internal/model"
)

// Reader is the read side of the forum service.
type Reader interface {
	Topic(ctx context.Context, creds forum.Credentials, topicID string) (*model.Topic, error)
	TopicWiki(ctx context.Context, creds forum.Credentials, topicID string) (*model.WikiRevision, error)
	TopicWikiRevisions(ctx context.Context, creds forum.Credentials, topicID string) ([]model.WikiRevision, error)
	TopicPosts(ctx context.Context, creds forum.Credentials, topicID string) (model.PostList, error)
	TopicMergeJobs(ctx context.Context, creds forum.Credentials, topicID string) (model.MergeJobList, error)
	MergeJob(ctx context.Context, creds forum.Credentials, topicID, jobID string) (*model.MergeJobDetail, error)
	Contributors(ctx context.Context, creds forum.Credentials, topicID string) ([]model.Contributor, error)
	DocGraph(ctx context.Context, creds forum.Credentials, rootTopicID string) (model.DocGraph, error)
	CurrentUser(ctx context.Context, creds forum.Credentials) (*model.CurrentUser, error)
}

// Writer is the mutating side of the forum service.
type Writer interface {
	CreateCategory(ctx context.Context, creds forum.Credentials, in forum.CategoryInput) (model.Category, error)
	CreateBoard(ctx context.Context, creds forum.Credentials, in forum.CategoryInput) (model.Board, error)
	CreateTopic(ctx context.Context, creds forum.Credentials, in forum.TopicInput) (model.Topic, error)
	CreatePost(ctx context.Context, creds forum.Credentials, topicID, text string) (model.Post, error)
	CreateMergeJob(ctx context.Context, creds forum.Credentials, topicID string, postIDs []string, summary string) (model.MergeJob, error)
	ApplyMergeJob(ctx context.Context, creds forum.Credentials, topicID, jobID string, in forum.ApplyInput) (model.WikiRevision, error)
	VoteTopic(ctx context.Context, creds forum.Credentials, topicID string, value int) error
	VotePost(ctx context.Context, creds forum.Credentials, postID string, value int) error
	SetTopicSolution(ctx context.Context, creds forum.Credentials, topicID, postID string) error
	CreateWikiRevision(ctx context.Context, creds forum.Credentials, topicID string, in forum.RevisionInput) (model.WikiRevision, error)
	Login(ctx context.Context, email, pass string) (model.LoginResult, error)
}

// Backend is everything the workflows need from the forum service.
type Backend interface {
	Reader
	Writer
}

var (
	// ErrLoginRequired is returned before any call when credentials are missing,
	// and after Gather when they do not resolve to a user.
	ErrLoginRequired = &forum.ValidationError{Message: "login required"}
	ErrTopicNotFound = errors.New("topic not found")
	ErrReplyNotFound = errors.New("reply not found")
	// ErrParentNotFound marks a topic created under a missing category/board.
	ErrParentNotFound = errors.New("category not found")
)

// OrphanJobError reports a merge job that was created but never applied.
// The job stays pending upstream; it can be applied later from the pending
// jobs list.
type OrphanJobError struct {
	JobID string
	Err   error
}

func (e *OrphanJobError) Error() string {
	return fmt.Sprintf("merge job %s left pending: %v", e.JobID, e.Err)
}

func (e *OrphanJobError) Unwrap() error { return e.Err }

// Workflow runs forum workflows against a Backend. It holds no per-user state.
type Workflow struct {
	api        Backend
	summarizer ai.Summarizer
}

func New(api Backend) *Workflow {
	return &Workflow{api: api}
}

// WithSummarizer enables drafting of empty revision summaries.
func (w *Workflow) WithSummarizer(s ai.Summarizer) *Workflow {
	w2 := *w
	w2.summarizer = s
	return &w2
}

func requireCreds(creds forum.Credentials) error {
	if creds.Empty() {
		return ErrLoginRequired
	}
	return nil
}

func invalid(format string, args ...any) error {
	return &forum.ValidationError{Message: fmt.Sprintf(format, args...)}
}

// CreateMergeJob proposes merging postIDs into the topic wiki. Ids are trimmed
// and deduplicated; at least one is required.
func (w *Workflow) CreateMergeJob(ctx context.Context, creds forum.Credentials, topicID string, postIDs []string, summary string) (model.MergeJob, error) {
	if err := requireCreds(creds); err != nil {
		return model.MergeJob{}, err
	}
	ids := DedupIDs(postIDs)
	if len(ids) == 0 {
		return model.MergeJob{}, invalid("add at least one reply id")
	}
	job, err := w.api.CreateMergeJob(ctx, creds, topicID, ids, strings.TrimSpace(summary))
	if err != nil {
		return model.MergeJob{}, err
	}
	if job.ID == "" {
		return job, errors.New("invalid backend response (missing merge job id)")
	}
	slog.Info("merge: job created", "topic_id", topicID, "job_id", job.ID, "posts", ids)
	return job, nil
}

// ApplyRequest is the caller input for applying a merge job. Weight accepts
// any loosely typed value and is coerced with CoerceWeight.
type ApplyRequest struct {
	Title        string
	Document     string
	Summary      string
	Weight       any
	DraftSummary bool
}

// ApplyMergeJob publishes the job's revision and archives its replies.
func (w *Workflow) ApplyMergeJob(ctx context.Context, creds forum.Credentials, topicID, jobID string, in ApplyRequest) (model.WikiRevision, error) {
	if err := requireCreds(creds); err != nil {
		return model.WikiRevision{}, err
	}
	jobID = NormalizeIDToken(jobID)
	if jobID == "" {
		return model.WikiRevision{}, invalid("missing merge job id")
	}
	title := strings.TrimSpace(in.Title)
	document := strings.TrimSpace(in.Document)
	if title == "" || document == "" {
		return model.WikiRevision{}, invalid("title and document are required")
	}
	summary := strings.TrimSpace(in.Summary)
	if summary == "" && in.DraftSummary {
		summary = w.draftSummary(ctx, title, document)
	}
	rev, err := w.api.ApplyMergeJob(ctx, creds, topicID, jobID, forum.ApplyInput{
		Title:              title,
		Document:           document,
		Summary:            summary,
		ContributionWeight: CoerceWeight(in.Weight),
	})
	if err != nil {
		return model.WikiRevision{}, err
	}
	slog.Info("merge: job applied", "topic_id", topicID, "job_id", jobID, "revision_id", rev.ID)
	return rev, nil
}

// RevisionRequest publishes a wiki revision without a merge job.
type RevisionRequest struct {
	Title         string
	Document      string
	Summary       string
	SourcePostIDs []string
	DraftSummary  bool
}

func (w *Workflow) PublishRevision(ctx context.Context, creds forum.Credentials, topicID string, in RevisionRequest) (model.WikiRevision, error) {
	if err := requireCreds(creds); err != nil {
		return model.WikiRevision{}, err
	}
	title := strings.TrimSpace(in.Title)
	document := strings.TrimSpace(in.Document)
	if title == "" || document == "" {
		return model.WikiRevision{}, invalid("title and document are required")
	}
	summary := strings.TrimSpace(in.Summary)
	if summary == "" && in.DraftSummary {
		summary = w.draftSummary(ctx, title, document)
	}
	return w.api.CreateWikiRevision(ctx, creds, topicID, forum.RevisionInput{
		Title:         title,
		Document:      document,
		Summary:       summary,
		SourcePostIDs: DedupIDs(in.SourcePostIDs),
	})
}

// VoteTopic votes on a topic; see CoerceVote for accepted values.
func (w *Workflow) VoteTopic(ctx context.Context, creds forum.Credentials, topicID string, value any) error {
	if err := requireCreds(creds); err != nil {
		return err
	}
	return w.api.VoteTopic(ctx, creds, topicID, CoerceVote(value))
}

func (w *Workflow) VotePost(ctx context.Context, creds forum.Credentials, postID string, value any) error {
	if err := requireCreds(creds); err != nil {
		return err
	}
	postID = NormalizeIDToken(postID)
	if postID == "" {
		return invalid("missing reply id")
	}
	return w.api.VotePost(ctx, creds, postID, CoerceVote(value))
}

// SetTopicSolution marks a reply as the accepted answer. Whether the reply
// belongs to the topic is checked by the service.
func (w *Workflow) SetTopicSolution(ctx context.Context, creds forum.Credentials, topicID, postID string) error {
	if err := requireCreds(creds); err != nil {
		return err
	}
	postID = NormalizeIDToken(postID)
	if postID == "" {
		return invalid("missing reply id")
	}
	return w.api.SetTopicSolution(ctx, creds, topicID, postID)
}

func (w *Workflow) CreatePost(ctx context.Context, creds forum.Credentials, topicID, text string) (model.Post, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Post{}, invalid("reply content is required")
	}
	if err := requireCreds(creds); err != nil {
		return model.Post{}, err
	}
	return w.api.CreatePost(ctx, creds, topicID, text)
}

// CreateTopic creates a topic under a category (or board). A 404 from the
// service is reported as ErrParentNotFound.
func (w *Workflow) CreateTopic(ctx context.Context, creds forum.Credentials, parentID, title, kind string, wikiEnabled bool) (model.Topic, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Topic{}, invalid("topic title is required")
	}
	if err := requireCreds(creds); err != nil {
		return model.Topic{}, err
	}
	topic, err := w.api.CreateTopic(ctx, creds, forum.TopicInput{
		ParentID:      parentID,
		Title:         title,
		Kind:          CoerceTopicKind(kind),
		IsWikiEnabled: wikiEnabled,
	})
	if err != nil {
		if apiErr, ok := forum.AsAPIError(err); ok && (apiErr.Status == 404 || strings.Contains(strings.ToLower(apiErr.Message), "object not found")) {
			return model.Topic{}, fmt.Errorf("%w: %w", ErrParentNotFound, err)
		}
		return model.Topic{}, err
	}
	if topic.ID == "" {
		return topic, errors.New("invalid backend response (missing topic id)")
	}
	return topic, nil
}

// CreateCategory creates a category; board selects the legacy board route.
func (w *Workflow) CreateCategory(ctx context.Context, creds forum.Credentials, in forum.CategoryInput, board bool) (model.Category, error) {
	in.Slug = strings.TrimSpace(in.Slug)
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Slug == "" || in.Name == "" {
		return model.Category{}, invalid("slug and name are required")
	}
	if err := requireCreds(creds); err != nil {
		return model.Category{}, err
	}
	if board {
		return w.api.CreateBoard(ctx, creds, in)
	}
	return w.api.CreateCategory(ctx, creds, in)
}

// Login exchanges email and password for an access token.
func (w *Workflow) Login(ctx context.Context, email, pass string) (model.LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || pass == "" {
		return model.LoginResult{}, invalid("email and password are required")
	}
	res, err := w.api.Login(ctx, email, pass)
	if err != nil {
		return model.LoginResult{}, err
	}
	if res.AccessToken == "" {
		return res, errors.New("token missing from backend response")
	}
	return res, nil
}

func (w *Workflow) draftSummary(ctx context.Context, title, document string) string {
	if w.summarizer == nil {
		return ""
	}
	s, err := w.summarizer.SummarizeRevision(ctx, title, document)
	if err != nil {
		slog.Warn("merge: summary draft failed", "err", err)
		return ""
	}
	return s
}
