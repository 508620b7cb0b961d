package forum

import (
	"context"
	"net/url"

	"consensus-bridge/internal/model"
	"consensus-bridge/internal/normalize"
)

func topicPath(topicID string, rest string) string {
	return PublicPrefix + "/topics/" + url.PathEscape(topicID) + rest
}

// Categories lists top-level categories.
func (c *Client) Categories(ctx context.Context, creds Credentials) ([]model.Category, error) {
	return fetch(ctx, c, Request{Path: PublicPrefix + "/categories", Creds: creds}, []model.Category{}, normalize.Categories)
}

// Boards lists boards on deployments that still use the board naming.
func (c *Client) Boards(ctx context.Context, creds Credentials) ([]model.Board, error) {
	return fetch(ctx, c, Request{Path: PublicPrefix + "/boards", Creds: creds}, []model.Board{}, normalize.Categories)
}

func (c *Client) CategoryTopics(ctx context.Context, creds Credentials, categoryID string) (model.TopicList, error) {
	p := PublicPrefix + "/categories/" + url.PathEscape(categoryID) + "/topics"
	return fetch(ctx, c, Request{Path: p, Creds: creds}, model.TopicList{List: []model.Topic{}}, normalize.TopicList)
}

func (c *Client) BoardTopics(ctx context.Context, creds Credentials, boardID string) (model.TopicList, error) {
	p := PublicPrefix + "/boards/" + url.PathEscape(boardID) + "/topics"
	return fetch(ctx, c, Request{Path: p, Creds: creds}, model.TopicList{List: []model.Topic{}}, normalize.TopicList)
}

// Topic returns nil when the topic does not exist.
func (c *Client) Topic(ctx context.Context, creds Credentials, topicID string) (*model.Topic, error) {
	return fetch(ctx, c, Request{Path: topicPath(topicID, ""), Creds: creds}, (*model.Topic)(nil), func(v any) *model.Topic {
		if normalize.Object(v) == nil {
			return nil
		}
		t := normalize.Topic(v)
		if t.ID == "" {
			return nil
		}
		return &t
	})
}

func (c *Client) TopicPosts(ctx context.Context, creds Credentials, topicID string) (model.PostList, error) {
	return fetch(ctx, c, Request{Path: topicPath(topicID, "/posts"), Creds: creds}, model.PostList{List: []model.Post{}}, normalize.PostList)
}

// TopicWiki returns the head revision, or nil when the topic has no wiki yet.
func (c *Client) TopicWiki(ctx context.Context, creds Credentials, topicID string) (*model.WikiRevision, error) {
	return fetch(ctx, c, Request{Path: topicPath(topicID, "/wiki"), Creds: creds}, (*model.WikiRevision)(nil), normalize.OptionalWikiRevision)
}

func (c *Client) TopicWikiRevisions(ctx context.Context, creds Credentials, topicID string) ([]model.WikiRevision, error) {
	return fetch(ctx, c, Request{Path: topicPath(topicID, "/wiki/revisions"), Creds: creds}, []model.WikiRevision{}, normalize.WikiRevisions)
}

func (c *Client) TopicMergeJobs(ctx context.Context, creds Credentials, topicID string) (model.MergeJobList, error) {
	return fetch(ctx, c, Request{Path: topicPath(topicID, "/merge-jobs"), Creds: creds}, model.MergeJobList{List: []model.MergeJob{}}, normalize.MergeJobList)
}

// MergeJob returns a job with its post refs, or nil when not found.
func (c *Client) MergeJob(ctx context.Context, creds Credentials, topicID, jobID string) (*model.MergeJobDetail, error) {
	p := topicPath(topicID, "/merge-jobs/"+url.PathEscape(jobID))
	return fetch(ctx, c, Request{Path: p, Creds: creds}, (*model.MergeJobDetail)(nil), func(v any) *model.MergeJobDetail {
		if normalize.Object(v) == nil {
			return nil
		}
		d := normalize.MergeJobDetail(v)
		if d.Job.ID == "" {
			return nil
		}
		return &d
	})
}

func (c *Client) Contributors(ctx context.Context, creds Credentials, topicID string) ([]model.Contributor, error) {
	return fetch(ctx, c, Request{Path: topicPath(topicID, "/contributors"), Creds: creds}, []model.Contributor{}, normalize.Contributors)
}

func (c *Client) DocGraph(ctx context.Context, creds Credentials, rootTopicID string) (model.DocGraph, error) {
	req := Request{
		Path:  PublicPrefix + "/docs/graph",
		Query: url.Values{"root_topic_id": {rootTopicID}},
		Creds: creds,
	}
	return fetch(ctx, c, req, model.DocGraph{Nodes: []string{}, Edges: []model.DocEdge{}}, normalize.DocGraph)
}

// CurrentUser returns nil when the credentials do not resolve to a user.
func (c *Client) CurrentUser(ctx context.Context, creds Credentials) (*model.CurrentUser, error) {
	return fetch(ctx, c, Request{Path: LegacyPrefix + "/user/info", Creds: creds}, (*model.CurrentUser)(nil), func(v any) *model.CurrentUser {
		u := normalize.CurrentUser(v)
		if u.ID == "" {
			return nil
		}
		return &u
	})
}

// CategoryInput creates a category or board.
type CategoryInput struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (c *Client) CreateCategory(ctx context.Context, creds Credentials, in CategoryInput) (model.Category, error) {
	return send(ctx, c, Request{Path: PublicPrefix + "/categories", Body: in, Creds: creds}, normalize.Category)
}

func (c *Client) CreateBoard(ctx context.Context, creds Credentials, in CategoryInput) (model.Board, error) {
	return send(ctx, c, Request{Path: PublicPrefix + "/boards", Body: in, Creds: creds}, normalize.Category)
}

// TopicInput creates a topic. The parent id is sent under both the category
// and the legacy board key.
type TopicInput struct {
	ParentID      string
	Title         string
	Kind          string
	IsWikiEnabled bool
}

func (c *Client) CreateTopic(ctx context.Context, creds Credentials, in TopicInput) (model.Topic, error) {
	body := map[string]any{
		"category_id":     in.ParentID,
		"board_id":        in.ParentID,
		"title":           in.Title,
		"topic_kind":      in.Kind,
		"is_wiki_enabled": in.IsWikiEnabled,
	}
	return send(ctx, c, Request{Path: PublicPrefix + "/topics", Body: body, Creds: creds}, normalize.Topic)
}

func (c *Client) CreatePost(ctx context.Context, creds Credentials, topicID, text string) (model.Post, error) {
	body := map[string]any{"original_text": text}
	return send(ctx, c, Request{Path: topicPath(topicID, "/posts"), Body: body, Creds: creds}, normalize.Post)
}

func (c *Client) CreateMergeJob(ctx context.Context, creds Credentials, topicID string, postIDs []string, summary string) (model.MergeJob, error) {
	body := map[string]any{"post_ids": postIDs, "summary": summary}
	return send(ctx, c, Request{Path: topicPath(topicID, "/merge-jobs"), Body: body, Creds: creds}, normalize.MergeJob)
}

// ApplyInput is the revision produced when a merge job is applied.
type ApplyInput struct {
	Title              string `json:"title"`
	Document           string `json:"document"`
	Summary            string `json:"summary"`
	ContributionWeight int    `json:"contribution_weight"`
}

func (c *Client) ApplyMergeJob(ctx context.Context, creds Credentials, topicID, jobID string, in ApplyInput) (model.WikiRevision, error) {
	p := topicPath(topicID, "/merge-jobs/"+url.PathEscape(jobID)+"/apply")
	return send(ctx, c, Request{Path: p, Body: in, Creds: creds}, normalize.WikiRevision)
}

func (c *Client) VoteTopic(ctx context.Context, creds Credentials, topicID string, value int) error {
	_, err := send(ctx, c, Request{Path: topicPath(topicID, "/votes"), Body: map[string]int{"value": value}, Creds: creds}, ignore)
	return err
}

func (c *Client) VotePost(ctx context.Context, creds Credentials, postID string, value int) error {
	p := PublicPrefix + "/posts/" + url.PathEscape(postID) + "/votes"
	_, err := send(ctx, c, Request{Path: p, Body: map[string]int{"value": value}, Creds: creds}, ignore)
	return err
}

func (c *Client) SetTopicSolution(ctx context.Context, creds Credentials, topicID, postID string) error {
	_, err := send(ctx, c, Request{Path: topicPath(topicID, "/solution"), Body: map[string]string{"post_id": postID}, Creds: creds}, ignore)
	return err
}

// RevisionInput publishes a wiki revision directly.
type RevisionInput struct {
	Title         string   `json:"title"`
	Document      string   `json:"document"`
	Summary       string   `json:"summary"`
	SourcePostIDs []string `json:"source_post_ids"`
}

func (c *Client) CreateWikiRevision(ctx context.Context, creds Credentials, topicID string, in RevisionInput) (model.WikiRevision, error) {
	if in.SourcePostIDs == nil {
		in.SourcePostIDs = []string{}
	}
	return send(ctx, c, Request{Path: topicPath(topicID, "/wiki/revisions"), Body: in, Creds: creds}, normalize.WikiRevision)
}

// Login signs in with email and password and returns the access token.
func (c *Client) Login(ctx context.Context, email, pass string) (model.LoginResult, error) {
	body := map[string]string{"e_mail": email, "pass": pass}
	return send(ctx, c, Request{Path: LegacyPrefix + "/user/login/email", Body: body}, normalize.LoginResult)
}

func ignore(any) struct{} { return struct{}{} }
