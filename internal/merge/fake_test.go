package merge

import (
	"context"
	"fmt"
	"sync"

	"consensus-bridge/internal/forum"
	"consensus-bridge/internal/model"
)

// fakeForum is an in-memory forum service that records the writes it sees.
type fakeForum struct {
	mu sync.Mutex

	topics   map[string]*model.Topic
	wikis    map[string]*model.WikiRevision
	posts    map[string][]model.Post
	jobs     map[string]*model.MergeJob
	jobPosts map[string][]string
	users    map[string]*model.CurrentUser // by token

	creates   int
	applies   []string // job ids
	votes     []int
	solutions []string
	revisions []forum.RevisionInput
	applyErr  error
	nextID    int
	calls     int
}

func newFakeForum() *fakeForum {
	return &fakeForum{
		topics:   map[string]*model.Topic{"t1": {ID: "t1", UserID: "u1", Title: "Topic one"}},
		wikis:    map[string]*model.WikiRevision{},
		posts:    map[string][]model.Post{"t1": {{ID: "p1", TopicID: "t1", UserID: "u2", ParsedText: "<p>reply</p>", OriginalText: "reply"}}},
		jobs:     map[string]*model.MergeJob{},
		jobPosts: map[string][]string{},
		users: map[string]*model.CurrentUser{
			"owner":  {ID: "u1"},
			"author": {ID: "u2"},
			"mod":    {ID: "u9", RoleID: 2, IsAdminModerator: true},
			"other":  {ID: "u3"},
		},
	}
}

func (f *fakeForum) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *fakeForum) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates + len(f.applies) + len(f.votes) + len(f.solutions) + len(f.revisions)
}

func (f *fakeForum) Topic(_ context.Context, _ forum.Credentials, topicID string) (*model.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if t, ok := f.topics[topicID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeForum) TopicWiki(_ context.Context, _ forum.Credentials, topicID string) (*model.WikiRevision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.wikis[topicID], nil
}

func (f *fakeForum) TopicWikiRevisions(_ context.Context, _ forum.Credentials, topicID string) ([]model.WikiRevision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if w := f.wikis[topicID]; w != nil {
		return []model.WikiRevision{*w}, nil
	}
	return []model.WikiRevision{}, nil
}

func (f *fakeForum) TopicPosts(_ context.Context, _ forum.Credentials, topicID string) (model.PostList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	list := append([]model.Post{}, f.posts[topicID]...)
	return model.PostList{List: list, Total: len(list)}, nil
}

func (f *fakeForum) TopicMergeJobs(_ context.Context, _ forum.Credentials, topicID string) (model.MergeJobList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := model.MergeJobList{List: []model.MergeJob{}}
	for _, j := range f.jobs {
		if j.TopicID == topicID {
			out.List = append(out.List, *j)
		}
	}
	out.Total = len(out.List)
	return out, nil
}

func (f *fakeForum) MergeJob(_ context.Context, _ forum.Credentials, _ string, jobID string) (*model.MergeJobDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	j, ok := f.jobs[jobID]
	if !ok {
		return nil, nil
	}
	d := &model.MergeJobDetail{Job: *j}
	for _, p := range f.jobPosts[jobID] {
		d.PostRefs = append(d.PostRefs, model.MergeJobPostRef{MergeJobID: jobID, PostID: p})
	}
	return d, nil
}

func (f *fakeForum) Contributors(context.Context, forum.Credentials, string) ([]model.Contributor, error) {
	return []model.Contributor{}, nil
}

func (f *fakeForum) DocGraph(context.Context, forum.Credentials, string) (model.DocGraph, error) {
	return model.DocGraph{Nodes: []string{}, Edges: []model.DocEdge{}}, nil
}

func (f *fakeForum) CurrentUser(_ context.Context, creds forum.Credentials) (*model.CurrentUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if u, ok := f.users[creds.Token]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeForum) CreateCategory(_ context.Context, _ forum.Credentials, in forum.CategoryInput) (model.Category, error) {
	return model.Category{ID: "c1", Slug: in.Slug, Name: in.Name}, nil
}

func (f *fakeForum) CreateBoard(_ context.Context, _ forum.Credentials, in forum.CategoryInput) (model.Board, error) {
	return model.Board{ID: "b1", Slug: in.Slug, Name: in.Name}, nil
}

func (f *fakeForum) CreateTopic(_ context.Context, _ forum.Credentials, in forum.TopicInput) (model.Topic, error) {
	if in.ParentID == "missing" {
		return model.Topic{}, &forum.APIError{Status: 404, Message: "object not found"}
	}
	return model.Topic{ID: "t9", Title: in.Title, Kind: in.Kind}, nil
}

func (f *fakeForum) CreatePost(_ context.Context, _ forum.Credentials, topicID, text string) (model.Post, error) {
	return model.Post{ID: "p9", TopicID: topicID, OriginalText: text}, nil
}

func (f *fakeForum) CreateMergeJob(_ context.Context, _ forum.Credentials, topicID string, postIDs []string, summary string) (model.MergeJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	j := &model.MergeJob{ID: f.id("j"), TopicID: topicID, Status: model.MergeJobPending, Summary: summary}
	f.jobs[j.ID] = j
	f.jobPosts[j.ID] = postIDs
	return *j, nil
}

func (f *fakeForum) ApplyMergeJob(_ context.Context, _ forum.Credentials, topicID, jobID string, in forum.ApplyInput) (model.WikiRevision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applies = append(f.applies, jobID)
	if f.applyErr != nil {
		return model.WikiRevision{}, f.applyErr
	}
	j, ok := f.jobs[jobID]
	if !ok {
		return model.WikiRevision{}, &forum.APIError{Status: 404, Message: "merge job not found"}
	}
	rev := &model.WikiRevision{ID: f.id("r"), TopicID: topicID, Title: in.Title, Document: in.Document, Summary: in.Summary}
	if prev := f.wikis[topicID]; prev != nil {
		rev.ParentRevisionID = prev.ID
	}
	f.wikis[topicID] = rev
	f.topics[topicID].CurrentWikiRevisionID = rev.ID
	j.Status = model.MergeJobApplied
	j.AppliedRevisionID = rev.ID
	for _, pid := range f.jobPosts[jobID] {
		for i := range f.posts[topicID] {
			if f.posts[topicID][i].ID == pid {
				f.posts[topicID][i].MergeState = model.MergeStateArchived
			}
		}
	}
	return *rev, nil
}

func (f *fakeForum) VoteTopic(_ context.Context, _ forum.Credentials, _ string, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.votes = append(f.votes, value)
	return nil
}

func (f *fakeForum) VotePost(_ context.Context, _ forum.Credentials, _ string, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.votes = append(f.votes, value)
	return nil
}

func (f *fakeForum) SetTopicSolution(_ context.Context, _ forum.Credentials, _, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.solutions = append(f.solutions, postID)
	return nil
}

func (f *fakeForum) CreateWikiRevision(_ context.Context, _ forum.Credentials, topicID string, in forum.RevisionInput) (model.WikiRevision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revisions = append(f.revisions, in)
	return model.WikiRevision{ID: f.id("r"), TopicID: topicID, Title: in.Title, Document: in.Document}, nil
}

func (f *fakeForum) Login(_ context.Context, email, _ string) (model.LoginResult, error) {
	if email == "empty@example.com" {
		return model.LoginResult{}, nil
	}
	return model.LoginResult{AccessToken: "tok", UserID: "u1"}, nil
}
