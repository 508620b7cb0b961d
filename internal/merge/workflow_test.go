package merge

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"consensus-bridge/internal/forum"
	"consensus-bridge/internal/model"
)

func creds(token string) forum.Credentials { return forum.Credentials{Token: token} }

func TestMergeReplyOwnerQuickMerge(t *testing.T) {
	f := newFakeForum()
	w := New(f)
	out, err := w.MergeReply(context.Background(), creds("owner"), "t1", "p1")
	if err != nil {
		t.Fatalf("MergeReply: %v", err)
	}
	if out.Kind != OutcomeMerged || out.JobID == "" || out.RevisionID == "" {
		t.Fatalf("outcome = %+v", out)
	}
	if f.creates != 1 || len(f.applies) != 1 {
		t.Errorf("creates=%d applies=%d, want 1/1", f.creates, len(f.applies))
	}
	if f.posts["t1"][0].MergeState != model.MergeStateArchived {
		t.Errorf("p1 merge_state = %q", f.posts["t1"][0].MergeState)
	}
	if f.topics["t1"].CurrentWikiRevisionID != out.RevisionID {
		t.Errorf("wiki head = %q, want %q", f.topics["t1"].CurrentWikiRevisionID, out.RevisionID)
	}
	rev := f.wikis["t1"]
	if rev.Title != "Topic one" || rev.Document != "<p>reply</p>" || rev.Summary != "Quick merged reply p1" {
		t.Errorf("revision = %+v", rev)
	}
	if j := f.jobs[out.JobID]; j.Summary != "Quick merge reply p1" {
		t.Errorf("job summary = %q", j.Summary)
	}
}

func TestMergeReplyModeratorUsesWikiHead(t *testing.T) {
	f := newFakeForum()
	f.wikis["t1"] = &model.WikiRevision{ID: "r0", Title: "Guide", Document: "existing"}
	out, err := New(f).MergeReply(context.Background(), creds("mod"), "t1", "p1")
	if err != nil {
		t.Fatalf("MergeReply: %v", err)
	}
	rev := f.wikis["t1"]
	if rev.Title != "Guide" || rev.Document != "existing" || rev.ParentRevisionID != "r0" {
		t.Errorf("revision = %+v", rev)
	}
	if out.Notice() == "" {
		t.Errorf("empty notice")
	}
}

func TestMergeReplyTitleAndDocumentFallbacks(t *testing.T) {
	tests := []struct {
		name       string
		topicTitle string
		wiki       *model.WikiRevision
		parsed     string
		raw        string
		wantTitle  string
		wantDoc    string
	}{
		{"wiki head wins", "Topic one", &model.WikiRevision{ID: "r0", Title: "Guide", Document: "head"}, "<p>reply</p>", "reply", "Guide", "head"},
		{"blank wiki falls through", "Topic one", &model.WikiRevision{ID: "r0", Title: " ", Document: ""}, "<p>reply</p>", "reply", "Topic one", "<p>reply</p>"},
		{"raw text when parsed empty", "Topic one", nil, "", "plain reply", "Topic one", "plain reply"},
		{"placeholder when both empty", "Topic one", nil, "", "  ", "Topic one", "Merged from reply p1"},
		{"topic id when title empty", "", nil, "", "", "Topic t1", "Merged from reply p1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeForum()
			f.topics["t1"].Title = tt.topicTitle
			if tt.wiki != nil {
				f.wikis["t1"] = tt.wiki
			}
			f.posts["t1"][0].ParsedText = tt.parsed
			f.posts["t1"][0].OriginalText = tt.raw

			if _, err := New(f).MergeReply(context.Background(), creds("owner"), "t1", "p1"); err != nil {
				t.Fatalf("MergeReply: %v", err)
			}
			rev := f.wikis["t1"]
			if rev.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", rev.Title, tt.wantTitle)
			}
			if rev.Document != tt.wantDoc {
				t.Errorf("document = %q, want %q", rev.Document, tt.wantDoc)
			}
		})
	}
}

func TestMergeReplyAuthorProposes(t *testing.T) {
	f := newFakeForum()
	out, err := New(f).MergeReply(context.Background(), creds("author"), "t1", "p1")
	if err != nil {
		t.Fatalf("MergeReply: %v", err)
	}
	if out.Kind != OutcomeProposal {
		t.Fatalf("kind = %q, want proposal", out.Kind)
	}
	if f.creates != 1 || len(f.applies) != 0 {
		t.Errorf("creates=%d applies=%d, want 1/0", f.creates, len(f.applies))
	}
	j := f.jobs[out.JobID]
	if j.Status != model.MergeJobPending || j.Summary != "Merge proposal for reply p1" {
		t.Errorf("job = %+v", j)
	}
	if f.posts["t1"][0].Archived() {
		t.Errorf("proposal must not archive the reply")
	}
}

func TestMergeReplyPermissionDenied(t *testing.T) {
	f := newFakeForum()
	_, err := New(f).MergeReply(context.Background(), creds("other"), "t1", "p1")
	var perm *forum.PermissionError
	if !errors.As(err, &perm) {
		t.Fatalf("err = %v, want PermissionError", err)
	}
	if f.writes() != 0 {
		t.Errorf("writes = %d, want 0", f.writes())
	}
}

func TestMergeReplyAlreadyMerged(t *testing.T) {
	f := newFakeForum()
	f.posts["t1"][0].MergeState = model.MergeStateArchived
	out, err := New(f).MergeReply(context.Background(), creds("owner"), "t1", "p1")
	if err != nil {
		t.Fatalf("MergeReply: %v", err)
	}
	if out.Kind != OutcomeAlreadyMerged {
		t.Errorf("kind = %q", out.Kind)
	}
	if f.writes() != 0 {
		t.Errorf("writes = %d, want 0", f.writes())
	}
}

func TestMergeReplyIsIdempotent(t *testing.T) {
	f := newFakeForum()
	w := New(f)
	if _, err := w.MergeReply(context.Background(), creds("owner"), "t1", "p1"); err != nil {
		t.Fatalf("first MergeReply: %v", err)
	}
	before := f.writes()
	out, err := w.MergeReply(context.Background(), creds("owner"), "t1", "p1")
	if err != nil || out.Kind != OutcomeAlreadyMerged {
		t.Fatalf("second MergeReply = %+v, %v", out, err)
	}
	if f.writes() != before {
		t.Errorf("second run wrote %d times", f.writes()-before)
	}
}

func TestMergeReplyGatherFailures(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		topicID string
		postID  string
		want    error
	}{
		{"missing topic", "owner", "nope", "p1", ErrTopicNotFound},
		{"unknown user", "stranger", "t1", "p1", ErrLoginRequired},
		{"missing reply", "owner", "t1", "p404", ErrReplyNotFound},
	}
	for _, tt := range tests {
		f := newFakeForum()
		_, err := New(f).MergeReply(context.Background(), creds(tt.token), tt.topicID, tt.postID)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
		if f.writes() != 0 {
			t.Errorf("%s: writes = %d", tt.name, f.writes())
		}
	}
}

func TestMergeReplyOrphanJob(t *testing.T) {
	f := newFakeForum()
	f.applyErr = &forum.APIError{Status: 500, Message: "db down"}
	_, err := New(f).MergeReply(context.Background(), creds("owner"), "t1", "p1")
	var orphan *OrphanJobError
	if !errors.As(err, &orphan) {
		t.Fatalf("err = %v, want OrphanJobError", err)
	}
	if j, ok := f.jobs[orphan.JobID]; !ok || j.Status != model.MergeJobPending {
		t.Errorf("orphan job = %+v", j)
	}
	if f.posts["t1"][0].Archived() {
		t.Errorf("reply archived despite failed apply")
	}
	msg := Message("Merge", err)
	if !strings.Contains(msg, orphan.JobID) || !strings.HasPrefix(msg, "Merge failed: db down") {
		t.Errorf("Message = %q", msg)
	}
}

func TestApplyOnlyAfterCreate(t *testing.T) {
	f := newFakeForum()
	if _, err := New(f).MergeReply(context.Background(), creds("mod"), "t1", "p1"); err != nil {
		t.Fatalf("MergeReply: %v", err)
	}
	for _, id := range f.applies {
		if _, ok := f.jobs[id]; !ok {
			t.Errorf("apply called with unknown job %q", id)
		}
	}
}

func TestValidationBeforeAnyCall(t *testing.T) {
	ctx := context.Background()
	f := newFakeForum()
	w := New(f)
	checks := map[string]error{
		"merge no creds":    func() error { _, err := w.MergeReply(ctx, forum.Credentials{}, "t1", "p1"); return err }(),
		"merge no post":     func() error { _, err := w.MergeReply(ctx, creds("owner"), "t1", " "); return err }(),
		"create no ids":     func() error { _, err := w.CreateMergeJob(ctx, creds("owner"), "t1", []string{" ", ","}, ""); return err }(),
		"apply no title":    func() error { _, err := w.ApplyMergeJob(ctx, creds("owner"), "t1", "j1", ApplyRequest{Document: "d"}); return err }(),
		"apply no job":      func() error { _, err := w.ApplyMergeJob(ctx, creds("owner"), "t1", "", ApplyRequest{Title: "t", Document: "d"}); return err }(),
		"revision no doc":   func() error { _, err := w.PublishRevision(ctx, creds("owner"), "t1", RevisionRequest{Title: "t"}); return err }(),
		"vote no creds":     w.VoteTopic(ctx, forum.Credentials{}, "t1", 1),
		"solution no post":  w.SetTopicSolution(ctx, creds("owner"), "t1", ""),
		"post empty":        func() error { _, err := w.CreatePost(ctx, creds("owner"), "t1", "  "); return err }(),
		"topic empty title": func() error { _, err := w.CreateTopic(ctx, creds("owner"), "c1", "", "", false); return err }(),
		"category no slug":  func() error { _, err := w.CreateCategory(ctx, creds("owner"), forum.CategoryInput{Name: "n"}, false); return err }(),
		"login no password": func() error { _, err := w.Login(ctx, "a@b.c", ""); return err }(),
	}
	for name, err := range checks {
		var v *forum.ValidationError
		if !errors.As(err, &v) {
			t.Errorf("%s: err = %v, want ValidationError", name, err)
		}
	}
	if f.calls != 0 || f.writes() != 0 {
		t.Errorf("calls=%d writes=%d, want 0", f.calls, f.writes())
	}
}

func TestCreateMergeJobDedups(t *testing.T) {
	f := newFakeForum()
	job, err := New(f).CreateMergeJob(context.Background(), creds("owner"), "t1", []string{"p1", " p2 ", "p1,p3"}, " s ")
	if err != nil {
		t.Fatalf("CreateMergeJob: %v", err)
	}
	if want := []string{"p1", "p2", "p3"}; !reflect.DeepEqual(f.jobPosts[job.ID], want) {
		t.Errorf("post ids = %v, want %v", f.jobPosts[job.ID], want)
	}
	if job.Summary != "s" {
		t.Errorf("summary = %q", job.Summary)
	}
}

func TestVotesAreCoerced(t *testing.T) {
	f := newFakeForum()
	w := New(f)
	for _, v := range []any{-1, "-1", 0, 5, "abc", -2, nil} {
		if err := w.VoteTopic(context.Background(), creds("owner"), "t1", v); err != nil {
			t.Fatalf("VoteTopic(%v): %v", v, err)
		}
	}
	if err := w.VotePost(context.Background(), creds("owner"), "p1", -1.0); err != nil {
		t.Fatalf("VotePost: %v", err)
	}
	want := []int{-1, -1, 1, 1, 1, 1, 1, -1}
	if !reflect.DeepEqual(f.votes, want) {
		t.Errorf("votes = %v, want %v", f.votes, want)
	}
}

type stubSummarizer struct{ text string }

func (s stubSummarizer) SummarizeRevision(context.Context, string, string) (string, error) {
	return s.text, nil
}

func TestPublishRevisionDraftsSummary(t *testing.T) {
	f := newFakeForum()
	w := New(f).WithSummarizer(stubSummarizer{text: "drafted"})
	_, err := w.PublishRevision(context.Background(), creds("owner"), "t1", RevisionRequest{
		Title: "T", Document: "D", SourcePostIDs: []string{"p1", "p1"}, DraftSummary: true,
	})
	if err != nil {
		t.Fatalf("PublishRevision: %v", err)
	}
	got := f.revisions[0]
	if got.Summary != "drafted" || !reflect.DeepEqual(got.SourcePostIDs, []string{"p1"}) {
		t.Errorf("revision input = %+v", got)
	}
}

func TestCreateTopicMissingParent(t *testing.T) {
	_, err := New(newFakeForum()).CreateTopic(context.Background(), creds("owner"), "missing", "Title", "knowledge", true)
	if !errors.Is(err, ErrParentNotFound) {
		t.Fatalf("err = %v, want ErrParentNotFound", err)
	}
	if msg := Message("Create topic", err); !strings.HasSuffix(msg, "Create a category first.") {
		t.Errorf("Message = %q", msg)
	}
}

func TestLoginRequiresToken(t *testing.T) {
	w := New(newFakeForum())
	if _, err := w.Login(context.Background(), "empty@example.com", "pw"); err == nil {
		t.Errorf("expected error when backend returns no token")
	}
	res, err := w.Login(context.Background(), "a@example.com", "pw")
	if err != nil || res.AccessToken != "tok" {
		t.Errorf("Login = %+v, %v", res, err)
	}
}

func TestOverview(t *testing.T) {
	f := newFakeForum()
	f.topics["t1"].SolvedPostID = "0"
	w := New(f)
	job, _ := w.CreateMergeJob(context.Background(), creds("author"), "t1", []string{"p1"}, "")

	ov, err := w.Overview(context.Background(), creds("owner"), "t1", job.ID)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.SolvedPostID != "" {
		t.Errorf("SolvedPostID = %q, want empty for \"0\"", ov.SolvedPostID)
	}
	if !ov.CanQuickMerge() {
		t.Errorf("owner should be able to quick-merge")
	}
	if len(ov.PendingJobs) != 1 || ov.ActiveJob == nil || ov.ActiveJob.Job.ID != job.ID {
		t.Errorf("jobs = %+v active = %+v", ov.PendingJobs, ov.ActiveJob)
	}

	anon, err := w.Overview(context.Background(), forum.Credentials{}, "t1", job.ID)
	if err != nil {
		t.Fatalf("Overview anonymous: %v", err)
	}
	if anon.User != nil || anon.ActiveJob != nil || anon.CanQuickMerge() {
		t.Errorf("anonymous overview = %+v", anon)
	}

	if _, err := w.Overview(context.Background(), creds("owner"), "nope", ""); !errors.Is(err, ErrTopicNotFound) {
		t.Errorf("Overview(nope) err = %v", err)
	}
}
