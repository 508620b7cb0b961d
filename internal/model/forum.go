package model

const (
	TopicKindDiscussion = "discussion"
	TopicKindKnowledge  = "knowledge"

	MergeStateArchived = "archived"

	MergeJobPending = "pending"
	MergeJobApplied = "applied"
)

// Category is a top-level grouping of topics.
type Category struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatorID   string `json:"creator_id"`
	Status      int    `json:"status"`
}

// Board is the legacy name of a category on older deployments.
type Board = Category

// Topic is a snapshot of a remote topic.
type Topic struct {
	ID                    string `json:"id"`
	BoardID               string `json:"board_id"`
	UserID                string `json:"user_id"`
	Title                 string `json:"title"`
	Kind                  string `json:"topic_kind"`
	IsWikiEnabled         bool   `json:"is_wiki_enabled"`
	CurrentWikiRevisionID string `json:"current_wiki_revision_id"`
	SolvedPostID          string `json:"solved_post_id"`
	Status                string `json:"status"`
	PostCount             int    `json:"post_count"`
	VoteCount             int    `json:"vote_count"`
	LastPostID            string `json:"last_post_id"`
	CreatedAt             string `json:"created_at"`
}

// Solved returns the accepted reply id, or "" when the topic is unsolved.
func (t Topic) Solved() string {
	if t.SolvedPostID == "0" {
		return ""
	}
	return t.SolvedPostID
}

// Post is a reply in a topic.
type Post struct {
	ID           string `json:"id"`
	TopicID      string `json:"topic_id"`
	UserID       string `json:"user_id"`
	OriginalText string `json:"original_text"`
	ParsedText   string `json:"parsed_text"`
	MergeState   string `json:"merge_state"`
	ArchivedAt   string `json:"archived_at,omitempty"`
	VoteCount    int    `json:"vote_count"`
	Status       int    `json:"status"`
	CreatedAt    string `json:"created_at"`
}

// Archived reports whether the reply was folded into a wiki revision.
// Archived replies cannot be voted on, solved or merged again.
func (p Post) Archived() bool {
	return p.MergeState == MergeStateArchived
}

// WikiRevision is one entry of a topic's parent-linked revision history.
type WikiRevision struct {
	ID               string `json:"id"`
	TopicID          string `json:"topic_id"`
	EditorID         string `json:"editor_id"`
	Title            string `json:"title"`
	Document         string `json:"document"`
	Summary          string `json:"summary"`
	ParentRevisionID string `json:"parent_revision_id"`
	CreatedAt        string `json:"created_at"`
}

// MergeJob folds a set of replies into a new wiki revision once applied.
type MergeJob struct {
	ID                string `json:"id"`
	TopicID           string `json:"topic_id"`
	CreatorID         string `json:"creator_id"`
	ReviewerID        string `json:"reviewer_id"`
	Status            string `json:"status"`
	Summary           string `json:"summary"`
	AppliedRevisionID string `json:"applied_revision_id"`
	AppliedAt         string `json:"applied_at,omitempty"`
	CreatedAt         string `json:"created_at"`
}

// Applied is true only for the terminal status. Unknown statuses count as pending.
func (j MergeJob) Applied() bool {
	return j.Status == MergeJobApplied
}

type MergeJobPostRef struct {
	ID         string `json:"id"`
	MergeJobID string `json:"merge_job_id"`
	PostID     string `json:"post_id"`
	CreatedAt  string `json:"created_at"`
}

// MergeJobDetail is a job together with the replies it proposes to merge.
type MergeJobDetail struct {
	Job      MergeJob          `json:"job"`
	PostRefs []MergeJobPostRef `json:"post_refs"`
}

type Contributor struct {
	UserID string `json:"user_id"`
	Weight int    `json:"weight"`
}

type DocEdge struct {
	ID            string `json:"id"`
	SourceTopicID string `json:"source_topic_id"`
	TargetTopicID string `json:"target_topic_id"`
	LinkType      string `json:"link_type"`
}

// DocGraph links related topics.
type DocGraph struct {
	Nodes []string  `json:"nodes"`
	Edges []DocEdge `json:"edges"`
}

// CurrentUser is the account behind the supplied credentials.
type CurrentUser struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	DisplayName      string `json:"display_name"`
	RoleID           int    `json:"role_id"`
	IsAdminModerator bool   `json:"is_admin_moderator"`
}

// LoginResult is returned by email/password sign in.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
}

type TopicList struct {
	List  []Topic `json:"list"`
	Total int     `json:"total"`
}

type PostList struct {
	List  []Post `json:"list"`
	Total int    `json:"total"`
}

type MergeJobList struct {
	List  []MergeJob `json:"list"`
	Total int        `json:"total"`
}

// Pending returns the jobs still waiting to be applied.
func (l MergeJobList) Pending() []MergeJob {
	out := make([]MergeJob, 0, len(l.List))
	for _, j := range l.List {
		if j.Status == MergeJobPending {
			out = append(out, j)
		}
	}
	return out
}
