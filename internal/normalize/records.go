package normalize

import "consensus-bridge/internal/model"

// Accepted key spellings per field, in priority order.
var (
	kID          = spellings("id")
	kCreatedAt   = spellings("created_at", "create_time", "created")
	kStatus      = spellings("status")
	kTitle       = spellings("title")
	kSummary     = spellings("summary")
	kTopicID     = spellings("topic_id")
	kUserID      = spellings("user_id", "owner_id", "author_id")
	kVoteCount   = spellings("vote_count", "votes")
	kBoardID     = spellings("board_id", "category_id")
	kTopicKind   = spellings("topic_kind", "kind")
	kWikiEnabled = spellings("is_wiki_enabled", "wiki_enabled")
	kCurrentRev  = spellings("current_wiki_revision_id", "current_revision_id")
	kSolvedPost  = spellings("solved_post_id", "solution_post_id")
	kPostCount   = spellings("post_count", "reply_count")
	kLastPostID  = spellings("last_post_id")
	kOriginal    = spellings("original_text", "content", "raw")
	kParsed      = spellings("parsed_text", "html")
	kMergeState  = spellings("merge_state")
	kArchivedAt  = spellings("archived_at")
	kEditorID    = spellings("editor_id", "user_id")
	kDocument    = spellings("document", "content")
	kParentRev   = spellings("parent_revision_id", "parent_id")
	kCreatorID   = spellings("creator_id", "user_id")
	kReviewerID  = spellings("reviewer_id")
	kAppliedRev  = spellings("applied_revision_id")
	kAppliedAt   = spellings("applied_at")
	kMergeJobID  = spellings("merge_job_id", "job_id")
	kPostID      = spellings("post_id")
	kWeight      = spellings("weight", "contribution_weight")
	kNodes       = spellings("nodes")
	kEdges       = spellings("edges", "links")
	kSourceTopic = spellings("source_topic_id", "source")
	kTargetTopic = spellings("target_topic_id", "target")
	kLinkType    = spellings("link_type", "type")
	kUsername    = spellings("username", "user_name")
	kDisplayName = spellings("display_name", "nickname")
	kRoleID      = spellings("role_id")
	kAccessToken = spellings("access_token", "token")
	kSlug        = spellings("slug")
	kName        = spellings("name")
	kDescription = spellings("description")
	kJob         = spellings("job", "merge_job")
	kPostRefs    = spellings("post_refs", "refs")

	kCode   = spellings("code")
	kReason = spellings("reason")
	kMsg    = spellings("msg", "message")
	kData   = spellings("data")
)

// Envelope splits the upstream response wrapper {code, reason, msg, data}.
// ok is false when v is not an object at all.
func Envelope(v any) (code int, reason, msg string, data any, ok bool) {
	m := Object(v)
	if m == nil {
		return 0, "", "", nil, false
	}
	data, _ = lookup(m, kData)
	return integer(m, kCode), str(m, kReason), str(m, kMsg), data, true
}

func Category(v any) model.Category {
	m := Object(v)
	return model.Category{
		ID:          str(m, kID),
		Slug:        str(m, kSlug),
		Name:        str(m, kName),
		Description: str(m, kDescription),
		CreatorID:   str(m, kCreatorID),
		Status:      integer(m, kStatus),
	}
}

func Categories(v any) []model.Category {
	items, _ := Items(v)
	out := make([]model.Category, 0, len(items))
	for _, it := range items {
		out = append(out, Category(it))
	}
	return out
}

func Topic(v any) model.Topic {
	m := Object(v)
	return model.Topic{
		ID:                    str(m, kID),
		BoardID:               str(m, kBoardID),
		UserID:                str(m, kUserID),
		Title:                 str(m, kTitle),
		Kind:                  str(m, kTopicKind),
		IsWikiEnabled:         boolean(m, kWikiEnabled),
		CurrentWikiRevisionID: str(m, kCurrentRev),
		SolvedPostID:          str(m, kSolvedPost),
		Status:                str(m, kStatus),
		PostCount:             integer(m, kPostCount),
		VoteCount:             integer(m, kVoteCount),
		LastPostID:            str(m, kLastPostID),
		CreatedAt:             str(m, kCreatedAt),
	}
}

func TopicList(v any) model.TopicList {
	items, total := Items(v)
	out := model.TopicList{List: make([]model.Topic, 0, len(items)), Total: total}
	for _, it := range items {
		out.List = append(out.List, Topic(it))
	}
	return out
}

func Post(v any) model.Post {
	m := Object(v)
	return model.Post{
		ID:           str(m, kID),
		TopicID:      str(m, kTopicID),
		UserID:       str(m, kUserID),
		OriginalText: str(m, kOriginal),
		ParsedText:   str(m, kParsed),
		MergeState:   str(m, kMergeState),
		ArchivedAt:   str(m, kArchivedAt),
		VoteCount:    integer(m, kVoteCount),
		Status:       integer(m, kStatus),
		CreatedAt:    str(m, kCreatedAt),
	}
}

func PostList(v any) model.PostList {
	items, total := Items(v)
	out := model.PostList{List: make([]model.Post, 0, len(items)), Total: total}
	for _, it := range items {
		out.List = append(out.List, Post(it))
	}
	return out
}

func WikiRevision(v any) model.WikiRevision {
	m := Object(v)
	return model.WikiRevision{
		ID:               str(m, kID),
		TopicID:          str(m, kTopicID),
		EditorID:         str(m, kEditorID),
		Title:            str(m, kTitle),
		Document:         str(m, kDocument),
		Summary:          str(m, kSummary),
		ParentRevisionID: str(m, kParentRev),
		CreatedAt:        str(m, kCreatedAt),
	}
}

// OptionalWikiRevision returns nil for a missing (null or id-less) revision.
func OptionalWikiRevision(v any) *model.WikiRevision {
	if Object(v) == nil {
		return nil
	}
	rev := WikiRevision(v)
	if rev.ID == "" || rev.ID == "0" {
		return nil
	}
	return &rev
}

func WikiRevisions(v any) []model.WikiRevision {
	items, _ := Items(v)
	out := make([]model.WikiRevision, 0, len(items))
	for _, it := range items {
		out = append(out, WikiRevision(it))
	}
	return out
}

func MergeJob(v any) model.MergeJob {
	m := Object(v)
	return model.MergeJob{
		ID:                str(m, kID),
		TopicID:           str(m, kTopicID),
		CreatorID:         str(m, kCreatorID),
		ReviewerID:        str(m, kReviewerID),
		Status:            str(m, kStatus),
		Summary:           str(m, kSummary),
		AppliedRevisionID: str(m, kAppliedRev),
		AppliedAt:         str(m, kAppliedAt),
		CreatedAt:         str(m, kCreatedAt),
	}
}

func MergeJobList(v any) model.MergeJobList {
	items, total := Items(v)
	out := model.MergeJobList{List: make([]model.MergeJob, 0, len(items)), Total: total}
	for _, it := range items {
		out.List = append(out.List, MergeJob(it))
	}
	return out
}

func MergeJobPostRef(v any) model.MergeJobPostRef {
	m := Object(v)
	return model.MergeJobPostRef{
		ID:         str(m, kID),
		MergeJobID: str(m, kMergeJobID),
		PostID:     str(m, kPostID),
		CreatedAt:  str(m, kCreatedAt),
	}
}

// MergeJobDetail accepts both {job, post_refs} and a bare job object.
func MergeJobDetail(v any) model.MergeJobDetail {
	m := Object(v)
	job := any(m)
	if j, ok := lookup(m, kJob); ok {
		job = j
	}
	var refs []model.MergeJobPostRef
	if raw, ok := lookup(m, kPostRefs); ok {
		items, _ := Items(raw)
		refs = make([]model.MergeJobPostRef, 0, len(items))
		for _, it := range items {
			refs = append(refs, MergeJobPostRef(it))
		}
	}
	return model.MergeJobDetail{Job: MergeJob(job), PostRefs: refs}
}

func Contributors(v any) []model.Contributor {
	items, _ := Items(v)
	out := make([]model.Contributor, 0, len(items))
	for _, it := range items {
		m := Object(it)
		out = append(out, model.Contributor{
			UserID: str(m, kUserID),
			Weight: integer(m, kWeight),
		})
	}
	return out
}

func DocGraph(v any) model.DocGraph {
	m := Object(v)
	g := model.DocGraph{Nodes: []string{}, Edges: []model.DocEdge{}}
	if raw, ok := lookup(m, kNodes); ok {
		g.Nodes = Strings(raw)
	}
	if raw, ok := lookup(m, kEdges); ok {
		items, _ := Items(raw)
		for _, it := range items {
			e := Object(it)
			g.Edges = append(g.Edges, model.DocEdge{
				ID:            str(e, kID),
				SourceTopicID: str(e, kSourceTopic),
				TargetTopicID: str(e, kTargetTopic),
				LinkType:      str(e, kLinkType),
			})
		}
	}
	return g
}

// CurrentUser derives IsAdminModerator from the role: 2 (admin) or 3 (moderator).
func CurrentUser(v any) model.CurrentUser {
	m := Object(v)
	role := integer(m, kRoleID)
	return model.CurrentUser{
		ID:               str(m, kID),
		Username:         str(m, kUsername),
		DisplayName:      str(m, kDisplayName),
		RoleID:           role,
		IsAdminModerator: role == 2 || role == 3,
	}
}

func LoginResult(v any) model.LoginResult {
	m := Object(v)
	return model.LoginResult{
		AccessToken: str(m, kAccessToken),
		UserID:      str(m, append(append([]string{}, kUserID...), kID...)),
		Username:    str(m, kUsername),
	}
}
