package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"consensus-bridge/internal/forum"
	"consensus-bridge/internal/merge"
	"consensus-bridge/internal/storage"

	"github.com/gin-gonic/gin"
)

// JobLedger remembers merge jobs that were created but not applied, and
// forgets them once the gateway applies them.
type JobLedger interface {
	RecordPending(ctx context.Context, job storage.PendingJob, ttl time.Duration) error
	ResolvePending(ctx context.Context, topicID, jobID string) error
}

// Handler turns gateway requests into workflow calls. Credentials are read
// from each incoming request and forwarded as is.
type Handler struct {
	wf        *merge.Workflow
	ledger    JobLedger
	orphanTTL time.Duration
}

func NewHandler(wf *merge.Workflow) *Handler {
	return &Handler{wf: wf}
}

// WithLedger records orphaned quick-merge jobs into l and resolves jobs
// applied through the gateway.
func (h *Handler) WithLedger(l JobLedger, ttl time.Duration) *Handler {
	h.ledger = l
	h.orphanTTL = ttl
	return h
}

const modalMergeJob = "merge-job"

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail reports a workflow failure. The status stays 200; the body carries the message.
func fail(c *gin.Context, action string, err error) {
	body := gin.H{"error": merge.Message(action, err)}
	var orphan *merge.OrphanJobError
	if errors.As(err, &orphan) {
		body["merge_job_id"] = orphan.JobID
		body["modal"] = modalMergeJob
	}
	c.JSON(http.StatusOK, body)
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}

type mergeRequest struct {
	PostID any `json:"post_id"`
}

func (h *Handler) MergeReply(c *gin.Context) {
	topicID := c.Param("id")
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	out, err := h.wf.MergeReply(c.Request.Context(), forum.CredentialsFromRequest(c.Request), topicID, idString(req.PostID))
	if err != nil {
		h.recordOrphan(c.Request.Context(), topicID, err)
		fail(c, "Merge", err)
		return
	}
	if out.Kind == merge.OutcomeMerged {
		h.resolveJob(c.Request.Context(), topicID, out.JobID)
	}
	body := gin.H{"notice": out.Notice()}
	if out.JobID != "" {
		body["merge_job_id"] = out.JobID
	}
	if out.Kind == merge.OutcomeProposal {
		body["modal"] = modalMergeJob
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) recordOrphan(ctx context.Context, topicID string, err error) {
	var orphan *merge.OrphanJobError
	if h.ledger == nil || !errors.As(err, &orphan) {
		return
	}
	entry := storage.PendingJob{TopicID: topicID, JobID: orphan.JobID, Orphan: true, LastError: orphan.Err.Error()}
	if rerr := h.ledger.RecordPending(ctx, entry, h.orphanTTL); rerr != nil {
		slog.Error("gateway: record orphan job failed", "topic_id", topicID, "job_id", orphan.JobID, "err", rerr)
	}
}

func (h *Handler) resolveJob(ctx context.Context, topicID, jobID string) {
	if h.ledger == nil || jobID == "" {
		return
	}
	if err := h.ledger.ResolvePending(ctx, topicID, jobID); err != nil {
		slog.Error("gateway: resolve job failed", "topic_id", topicID, "job_id", jobID, "err", err)
	}
}

type createJobRequest struct {
	PostIDs any    `json:"post_ids"`
	Summary string `json:"summary"`
}

func (h *Handler) CreateMergeJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	job, err := h.wf.CreateMergeJob(c.Request.Context(), forum.CredentialsFromRequest(c.Request), c.Param("id"), idList(req.PostIDs), req.Summary)
	if err != nil {
		fail(c, "Create merge job", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notice":       fmt.Sprintf("Merge job %s created.", job.ID),
		"merge_job_id": job.ID,
		"modal":        modalMergeJob,
	})
}

type applyJobRequest struct {
	Title              string `json:"title"`
	Document           string `json:"document"`
	Summary            string `json:"summary"`
	ContributionWeight any    `json:"contribution_weight"`
	AISummary          bool   `json:"ai_summary"`
}

func (h *Handler) ApplyMergeJob(c *gin.Context) {
	var req applyJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	jobID := c.Param("jobId")
	rev, err := h.wf.ApplyMergeJob(c.Request.Context(), forum.CredentialsFromRequest(c.Request), c.Param("id"), jobID, merge.ApplyRequest{
		Title:        req.Title,
		Document:     req.Document,
		Summary:      req.Summary,
		Weight:       req.ContributionWeight,
		DraftSummary: req.AISummary,
	})
	if err != nil {
		body := gin.H{"error": merge.Message("Apply merge job", err), "merge_job_id": jobID, "modal": modalMergeJob}
		c.JSON(http.StatusOK, body)
		return
	}
	h.resolveJob(c.Request.Context(), c.Param("id"), jobID)
	c.JSON(http.StatusOK, gin.H{
		"notice":       fmt.Sprintf("Merge job %s applied (revision %s).", jobID, rev.ID),
		"merge_job_id": jobID,
		"revision_id":  rev.ID,
	})
}

type voteRequest struct {
	Value any `json:"value"`
}

func (h *Handler) VoteTopic(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.wf.VoteTopic(c.Request.Context(), forum.CredentialsFromRequest(c.Request), c.Param("id"), req.Value); err != nil {
		fail(c, "Vote", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notice": "Vote recorded."})
}

func (h *Handler) VotePost(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.wf.VotePost(c.Request.Context(), forum.CredentialsFromRequest(c.Request), c.Param("id"), req.Value); err != nil {
		fail(c, "Vote", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notice": "Vote recorded."})
}

type solutionRequest struct {
	PostID any `json:"post_id"`
}

func (h *Handler) SetSolution(c *gin.Context) {
	var req solutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.wf.SetTopicSolution(c.Request.Context(), forum.CredentialsFromRequest(c.Request), c.Param("id"), idString(req.PostID)); err != nil {
		fail(c, "Set solution", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notice": "Solution updated."})
}

type revisionRequest struct {
	Title         string `json:"title"`
	Document      string `json:"document"`
	Summary       string `json:"summary"`
	SourcePostIDs any    `json:"source_post_ids"`
	AISummary     bool   `json:"ai_summary"`
}

func (h *Handler) PublishRevision(c *gin.Context) {
	var req revisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	rev, err := h.wf.PublishRevision(c.Request.Context(), forum.CredentialsFromRequest(c.Request), c.Param("id"), merge.RevisionRequest{
		Title:         req.Title,
		Document:      req.Document,
		Summary:       req.Summary,
		SourcePostIDs: idList(req.SourcePostIDs),
		DraftSummary:  req.AISummary,
	})
	if err != nil {
		fail(c, "Publish wiki", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notice": "Wiki revision published.", "revision_id": rev.ID})
}

func (h *Handler) TopicOverview(c *gin.Context) {
	ov, err := h.wf.Overview(c.Request.Context(), forum.CredentialsFromRequest(c.Request), c.Param("id"), c.Query("merge_job_id"))
	if err != nil {
		if apiErr, ok := forum.AsAPIError(err); errors.Is(err, merge.ErrTopicNotFound) || (ok && apiErr.Status == http.StatusNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Topic not found."})
			return
		}
		fail(c, "Load topic", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"topic":           ov.Topic,
		"wiki":            ov.Wiki,
		"revisions":       ov.Revisions,
		"contributors":    ov.Contributors,
		"graph":           ov.Graph,
		"posts":           ov.Posts,
		"archived_count":  ov.ArchivedCount,
		"solved_post_id":  ov.SolvedPostID,
		"current_user":    ov.User,
		"can_quick_merge": ov.CanQuickMerge(),
		"pending_jobs":    ov.PendingJobs,
		"active_job":      ov.ActiveJob,
	})
}

// idString accepts a JSON string or number id.
func idString(v any) string {
	switch t := v.(type) {
	case string:
		return merge.NormalizeIDToken(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

// idList accepts a JSON array of ids or a free-form string list.
func idList(v any) []string {
	switch t := v.(type) {
	case string:
		return merge.ParseIDList(t)
	case []any:
		ids := make([]string, 0, len(t))
		for _, e := range t {
			if s := strings.TrimSpace(idString(e)); s != "" {
				ids = append(ids, s)
			}
		}
		return ids
	}
	return nil
}
