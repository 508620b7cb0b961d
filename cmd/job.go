package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"consensus-bridge/internal/markdown"
	"consensus-bridge/internal/merge"
	"consensus-bridge/internal/model"

	"github.com/spf13/cobra"
)

var (
	jobPendingOnly bool
	jobJSON        bool
	jobSummary     string
	applyTitle     string
	applyDocument  string
	applyFile      string
	applyWeight    string
	applyAISummary bool
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Create, review and apply merge jobs",
}

var jobListCmd = &cobra.Command{
	Use:   "list <topic-id>",
	Short: "List the merge jobs of a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		list, err := newForumClient(cfg).TopicMergeJobs(ctx, creds, args[0])
		if err != nil {
			return actionError("List merge jobs", err)
		}
		jobs := list.List
		if jobPendingOnly {
			jobs = list.Pending()
		}
		if jobJSON {
			return printJSON(cmd.OutOrStdout(), jobs)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, j := range jobs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", j.ID, j.Status, j.CreatorID, j.Summary)
		}
		return tw.Flush()
	},
}

var jobShowCmd = &cobra.Command{
	Use:   "show <topic-id> <job-id>",
	Short: "Show a merge job and the replies it folds in",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		d, err := newForumClient(cfg).MergeJob(ctx, creds, args[0], merge.NormalizeIDToken(args[1]))
		if err != nil {
			return actionError("Load merge job", err)
		}
		if d == nil {
			return fmt.Errorf("merge job %s not found", args[1])
		}
		if jobJSON {
			return printJSON(cmd.OutOrStdout(), d)
		}
		printJobDetail(cmd, *d)
		return nil
	},
}

func printJobDetail(cmd *cobra.Command, d model.MergeJobDetail) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "merge job %s [%s] by %s\n", d.Job.ID, d.Job.Status, d.Job.CreatorID)
	if d.Job.Summary != "" {
		fmt.Fprintf(out, "  summary: %s\n", d.Job.Summary)
	}
	if d.Job.Applied() {
		fmt.Fprintf(out, "  applied as revision %s\n", d.Job.AppliedRevisionID)
	}
	ids := make([]string, 0, len(d.PostRefs))
	for _, r := range d.PostRefs {
		ids = append(ids, r.PostID)
	}
	fmt.Fprintf(out, "  replies: %s\n", strings.Join(ids, ", "))
}

var jobCreateCmd = &cobra.Command{
	Use:   "create <topic-id> <reply-ids...>",
	Short: "Propose merging replies into the topic wiki",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		job, err := newWorkflow(cfg).CreateMergeJob(ctx, creds, args[0], args[1:], jobSummary)
		if err != nil {
			return actionError("Create merge job", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Merge job %s created.\n", job.ID)
		return nil
	},
}

var jobApplyCmd = &cobra.Command{
	Use:   "apply <topic-id> <job-id>",
	Short: "Apply a merge job as a new wiki revision",
	Long: "Title and document come from --title/--document or from a Markdown draft (--file)\n" +
		"with title and summary in its YAML frontmatter. Flags override the draft.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		req := merge.ApplyRequest{Weight: applyWeight, DraftSummary: applyAISummary}
		if applyFile != "" {
			d, err := markdown.ParseFile(applyFile)
			if err != nil {
				return fmt.Errorf("read draft: %w", err)
			}
			req.Title, req.Document, req.Summary = d.Title, d.Document, d.Summary
		}
		if applyTitle != "" {
			req.Title = applyTitle
		}
		if applyDocument != "" {
			req.Document = applyDocument
		}
		if jobSummary != "" {
			req.Summary = jobSummary
		}
		rev, err := newWorkflow(cfg).ApplyMergeJob(ctx, creds, args[0], args[1], req)
		if err != nil {
			return actionError("Apply merge job", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Merge job %s applied as revision %s.\n", args[1], rev.ID)
		return nil
	},
}

func init() {
	jobListCmd.Flags().BoolVar(&jobPendingOnly, "pending", false, "only pending jobs")
	jobListCmd.Flags().BoolVar(&jobJSON, "json", false, "print JSON")
	jobShowCmd.Flags().BoolVar(&jobJSON, "json", false, "print JSON")
	jobCreateCmd.Flags().StringVar(&jobSummary, "summary", "", "job summary")
	jobApplyCmd.Flags().StringVar(&jobSummary, "summary", "", "revision summary")
	jobApplyCmd.Flags().StringVar(&applyTitle, "title", "", "revision title")
	jobApplyCmd.Flags().StringVar(&applyDocument, "document", "", "revision document")
	jobApplyCmd.Flags().StringVar(&applyFile, "file", "", "Markdown draft with YAML frontmatter")
	jobApplyCmd.Flags().StringVar(&applyWeight, "weight", "1", "contribution weight (positive integer)")
	jobApplyCmd.Flags().BoolVar(&applyAISummary, "ai-summary", false, "draft an empty summary with OpenAI")
	jobCmd.AddCommand(jobListCmd, jobShowCmd, jobCreateCmd, jobApplyCmd)
	rootCmd.AddCommand(jobCmd)
}
