package cmd

import (
	"fmt"
	"text/tabwriter"

	"consensus-bridge/internal/forum"
	"consensus-bridge/internal/model"

	"github.com/spf13/cobra"
)

var (
	topicJSON       bool
	topicJobID      string
	topicBoard      bool
	topicKind       string
	topicWiki       bool
	categoryDesc    string
	categoryAsBoard bool
)

var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Browse and create topics",
}

var topicShowCmd = &cobra.Command{
	Use:   "show <topic-id>",
	Short: "Show a topic with its wiki, replies and pending merge jobs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		ov, err := newWorkflow(cfg).Overview(ctx, creds, args[0], topicJobID)
		if err != nil {
			return actionError("Load topic", err)
		}
		out := cmd.OutOrStdout()
		if topicJSON {
			return printJSON(out, ov)
		}
		fmt.Fprintf(out, "# %s (%s)\n", ov.Topic.Title, ov.Topic.ID)
		if ov.Wiki != nil {
			fmt.Fprintf(out, "wiki: %s (revision %s, %d revisions)\n", ov.Wiki.Title, ov.Wiki.ID, len(ov.Revisions))
		} else {
			fmt.Fprintln(out, "wiki: none")
		}
		if ov.SolvedPostID != "" {
			fmt.Fprintf(out, "solved by reply %s\n", ov.SolvedPostID)
		}
		fmt.Fprintf(out, "replies: %d (%d merged), contributors: %d, linked topics: %d\n",
			len(ov.Posts), ov.ArchivedCount, len(ov.Contributors), len(ov.Graph.Edges))
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, p := range ov.Posts {
			state := p.MergeState
			if state == "" {
				state = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d votes\t%s\n", p.ID, p.UserID, state, p.VoteCount, excerpt(p.OriginalText, 60))
		}
		tw.Flush()
		if len(ov.PendingJobs) > 0 {
			fmt.Fprintln(out, "pending merge jobs:")
			for _, j := range ov.PendingJobs {
				fmt.Fprintf(out, "  %s by %s: %s\n", j.ID, j.CreatorID, j.Summary)
			}
		}
		if ov.ActiveJob != nil {
			printJobDetail(cmd, *ov.ActiveJob)
		}
		if ov.User != nil && ov.CanQuickMerge() {
			fmt.Fprintln(out, "you can quick-merge replies in this topic")
		}
		return nil
	},
}

var topicListCmd = &cobra.Command{
	Use:   "list <category-id>",
	Short: "List topics of a category (or board with --board)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		client := newForumClient(cfg)
		var list model.TopicList
		if topicBoard {
			list, err = client.BoardTopics(ctx, creds, args[0])
		} else {
			list, err = client.CategoryTopics(ctx, creds, args[0])
		}
		if err != nil {
			return actionError("List topics", err)
		}
		if topicJSON {
			return printJSON(cmd.OutOrStdout(), list)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, t := range list.List {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d replies\n", t.ID, t.Kind, t.Title, t.PostCount)
		}
		return tw.Flush()
	},
}

var topicCreateCmd = &cobra.Command{
	Use:   "create <category-id> <title>",
	Short: "Create a topic",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		t, err := newWorkflow(cfg).CreateTopic(ctx, creds, args[0], args[1], topicKind, topicWiki)
		if err != nil {
			return actionError("Create topic", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Topic %s created.\n", t.ID)
		return nil
	},
}

var topicReplyCmd = &cobra.Command{
	Use:   "reply <topic-id> <text>",
	Short: "Post a reply to a topic",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		p, err := newWorkflow(cfg).CreatePost(ctx, creds, args[0], args[1])
		if err != nil {
			return actionError("Reply", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reply %s posted.\n", p.ID)
		return nil
	},
}

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"board"},
	Short:   "List and create categories",
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories (or boards with --board)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		client := newForumClient(cfg)
		var cats []model.Category
		if categoryAsBoard {
			cats, err = client.Boards(ctx, creds)
		} else {
			cats, err = client.Categories(ctx, creds)
		}
		if err != nil {
			return actionError("List categories", err)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, c := range cats {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Slug, c.Name)
		}
		return tw.Flush()
	},
}

var categoryCreateCmd = &cobra.Command{
	Use:   "create <slug> <name>",
	Short: "Create a category (or board with --board)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		in := forum.CategoryInput{Slug: args[0], Name: args[1], Description: categoryDesc}
		c, err := newWorkflow(cfg).CreateCategory(ctx, creds, in, categoryAsBoard)
		if err != nil {
			return actionError("Create category", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Category %s created.\n", c.ID)
		return nil
	},
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func init() {
	topicShowCmd.Flags().BoolVar(&topicJSON, "json", false, "print JSON")
	topicShowCmd.Flags().StringVar(&topicJobID, "job", "", "also show this merge job")
	topicListCmd.Flags().BoolVar(&topicJSON, "json", false, "print JSON")
	topicListCmd.Flags().BoolVar(&topicBoard, "board", false, "treat the id as a legacy board")
	topicCreateCmd.Flags().StringVar(&topicKind, "kind", "discussion", "discussion or knowledge")
	topicCreateCmd.Flags().BoolVar(&topicWiki, "wiki", true, "enable the topic wiki")
	topicCmd.AddCommand(topicShowCmd, topicListCmd, topicCreateCmd, topicReplyCmd)

	categoryListCmd.Flags().BoolVar(&categoryAsBoard, "board", false, "use the legacy board routes")
	categoryCreateCmd.Flags().BoolVar(&categoryAsBoard, "board", false, "use the legacy board routes")
	categoryCreateCmd.Flags().StringVar(&categoryDesc, "description", "", "category description")
	categoryCmd.AddCommand(categoryListCmd, categoryCreateCmd)

	rootCmd.AddCommand(topicCmd, categoryCmd)
}
