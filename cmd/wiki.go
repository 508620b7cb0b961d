package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"consensus-bridge/internal/markdown"
	"consensus-bridge/internal/merge"

	"github.com/spf13/cobra"
)

var (
	wikiFile      string
	wikiTitle     string
	wikiDocument  string
	wikiSummary   string
	wikiSources   string
	wikiAISummary bool
	wikiOut       string
)

var wikiCmd = &cobra.Command{
	Use:   "wiki",
	Short: "Publish and inspect topic wiki revisions",
}

var wikiPublishCmd = &cobra.Command{
	Use:   "publish <topic-id>",
	Short: "Publish a wiki revision directly, without a merge job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		req := merge.RevisionRequest{DraftSummary: wikiAISummary}
		if wikiFile != "" {
			d, err := markdown.ParseFile(wikiFile)
			if err != nil {
				return fmt.Errorf("read draft: %w", err)
			}
			req.Title, req.Document, req.Summary, req.SourcePostIDs = d.Title, d.Document, d.Summary, d.SourcePostIDs
		}
		if wikiTitle != "" {
			req.Title = wikiTitle
		}
		if wikiDocument != "" {
			req.Document = wikiDocument
		}
		if wikiSummary != "" {
			req.Summary = wikiSummary
		}
		if wikiSources != "" {
			req.SourcePostIDs = merge.ParseIDList(wikiSources)
		}
		rev, err := newWorkflow(cfg).PublishRevision(ctx, creds, args[0], req)
		if err != nil {
			return actionError("Publish wiki", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Revision %s published.\n", rev.ID)
		return nil
	},
}

var wikiHistoryCmd = &cobra.Command{
	Use:   "history <topic-id>",
	Short: "List the revisions of a topic wiki",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		revs, err := newForumClient(cfg).TopicWikiRevisions(ctx, creds, args[0])
		if err != nil {
			return actionError("Load wiki history", err)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, r := range revs {
			parent := r.ParentRevisionID
			if parent == "" {
				parent = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, parent, r.EditorID, r.CreatedAt, r.Summary)
		}
		return tw.Flush()
	},
}

var wikiPullCmd = &cobra.Command{
	Use:   "pull <topic-id>",
	Short: "Write the current wiki as a Markdown draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		head, err := newForumClient(cfg).TopicWiki(ctx, creds, args[0])
		if err != nil {
			return actionError("Load wiki", err)
		}
		if head == nil {
			return errors.New("topic has no wiki yet")
		}
		b, err := markdown.Render(markdown.Draft{Title: head.Title, Document: head.Document})
		if err != nil {
			return err
		}
		if wikiOut == "" || wikiOut == "-" {
			_, err = cmd.OutOrStdout().Write(b)
			return err
		}
		return os.WriteFile(wikiOut, b, 0o644)
	},
}

func init() {
	wikiPublishCmd.Flags().StringVar(&wikiFile, "file", "", "Markdown draft with YAML frontmatter")
	wikiPublishCmd.Flags().StringVar(&wikiTitle, "title", "", "revision title")
	wikiPublishCmd.Flags().StringVar(&wikiDocument, "document", "", "revision document")
	wikiPublishCmd.Flags().StringVar(&wikiSummary, "summary", "", "revision summary")
	wikiPublishCmd.Flags().StringVar(&wikiSources, "source", "", "source reply ids, comma or space separated")
	wikiPublishCmd.Flags().BoolVar(&wikiAISummary, "ai-summary", false, "draft an empty summary with OpenAI")
	wikiPullCmd.Flags().StringVarP(&wikiOut, "out", "o", "-", "output file")
	wikiCmd.AddCommand(wikiPublishCmd, wikiHistoryCmd, wikiPullCmd)
	rootCmd.AddCommand(wikiCmd)
}
