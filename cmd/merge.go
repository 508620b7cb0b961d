package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <topic-id> <reply-id>",
	Short: "Merge a reply into the topic wiki",
	Long: "Moderators and the topic owner merge immediately. The reply's author files a merge\n" +
		"proposal instead, left pending for a moderator. Already merged replies are a no-op.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		out, err := newWorkflow(cfg).MergeReply(ctx, creds, args[0], args[1])
		if err != nil {
			return actionError("Merge", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Notice())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
