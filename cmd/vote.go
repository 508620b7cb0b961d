package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	voteValue string
	voteDown  bool
)

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Vote on topics and replies (-1 down, anything else up)",
}

func voteRunner(action string, topic bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		value := voteValue
		if voteDown {
			value = "-1"
		}
		wf := newWorkflow(cfg)
		if topic {
			err = wf.VoteTopic(ctx, creds, args[0], value)
		} else {
			err = wf.VotePost(ctx, creds, args[0], value)
		}
		if err != nil {
			return actionError(action, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Vote recorded.")
		return nil
	}
}

var voteTopicCmd = &cobra.Command{
	Use:   "topic <topic-id>",
	Short: "Vote on a topic",
	Args:  cobra.ExactArgs(1),
	RunE:  voteRunner("Vote", true),
}

var votePostCmd = &cobra.Command{
	Use:   "reply <reply-id>",
	Short: "Vote on a reply",
	Args:  cobra.ExactArgs(1),
	RunE:  voteRunner("Vote", false),
}

var solveCmd = &cobra.Command{
	Use:   "solve <topic-id> <reply-id>",
	Short: "Mark a reply as the accepted answer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		if err := newWorkflow(cfg).SetTopicSolution(ctx, creds, args[0], args[1]); err != nil {
			return actionError("Set solution", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Solution updated.")
		return nil
	},
}

func init() {
	voteCmd.PersistentFlags().StringVar(&voteValue, "value", "1", "vote value; only -1 counts as a down vote")
	voteCmd.PersistentFlags().BoolVar(&voteDown, "down", false, "down vote (same as --value=-1)")
	voteCmd.AddCommand(voteTopicCmd, votePostCmd)
	rootCmd.AddCommand(voteCmd, solveCmd)
}
