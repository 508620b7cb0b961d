package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"consensus-bridge/internal/redisclient"
	"consensus-bridge/internal/storage"

	"github.com/spf13/cobra"
)

// redisCmd groups Redis-related subcommands.
var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis utilities (token store and pending job ledger)",
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping Redis and print PONG",
	RunE: func(cmd *cobra.Command, args []string) error {
		rdb := redisclient.New(GetConfig().Redis)
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		res, err := rdb.Ping(ctx).Result()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res)
		return nil
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending <topic-id>",
	Short: "List merge jobs recorded as pending or orphaned for a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rdb := redisclient.New(GetConfig().Redis)
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		jobs, err := storage.NewRedisStore(rdb).Pending(ctx, args[0])
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, j := range jobs {
			kind := "pending"
			if j.Orphan {
				kind = "orphan"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", j.JobID, kind, j.SeenAt.Format(time.RFC3339), j.LastError)
		}
		return tw.Flush()
	},
}

func init() {
	redisCmd.AddCommand(pingCmd, pendingCmd)
	rootCmd.AddCommand(redisCmd)
}
