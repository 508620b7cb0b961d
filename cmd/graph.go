package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var graphJSON bool

var graphCmd = &cobra.Command{
	Use:   "graph <root-topic-id>",
	Short: "Show the documentation graph around a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		g, err := newForumClient(cfg).DocGraph(ctx, creds, args[0])
		if err != nil {
			return actionError("Load graph", err)
		}
		if graphJSON {
			return printJSON(cmd.OutOrStdout(), g)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d topics, %d links\n", len(g.Nodes), len(g.Edges))
		for _, e := range g.Edges {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s -[%s]-> %s\n", e.SourceTopicID, e.LinkType, e.TargetTopicID)
		}
		return nil
	},
}

func init() {
	graphCmd.Flags().BoolVar(&graphJSON, "json", false, "print JSON")
	rootCmd.AddCommand(graphCmd)
}
