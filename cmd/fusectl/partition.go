package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
)

func newPartitionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "partition",
		Short: "Print the emotion to sentiment table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "EMOTION\tSENTIMENT")
			for _, e := range emotion.All {
				fmt.Fprintf(w, "%s\t%s\n", e, e.Sentiment())
			}
			return w.Flush()
		},
	}
}
