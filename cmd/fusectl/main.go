// Command fusectl runs the emotion fusion offline, for checking how a
// sentiment rating and a recorded face timeline would be merged.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fusectl",
		Short:         "Inspect the text and face emotion fusion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFuseCmd(), newPartitionCmd())
	return root
}
