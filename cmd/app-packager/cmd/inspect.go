package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oshokin/app-packager/internal/archive"
)

// inspectCmd lists archive entries with the permissions unpacking tools will apply.
var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "List archive entries with their modes and sizes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := archive.Inspect(args[0])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:mnd // Column padding.

		for _, entry := range entries {
			_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", entry.Mode, entry.Size, entry.Name)
		}

		return w.Flush()
	},
}
