package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oshokin/app-packager/internal/config"
	"github.com/oshokin/app-packager/internal/repository/report"
)

// reportCmd prints a saved run report: archives with their digests, then failures.
var reportCmd = &cobra.Command{
	Use:   "report [report-file]",
	Short: "Show the archives and failures of a previous run",
	Long: `Prints a run report written by --report-file (or report_file in the manifest).
Without an argument the report_file of the manifest is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := reportPath(args)
		if err != nil {
			return err
		}

		rep, err := report.NewFileRepository(path).Load(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "run %s on %s, %s\n", rep.RunID, rep.Host, rep.FinishedAt.Sub(rep.StartedAt))

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0) //nolint:mnd // Column padding.

		for _, archive := range rep.Archives {
			_, _ = fmt.Fprintf(w, "ok\t%s\t%s\t%d\t%s\n", archive.Target, archive.Path, archive.Bytes, archive.SHA256)
		}

		for _, failure := range rep.Failures {
			_, _ = fmt.Fprintf(w, "failed\t%s\t%s\t%s\n", failure.Target, failure.Stage, failure.Error)
		}

		return w.Flush()
	},
}

// errNoReportFile is returned when neither an argument nor the manifest names a report.
var errNoReportFile = errors.New("no report file given and report_file is not set in the manifest")

// reportPath returns the argument or the manifest's report_file.
func reportPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	cfg, err := config.Read(configPath)
	if err != nil {
		return "", err
	}

	if cfg.ReportFile == "" {
		return "", errNoReportFile
	}

	return cfg.ReportFile, nil
}
