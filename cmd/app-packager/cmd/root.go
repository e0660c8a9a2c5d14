package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/app-packager/internal/config"
	"github.com/oshokin/app-packager/internal/logger"
	"github.com/oshokin/app-packager/internal/service/packager"
	"github.com/oshokin/app-packager/internal/version"
)

var (
	// configPath to the packaging manifest.
	configPath string
	// artifactFlags are "target=dir:executable" build outputs added to the manifest.
	artifactFlags []string
	// format overrides the archive format.
	format string
	// outputDir overrides the archive directory.
	outputDir string
	// executableName overrides the desired executable name.
	executableName string
	// universalEnabled requests a universal macOS package.
	universalEnabled bool
	// failurePolicy overrides the failure policy.
	failurePolicy string
	// metricsFile overrides the metrics textfile path.
	metricsFile string
	// reportFile overrides the run report path.
	reportFile string
	// logLevel overrides the log level.
	logLevel string

	// rootCmd represents the base command for packaging build outputs.
	rootCmd = &cobra.Command{
		Use:   "app-packager",
		Short: "Package build outputs into distributable archives",
		Long: `Packages compiled applications into archives ready for distribution.

Windows and Linux build outputs are archived as they are, macOS outputs are wrapped
into an .app bundle, and the two macOS architectures can be combined into a single
universal bundle. Zip archives are produced for Windows and macOS, tar.gz for Linux.

Build outputs come from the manifest (app-packager.yaml) and from --artifact flags.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
				logger.SetLevel(level)
			} else if cfg.LogLevel != "" {
				logger.WarnKV(ctx, "Unknown log level, using info", "log_level", cfg.LogLevel)
			}

			rep, err := packager.Run(ctx, &packager.Options{Config: cfg})
			if rep != nil {
				for _, archive := range rep.Archives {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), archive.Path)
				}
			}

			return err
		},
	}
)

// Execute runs the app-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error(context.Background(), err)
		os.Exit(1)
	}
}

// loadConfig reads the manifest, when present, and applies flag overrides.
// A missing default manifest is not an error: flags alone can describe the run.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Read(configPath)

	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = new(config.Config)
	default:
		return nil, err
	}

	for _, value := range artifactFlags {
		artifact, parseErr := config.ParseArtifactFlag(value)
		if parseErr != nil {
			return nil, parseErr
		}

		cfg.Artifacts = append(cfg.Artifacts, artifact)
	}

	flags := cmd.Flags()
	overrides := []struct {
		flag  string
		value string
		dst   *string
	}{
		{"format", format, &cfg.Format},
		{"output", outputDir, &cfg.OutputDir},
		{"name", executableName, &cfg.ExecutableName},
		{"metrics-file", metricsFile, &cfg.MetricsFile},
		{"report-file", reportFile, &cfg.ReportFile},
		{"log-level", logLevel, &cfg.LogLevel},
	}

	for _, o := range overrides {
		if flags.Changed(o.flag) {
			*o.dst = o.value
		}
	}

	if flags.Changed("failure-policy") {
		cfg.FailurePolicy = config.FailurePolicy(failurePolicy)
	}

	if flags.Changed("universal") {
		cfg.Universal.Enabled = universalEnabled
	}

	return cfg, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	flags := rootCmd.Flags()
	flags.StringArrayVarP(&artifactFlags, "artifact", "a", nil, "build output as target=dir:executable (repeatable)")
	flags.StringVarP(&format, "format", "f", "", "archive format: auto, zip, tar.gz or tar.xz")
	flags.StringVarP(&outputDir, "output", "o", "", "directory for archives")
	flags.StringVarP(&executableName, "name", "n", "", "desired executable name")
	flags.BoolVarP(&universalEnabled, "universal", "u", false, "combine macOS amd64 and arm64 builds into one bundle")
	flags.StringVar(&failurePolicy, "failure-policy", "", "continue or abort after a failed target")
	flags.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	flags.StringVar(&reportFile, "report-file", "", "write the YAML run report to this file")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename,
		"path to packaging manifest")
	rootCmd.AddCommand(inspectCmd, reportCmd)
}
