package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/oshokin/app-packager/internal/config"
	"github.com/oshokin/app-packager/internal/domain/target"
	"github.com/oshokin/app-packager/internal/logger"
	"github.com/oshokin/app-packager/internal/metrics"
	"github.com/oshokin/app-packager/internal/platform"
	"github.com/oshokin/app-packager/internal/repository/report"
	"github.com/oshokin/app-packager/internal/universal"
)

// metricsNamespace prefixes every exported metric.
const metricsNamespace = "app_packager"

// Options contains inputs for the packager entry point.
type Options struct {
	// Config is the packaging manifest; it is validated by Run.
	Config *config.Config
	// Host overrides the detected host (tests use it to emulate macOS or Linux).
	Host *platform.Host
	// Merger overrides the merger chosen from the configuration.
	Merger universal.Merger
	// Metrics overrides the recorder; by default a Prometheus recorder is used
	// when a metrics file is configured and a no-op one otherwise.
	Metrics metrics.Recorder
}

// packager runs one packaging session.
// It is unexported; callers should use Run, which encapsulates setup and validation.
type packager struct {
	// cfg is the validated manifest.
	cfg *config.Config
	// host is the machine doing the packaging.
	host platform.Host
	// merger builds universal executables.
	merger universal.Merger
	// recorder receives per-target metrics.
	recorder metrics.Recorder
	// prom is set when metrics are exported to a textfile.
	prom *metrics.Prom
	// report accumulates the run outcome.
	report *report.Report
}

// errConfigIsNotSet is returned when Run is called without a manifest.
var errConfigIsNotSet = errors.New("packaging configuration is not set")

// Run packages every configured artifact and returns the run report.
// The report is returned even when some targets failed; the error then combines
// one *TargetError per failure (see multierr.Errors).
func Run(ctx context.Context, opts *Options) (*report.Report, error) {
	ctx = logger.WithName(ctx, "app-packager")

	if opts == nil || opts.Config == nil {
		return nil, errConfigIsNotSet
	}

	if err := config.Validate(opts.Config); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}

	p := newPackager(opts)

	ctx = logger.WithKV(ctx, "run_id", p.report.RunID)

	jobs, err := p.plan()
	if err != nil {
		return nil, err
	}

	runErr := p.run(ctx, jobs)

	p.report.FinishedAt = time.Now().UTC()

	if err = p.flush(ctx); err != nil {
		return p.report, multierr.Append(runErr, err)
	}

	if runErr != nil {
		return p.report, runErr
	}

	logger.InfoKV(ctx, "Packaging completed successfully", "archives", len(p.report.Archives))

	return p.report, nil
}

// newPackager fills defaults for optional collaborators.
func newPackager(opts *Options) *packager {
	p := &packager{
		cfg:      opts.Config,
		host:     platform.CurrentHost(),
		merger:   opts.Merger,
		recorder: opts.Metrics,
	}

	if opts.Host != nil {
		p.host = *opts.Host
	}

	if p.merger == nil {
		if p.cfg.Universal.Merger == config.MergerBuiltin {
			p.merger = universal.NewBuiltinMerger()
		} else {
			p.merger = universal.NewToolMerger(p.cfg.Universal.MergeTool)
		}
	}

	if p.recorder == nil {
		if p.cfg.MetricsFile != "" {
			p.prom = metrics.NewProm(metricsNamespace)
			p.recorder = p.prom
		} else {
			p.recorder = metrics.Noop{}
		}
	}

	p.report = &report.Report{
		RunID:     uuid.NewString(),
		Host:      p.host.OS,
		StartedAt: time.Now().UTC(),
	}

	return p
}

// plan builds one packager per target. With universal packaging enabled all macOS
// artifacts are handed to a single universal packager, which checks the pairing.
func (p *packager) plan() ([]targetPackager, error) {
	artifacts, err := p.cfg.BuildArtifacts()
	if err != nil {
		return nil, fmt.Errorf("parse artifacts: %w", err)
	}

	var (
		jobs  = make([]targetPackager, 0, len(artifacts))
		macOS []*target.BuildArtifact
		names = naming{cfg: p.cfg}
	)

	for _, artifact := range artifacts {
		switch {
		case artifact.Target.IsMacOS() && p.cfg.Universal.Enabled:
			macOS = append(macOS, artifact)
		case artifact.Target.IsMacOS():
			jobs = append(jobs, &bundlePackager{naming: names, artifact: artifact})
		default:
			jobs = append(jobs, &plainPackager{naming: names, artifact: artifact})
		}
	}

	if p.cfg.Universal.Enabled {
		strategy, err := universal.Select(universal.Mode(p.cfg.Universal.Strategy), p.host, p.merger)
		if err != nil {
			return nil, err
		}

		jobs = append(jobs, &universalPackager{naming: names, macOS: macOS, strategy: strategy})
	}

	return jobs, nil
}

// run packages targets one at a time, honoring the failure policy.
func (p *packager) run(ctx context.Context, jobs []targetPackager) error {
	var result error

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return multierr.Append(result, err)
		}

		err := p.runOne(ctx, job)
		if err == nil {
			continue
		}

		result = multierr.Append(result, err)

		if p.cfg.FailurePolicy == config.FailureAbort {
			logger.WarnKV(ctx, "Stopping after failed target", "target", job.name())

			break
		}
	}

	return result
}

// runOne packages a single target, records metrics and removes intermediates on success.
func (p *packager) runOne(ctx context.Context, job targetPackager) error {
	ctx = logger.WithKV(ctx, "target", job.name())

	logger.InfoKV(ctx, "Packaging target", "kind", job.kind())

	started := time.Now()

	archive, err := job.pack(ctx)
	if err == nil {
		err = p.cleanup(ctx, job)
	}

	elapsed := time.Since(started).Seconds()

	if archive != nil {
		p.report.Archives = append(p.report.Archives, *archive)
		p.recorder.SetArchiveBytes(job.name(), archive.Bytes)
	}

	if err != nil {
		p.recorder.ObservePackage(job.name(), metrics.StatusFailed, elapsed)
		p.report.Failures = append(p.report.Failures, failureOf(job.name(), err))

		logger.ErrorKV(ctx, "Packaging failed", "error", err)

		return err
	}

	p.recorder.ObservePackage(job.name(), metrics.StatusOK, elapsed)

	return nil
}

// cleanup deletes the staging directory and the consumed build directories.
func (p *packager) cleanup(ctx context.Context, job targetPackager) error {
	if p.cfg.KeepIntermediate {
		return nil
	}

	dirs := make([]string, 0, len(job.artifacts())+1)
	if staging := job.stagingDir(); staging != "" {
		dirs = append(dirs, staging)
	}

	for _, artifact := range job.artifacts() {
		dirs = append(dirs, artifact.RootDir)
	}

	var result error

	for _, dir := range dirs {
		logger.DebugKV(ctx, "Removing intermediate directory", "path", dir)

		if err := os.RemoveAll(dir); err != nil {
			result = multierr.Append(result, err)
		}
	}

	// An empty staging root is left behind by the last target; ignore a non-empty one.
	_ = os.Remove(p.cfg.StagingDir)

	return newTargetError(job.name(), StageCleanup, result)
}

// flush writes the optional metrics textfile and run report.
func (p *packager) flush(ctx context.Context) error {
	var result error

	if p.prom != nil {
		if err := p.prom.WriteTextfile(p.cfg.MetricsFile); err != nil {
			result = multierr.Append(result, fmt.Errorf("write metrics: %w", err))
		} else {
			logger.InfoKV(ctx, "Metrics written", "path", p.cfg.MetricsFile)
		}
	}

	if p.cfg.ReportFile != "" {
		repo := report.NewFileRepository(p.cfg.ReportFile)
		if err := repo.Save(ctx, p.report); err != nil {
			result = multierr.Append(result, fmt.Errorf("write report: %w", err))
		} else {
			logger.InfoKV(ctx, "Report written", "path", p.cfg.ReportFile)
		}
	}

	return result
}

// failureOf converts a packaging error into a report entry.
func failureOf(name string, err error) report.Failure {
	failure := report.Failure{Target: name, Error: err.Error()}

	var targetErr *TargetError
	if errors.As(err, &targetErr) {
		failure.Stage = string(targetErr.Stage)
	}

	return failure
}
