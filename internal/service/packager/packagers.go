package packager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/app-packager/internal/archive"
	"github.com/oshokin/app-packager/internal/assembler"
	"github.com/oshokin/app-packager/internal/config"
	"github.com/oshokin/app-packager/internal/domain/target"
	"github.com/oshokin/app-packager/internal/logger"
	"github.com/oshokin/app-packager/internal/repository/report"
	"github.com/oshokin/app-packager/internal/universal"
)

// universalName labels the combined macOS package in names, logs and reports.
const universalName = config.UniversalTarget

// targetPackager packages one unit of work: a single target or the universal pair.
type targetPackager interface {
	// name is the label used in archive names, logs and errors.
	name() string
	// kind describes the packager variant in logs.
	kind() string
	// artifacts are the build outputs consumed; they are deleted after success.
	artifacts() []*target.BuildArtifact
	// stagingDir is the intermediate directory deleted after success.
	stagingDir() string
	// pack assembles and archives, returning the written archive.
	pack(ctx context.Context) (*report.Archive, error)
}

// naming holds the names shared by all packagers of a run.
type naming struct {
	// cfg is the validated configuration.
	cfg *config.Config
}

// baseName is the executable name, else the project name, else the build's executable name.
func (n naming) baseName(artifact *target.BuildArtifact) string {
	switch {
	case n.cfg.ExecutableName != "":
		return artifact.Target.ExecutableStem(n.cfg.ExecutableName)
	case n.cfg.ProjectName != "":
		return n.cfg.ProjectName
	default:
		return artifact.ExecutableName
	}
}

// executableName is the desired executable stem, or the build's one when no rename is requested.
func (n naming) executableName(artifact *target.BuildArtifact) string {
	if n.cfg.ExecutableName != "" {
		return artifact.Target.ExecutableStem(n.cfg.ExecutableName)
	}

	return artifact.ExecutableName
}

// archivePath is <output>/<base>-<label><ext>.
func (n naming) archivePath(base, label string, format archive.Format) string {
	return filepath.Join(n.cfg.OutputDir, base+"-"+label+format.Extension())
}

// staging is <staging>/<base>-<label>.
func (n naming) staging(base, label string) string {
	return filepath.Join(n.cfg.StagingDir, base+"-"+label)
}

// plainPackager copies a build output as is (Windows, Linux and other targets).
type plainPackager struct {
	naming

	// artifact is the build output.
	artifact *target.BuildArtifact
}

func (p *plainPackager) name() string { return p.artifact.Target.String() }

func (p *plainPackager) kind() string { return "plain" }

func (p *plainPackager) artifacts() []*target.BuildArtifact {
	return []*target.BuildArtifact{p.artifact}
}

func (p *plainPackager) stagingDir() string {
	return p.staging(p.baseName(p.artifact), p.artifact.Target.Slug())
}

func (p *plainPackager) pack(ctx context.Context) (*report.Archive, error) {
	if err := requireExecutable(p.artifact); err != nil {
		return nil, newTargetError(p.name(), StageConfigure, err)
	}

	dest := p.stagingDir()
	executable := p.executableName(p.artifact)

	if err := assembler.AssemblePlain(p.artifact, dest, executable); err != nil {
		return nil, newTargetError(p.name(), StageAssemble, err)
	}

	format := p.cfg.ArchiveFormat().Resolve(p.artifact.Target)
	policy := &archive.Policy{
		Executables:     []string{p.artifact.Target.ExecutableFile(executable)},
		CaseInsensitive: p.artifact.Target.IsWindows(),
	}

	return writeArchive(ctx, p.name(), &archive.Descriptor{
		SourceRoot: dest,
		OutputPath: p.archivePath(p.baseName(p.artifact), p.artifact.Target.Slug(), format),
		Format:     format,
	}, policy, "")
}

// bundlePackager produces a single-architecture macOS .app bundle.
type bundlePackager struct {
	naming

	// artifact is the macOS build output.
	artifact *target.BuildArtifact
}

func (p *bundlePackager) name() string { return p.artifact.Target.String() }

func (p *bundlePackager) kind() string { return "bundle" }

func (p *bundlePackager) artifacts() []*target.BuildArtifact {
	return []*target.BuildArtifact{p.artifact}
}

func (p *bundlePackager) stagingDir() string {
	return p.staging(p.baseName(p.artifact), p.artifact.Target.Slug())
}

func (p *bundlePackager) pack(ctx context.Context) (*report.Archive, error) {
	if err := checkBundleInputs(p.cfg); err != nil {
		return nil, newTargetError(p.name(), StageConfigure, err)
	}

	if err := requireExecutable(p.artifact); err != nil {
		return nil, newTargetError(p.name(), StageConfigure, err)
	}

	parent := p.stagingDir()
	executable := p.executableName(p.artifact)

	if err := os.RemoveAll(parent); err != nil {
		return nil, newTargetError(p.name(), StageAssemble, err)
	}

	_, err := assembler.AssembleBundle(p.artifact, parent, assembler.BundleOptions{
		AppName:        p.baseName(p.artifact),
		ExecutableName: executable,
		InfoPlistPath:  p.cfg.InfoPlist,
		IconPath:       p.cfg.Icon,
	})
	if err != nil {
		return nil, newTargetError(p.name(), StageAssemble, err)
	}

	format := p.cfg.ArchiveFormat().Resolve(p.artifact.Target)

	return writeArchive(ctx, p.name(), &archive.Descriptor{
		SourceRoot: parent,
		OutputPath: p.archivePath(p.baseName(p.artifact), p.artifact.Target.Slug(), format),
		Format:     format,
	}, &archive.Policy{Executables: []string{executable}}, "")
}

// universalPackager combines the amd64 and arm64 macOS builds into one bundle.
type universalPackager struct {
	naming

	// macOS are the macOS build outputs the caller asked to combine.
	macOS []*target.BuildArtifact
	// strategy builds the executable part of the bundle.
	strategy universal.Strategy
}

func (p *universalPackager) name() string { return universalName }

func (p *universalPackager) kind() string { return "universal:" + p.strategy.Name() }

func (p *universalPackager) artifacts() []*target.BuildArtifact { return p.macOS }

func (p *universalPackager) stagingDir() string {
	if len(p.macOS) == 0 {
		return ""
	}

	return p.staging(p.base(), universalName)
}

// base names the bundle and archive after the amd64 build when no name is configured.
func (p *universalPackager) base() string {
	for _, artifact := range p.macOS {
		if artifact.Target.Arch == target.AMD64 {
			return p.baseName(artifact)
		}
	}

	return p.baseName(p.macOS[0])
}

func (p *universalPackager) pack(ctx context.Context) (*report.Archive, error) {
	amd64, arm64, err := p.pair()
	if err != nil {
		return nil, newTargetError(p.name(), StageConfigure, err)
	}

	if err = checkBundleInputs(p.cfg); err != nil {
		return nil, newTargetError(p.name(), StageConfigure, err)
	}

	for _, artifact := range []*target.BuildArtifact{amd64, arm64} {
		if err = requireExecutable(artifact); err != nil {
			return nil, newTargetError(p.name(), StageConfigure, err)
		}
	}

	parent := p.stagingDir()
	name := p.executableName(amd64)

	if err = os.RemoveAll(parent); err != nil {
		return nil, newTargetError(p.name(), StageAssemble, err)
	}

	layout, err := assembler.PrepareBundle(parent, assembler.BundleOptions{
		AppName:       p.base(),
		InfoPlistPath: p.cfg.InfoPlist,
		IconPath:      p.cfg.Icon,
	})
	if err != nil {
		return nil, newTargetError(p.name(), StageAssemble, err)
	}

	logger.InfoKV(ctx, "Building universal executable", "strategy", p.strategy.Name())

	result, err := p.strategy.Build(ctx, &universal.Request{
		Layout:         layout,
		AMD64:          amd64,
		ARM64:          arm64,
		ExecutableName: name,
	})
	if err != nil {
		return nil, newTargetError(p.name(), StageMerge, err)
	}

	format := p.cfg.ArchiveFormat().Resolve(amd64.Target)

	return writeArchive(ctx, p.name(), &archive.Descriptor{
		SourceRoot: parent,
		OutputPath: p.archivePath(p.base(), universalName, format),
		Format:     format,
	}, &archive.Policy{Executables: result.Executables}, p.strategy.Name())
}

// pair returns the amd64 and arm64 artifacts of the universal request.
func (p *universalPackager) pair() (amd64, arm64 *target.BuildArtifact, err error) {
	switch len(p.macOS) {
	case 0:
		return nil, nil, ErrNoMacOSArtifacts
	case 2: //nolint:mnd // A universal bundle spans exactly two architectures.
		return universal.Pair(p.macOS[0], p.macOS[1])
	default:
		return nil, nil, universal.ErrArchitectureMismatch
	}
}

// writeArchive writes the archive and converts the result for the report.
func writeArchive(
	ctx context.Context,
	name string,
	desc *archive.Descriptor,
	policy *archive.Policy,
	strategy string,
) (*report.Archive, error) {
	logger.DebugKV(ctx, "Writing archive", "path", desc.OutputPath, "format", desc.Format)

	stats, err := archive.Write(ctx, desc, policy)
	if err != nil {
		return nil, newTargetError(name, StageArchive, err)
	}

	sum, err := archive.Checksum(desc.OutputPath)
	if err != nil {
		return nil, newTargetError(name, StageArchive, err)
	}

	logger.InfoKV(ctx, "Archive written",
		"path", desc.OutputPath,
		"files", stats.Files,
		"directories", stats.Directories,
		"bytes", stats.Bytes,
		"sha256", sum,
	)

	return &report.Archive{
		Target:   name,
		Path:     desc.OutputPath,
		Format:   string(desc.Format),
		Bytes:    stats.Bytes,
		SHA256:   sum,
		Strategy: strategy,
	}, nil
}

// checkBundleInputs verifies that the plist and icon are configured and present.
func checkBundleInputs(cfg *config.Config) error {
	if err := cfg.RequireBundleInputs(); err != nil {
		return err
	}

	for _, path := range []string{cfg.InfoPlist, cfg.Icon} {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return fmt.Errorf("%s: %w", path, config.ErrMissingBundleInput)
		}
	}

	return nil
}

// requireExecutable checks that the build output contains its executable.
func requireExecutable(artifact *target.BuildArtifact) error {
	info, err := os.Stat(artifact.ExecutablePath())
	if err != nil || info.IsDir() {
		return fmt.Errorf("%s: %w", artifact.ExecutablePath(), ErrExecutableNotFound)
	}

	return nil
}
