package universal

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/app-packager/internal/assembler"
	"github.com/oshokin/app-packager/internal/domain/target"
	"github.com/oshokin/app-packager/internal/platform"
)

// Mode selects how a strategy is chosen.
type Mode string

const (
	// ModeAuto merges when the merger is available on the host and falls back to a script otherwise.
	ModeAuto Mode = "auto"
	// ModeMerge always merges.
	ModeMerge Mode = "merge"
	// ModeScript always installs a dispatch script.
	ModeScript Mode = "script"
)

var (
	// ErrUnknownMode is returned for unsupported selection modes.
	ErrUnknownMode = errors.New("unknown universal strategy")
	// ErrArchitectureMismatch is returned when the inputs are not one amd64 and one arm64 macOS build.
	ErrArchitectureMismatch = errors.New("universal build needs one amd64 and one arm64 macOS artifact")
)

// Request holds the inputs of a universal bundle build.
type Request struct {
	// Layout is the bundle skeleton; Create and InstallMetadata have already run.
	Layout assembler.Layout
	// AMD64 is the x86-64 build output.
	AMD64 *target.BuildArtifact
	// ARM64 is the ARM64 build output.
	ARM64 *target.BuildArtifact
	// ExecutableName is the name of the executable (or dispatch script) under Contents/MacOS.
	ExecutableName string
}

// Result describes what a strategy produced.
type Result struct {
	// Executables lists the file names that must be archived with executable permissions.
	Executables []string
}

// Strategy produces the executable part of a universal bundle.
type Strategy interface {
	// Name identifies the strategy in logs and reports.
	Name() string
	// Build fills the bundle's Contents/MacOS (and content payload) from both architectures.
	Build(ctx context.Context, req *Request) (*Result, error)
}

// Select picks a strategy. In ModeAuto the merger's host capability decides.
//
//nolint:ireturn // Callers only need the Strategy behavior.
func Select(mode Mode, host platform.Host, merger Merger) (Strategy, error) {
	switch mode {
	case ModeMerge:
		return NewMergeStrategy(merger), nil
	case ModeScript:
		return NewScriptStrategy(host), nil
	case ModeAuto, "":
		if merger.Available(host) {
			return NewMergeStrategy(merger), nil
		}

		return NewScriptStrategy(host), nil
	default:
		return nil, fmt.Errorf("%q: %w", mode, ErrUnknownMode)
	}
}

// Pair orders two artifacts into (amd64, arm64) and checks that both are macOS builds.
func Pair(a, b *target.BuildArtifact) (amd64, arm64 *target.BuildArtifact, err error) {
	for _, artifact := range []*target.BuildArtifact{a, b} {
		if artifact == nil || !artifact.Target.IsMacOS() {
			return nil, nil, ErrArchitectureMismatch
		}

		switch artifact.Target.Arch {
		case target.AMD64:
			amd64 = artifact
		case target.ARM64:
			arm64 = artifact
		default:
			return nil, nil, ErrArchitectureMismatch
		}
	}

	if amd64 == nil || arm64 == nil {
		return nil, nil, ErrArchitectureMismatch
	}

	return amd64, arm64, nil
}

// executableName returns the requested name or, when empty, the amd64 build's name.
func (r *Request) executableName() string {
	if r.ExecutableName != "" {
		return r.ExecutableName
	}

	return r.AMD64.ExecutableName
}
