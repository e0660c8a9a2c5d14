package universal

import (
	"context"
	"fmt"
	"os"

	"github.com/oshokin/app-packager/internal/assembler"
	"github.com/oshokin/app-packager/internal/platform"
)

// MergeStrategy produces a single multi-architecture executable.
type MergeStrategy struct {
	// merger combines the two thin executables.
	merger Merger
}

// NewMergeStrategy returns a strategy backed by merger.
func NewMergeStrategy(merger Merger) *MergeStrategy {
	return &MergeStrategy{merger: merger}
}

// Name returns "merge:<merger>".
func (s *MergeStrategy) Name() string {
	return "merge:" + s.merger.Name()
}

// Build copies the amd64 tree into Contents/MacOS, replaces its executable with the merged
// one, applies the requested executable name and relocates the content payload.
func (s *MergeStrategy) Build(ctx context.Context, req *Request) (*Result, error) {
	macOSDir := req.Layout.MacOS

	if err := platform.CopyDir(req.AMD64.RootDir, macOSDir, nil); err != nil {
		return nil, fmt.Errorf("copy %s build output: %w", req.AMD64.Target, err)
	}

	output := req.Layout.ExecutablePath(req.AMD64.ExecutableFile())
	if err := os.Remove(output); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove thin executable: %w", err)
	}

	if err := s.merger.Merge(ctx, output, req.AMD64.ExecutablePath(), req.ARM64.ExecutablePath()); err != nil {
		return nil, err
	}

	name := req.executableName()

	err := assembler.RenameExecutable(req.AMD64.Target, macOSDir, req.AMD64.ExecutableName, name)
	if err != nil {
		return nil, err
	}

	if _, err = req.Layout.RelocateContent(macOSDir); err != nil {
		return nil, err
	}

	return &Result{
		Executables: []string{req.AMD64.Target.ExecutableFile(name)},
	}, nil
}
