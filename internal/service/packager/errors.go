package packager

import (
	"errors"
	"fmt"
)

// Stage names the packaging step that failed.
type Stage string

const (
	// StageConfigure covers missing or inconsistent inputs, detected before any file is written.
	StageConfigure Stage = "configure"
	// StageAssemble covers copying the build output into the package layout.
	StageAssemble Stage = "assemble"
	// StageMerge covers building the universal executable.
	StageMerge Stage = "merge"
	// StageArchive covers writing the archive.
	StageArchive Stage = "archive"
	// StageCleanup covers removing build and staging directories.
	StageCleanup Stage = "cleanup"
)

var (
	// ErrExecutableNotFound is returned when a build output lacks its executable.
	ErrExecutableNotFound = errors.New("executable not found in build output")
	// ErrNoMacOSArtifacts is returned when a universal package is requested without macOS builds.
	ErrNoMacOSArtifacts = errors.New("universal package requested but no macOS artifacts configured")
)

// TargetError is a failure of one target at one stage.
type TargetError struct {
	// Target is the runtime target identifier, or "universal".
	Target string
	// Stage is where the failure happened.
	Stage Stage
	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *TargetError) Error() string {
	return fmt.Sprintf("package %s: %s: %v", e.Target, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TargetError) Unwrap() error {
	return e.Err
}

// newTargetError wraps err unless it is nil.
func newTargetError(name string, stage Stage, err error) error {
	if err == nil {
		return nil
	}

	return &TargetError{Target: name, Stage: stage, Err: err}
}
