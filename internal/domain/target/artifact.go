package target

import "path/filepath"

// BuildArtifact is the output of the (external) build step for one runtime target.
// The packaging core only reads it and removes RootDir once the target is archived.
type BuildArtifact struct {
	// RootDir is the build output directory.
	RootDir string
	// ExecutableName is the executable stem produced by the build.
	ExecutableName string
	// Target is the runtime target the artifact was built for.
	Target Target
}

// ExecutableFile returns the executable's file name inside RootDir.
func (a *BuildArtifact) ExecutableFile() string {
	return a.Target.ExecutableFile(a.ExecutableName)
}

// ExecutablePath returns the executable's full path.
func (a *BuildArtifact) ExecutablePath() string {
	return filepath.Join(a.RootDir, a.ExecutableFile())
}
