package assembler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/app-packager/internal/domain/target"
	"github.com/oshokin/app-packager/internal/platform"
)

// BundleOptions describes a single-architecture macOS bundle.
type BundleOptions struct {
	// AppName is the bundle name without the .app extension.
	AppName string
	// ExecutableName is the desired executable name under Contents/MacOS.
	// Empty keeps the name produced by the build.
	ExecutableName string
	// InfoPlistPath is the property list copied to Contents/Info.plist.
	InfoPlistPath string
	// IconPath is the .icns icon copied into Contents/Resources.
	IconPath string
}

// AssemblePlain copies the artifact's build output to destDir and renames the executable
// when executableName differs from the one produced by the build. On Windows targets only
// the stem changes; the .exe suffix is kept.
func AssemblePlain(artifact *target.BuildArtifact, destDir, executableName string) error {
	if err := resetDir(destDir); err != nil {
		return err
	}

	if err := platform.CopyDir(artifact.RootDir, destDir, nil); err != nil {
		return fmt.Errorf("copy build output: %w", err)
	}

	return RenameExecutable(artifact.Target, destDir, artifact.ExecutableName, executableName)
}

// AssembleBundle builds <parentDir>/<AppName>.app from the artifact: skeleton, Info.plist,
// icon, build output under Contents/MacOS and the content payload under Contents/Resources.
func AssembleBundle(artifact *target.BuildArtifact, parentDir string, opts BundleOptions) (Layout, error) {
	layout, err := PrepareBundle(parentDir, opts)
	if err != nil {
		return layout, err
	}

	if err = platform.CopyDir(artifact.RootDir, layout.MacOS, nil); err != nil {
		return layout, fmt.Errorf("copy build output: %w", err)
	}

	if _, err = layout.RelocateContent(layout.MacOS); err != nil {
		return layout, err
	}

	err = RenameExecutable(artifact.Target, layout.MacOS, artifact.ExecutableName, opts.ExecutableName)

	return layout, err
}

// PrepareBundle creates an empty <parentDir>/<AppName>.app skeleton with Info.plist and the
// icon installed, removing leftovers of a previous run first.
func PrepareBundle(parentDir string, opts BundleOptions) (Layout, error) {
	layout := NewLayout(parentDir, opts.AppName)

	if err := resetDir(layout.Root); err != nil {
		return layout, err
	}

	if err := layout.Create(); err != nil {
		return layout, err
	}

	if err := layout.InstallMetadata(opts.InfoPlistPath, opts.IconPath); err != nil {
		return layout, err
	}

	return layout, nil
}

// RenameExecutable renames dir/<from> to dir/<to> using the target's executable naming.
// Nothing happens when to is empty or names the same file.
func RenameExecutable(t target.Target, dir, from, to string) error {
	if to == "" {
		return nil
	}

	fromFile := t.ExecutableFile(from)
	toFile := t.ExecutableFile(to)

	if fromFile == toFile {
		return nil
	}

	src := filepath.Join(dir, fromFile)
	dst := filepath.Join(dir, toFile)

	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("rename executable %s to %s: %w", fromFile, toFile, err)
	}

	return nil
}

// resetDir removes leftovers of an interrupted run and recreates dir.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear %s: %w", dir, err)
	}

	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	return nil
}
