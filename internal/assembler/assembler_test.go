package assembler

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/app-packager/internal/domain/target"
)

// TestAssemblePlain_RenamesExecutable copies a Linux build and renames the executable.
func TestAssemblePlain_RenamesExecutable(t *testing.T) {
	t.Parallel()

	artifact := newArtifact(t, "linux-x64", "Game")
	dest := filepath.Join(t.TempDir(), "stage")

	// Stale file from an interrupted run must disappear.
	writeFile(t, filepath.Join(dest, "stale.txt"), "old")

	require.NoError(t, AssemblePlain(artifact, dest, "MyGame"))

	requireExists(t, filepath.Join(dest, "MyGame"))
	requireExists(t, filepath.Join(dest, "Content", "level.bin"))
	requireMissing(t, filepath.Join(dest, "Game"))
	requireMissing(t, filepath.Join(dest, "stale.txt"))
}

// TestAssemblePlain_WindowsKeepsSuffix ensures only the stem changes on Windows targets.
func TestAssemblePlain_WindowsKeepsSuffix(t *testing.T) {
	t.Parallel()

	artifact := newArtifact(t, "win-x64", "Game")
	dest := filepath.Join(t.TempDir(), "stage")

	require.NoError(t, AssemblePlain(artifact, dest, "MyGame"))

	requireExists(t, filepath.Join(dest, "MyGame.exe"))
	requireMissing(t, filepath.Join(dest, "Game.exe"))
}

// TestAssemblePlain_SameName leaves the executable untouched.
func TestAssemblePlain_SameName(t *testing.T) {
	t.Parallel()

	artifact := newArtifact(t, "linux-x64", "Game")
	dest := filepath.Join(t.TempDir(), "stage")

	require.NoError(t, AssemblePlain(artifact, dest, ""))
	requireExists(t, filepath.Join(dest, "Game"))
}

// TestAssembleBundle verifies the .app skeleton and the content relocation.
func TestAssembleBundle(t *testing.T) {
	t.Parallel()

	artifact := newArtifact(t, "osx-arm64", "Game")
	inputs := t.TempDir()
	plist := filepath.Join(inputs, "Info.plist")
	icon := filepath.Join(inputs, "Game.icns")
	writeFile(t, plist, "<plist/>")
	writeFile(t, icon, "icns")

	parent := t.TempDir()
	layout, err := AssembleBundle(artifact, parent, BundleOptions{
		AppName:        "Game",
		ExecutableName: "Game",
		InfoPlistPath:  plist,
		IconPath:       icon,
	})
	require.NoError(t, err)

	require.Equal(t, filepath.Join(parent, "Game.app"), layout.Root)
	requireExists(t, filepath.Join(layout.Contents, "Info.plist"))
	requireExists(t, filepath.Join(layout.Resources, "Game.icns"))
	requireExists(t, filepath.Join(layout.MacOS, "Game"))
	requireExists(t, filepath.Join(layout.Resources, "Content", "level.bin"))
	requireMissing(t, filepath.Join(layout.MacOS, "Content"))
}

// TestAssembleBundle_MissingInputs reports a missing plist as ErrMissingInput.
func TestAssembleBundle_MissingInputs(t *testing.T) {
	t.Parallel()

	artifact := newArtifact(t, "osx-x64", "Game")

	_, err := AssembleBundle(artifact, t.TempDir(), BundleOptions{
		AppName:       "Game",
		InfoPlistPath: filepath.Join(t.TempDir(), "missing.plist"),
		IconPath:      filepath.Join(t.TempDir(), "missing.icns"),
	})
	require.ErrorIs(t, err, ErrMissingInput)
}

// TestRelocateContent_NoContent is a no-op without a Content directory.
func TestRelocateContent_NoContent(t *testing.T) {
	t.Parallel()

	layout := NewLayout(t.TempDir(), "Game")
	require.NoError(t, layout.Create())

	moved, err := layout.RelocateContent(layout.MacOS)
	require.NoError(t, err)
	require.False(t, moved)
}

// TestCopyContent leaves the source payload in place.
func TestCopyContent(t *testing.T) {
	t.Parallel()

	artifact := newArtifact(t, "osx-x64", "Game")
	layout := NewLayout(t.TempDir(), "Game")
	require.NoError(t, layout.Create())

	copied, err := layout.CopyContent(artifact.RootDir)
	require.NoError(t, err)
	require.True(t, copied)
	require.FileExists(t, filepath.Join(layout.ContentPath(), "level.bin"))
	require.FileExists(t, filepath.Join(artifact.RootDir, "Content", "level.bin"))
}

// newArtifact creates a build output with an executable, a library and a content payload.
func newArtifact(t *testing.T, id, executable string) *target.BuildArtifact {
	t.Helper()

	tgt := target.MustParse(id)
	root := t.TempDir()

	writeFile(t, filepath.Join(root, tgt.ExecutableFile(executable)), "binary")
	writeFile(t, filepath.Join(root, "libnative.so"), "lib")
	writeFile(t, filepath.Join(root, "Content", "level.bin"), "level")

	return &target.BuildArtifact{
		RootDir:        root,
		ExecutableName: executable,
		Target:         tgt,
	}
}

// writeFile creates a file and its parent directories.
func writeFile(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

// requireExists fails when path is absent.
func requireExists(t *testing.T, path string) {
	t.Helper()

	_, err := os.Stat(path)
	require.NoError(t, err, path)
}

// requireMissing fails when path is present.
func requireMissing(t *testing.T, path string) {
	t.Helper()

	_, err := os.Stat(path)
	require.ErrorIs(t, err, fs.ErrNotExist, path)
}
