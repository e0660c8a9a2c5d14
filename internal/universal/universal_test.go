package universal

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/app-packager/internal/assembler"
	"github.com/oshokin/app-packager/internal/domain/target"
	"github.com/oshokin/app-packager/internal/platform"
)

// recordingMerger concatenates its inputs and remembers the call.
type recordingMerger struct {
	// output is the last output path.
	output string
	// inputs are the last input paths.
	inputs []string
}

// Name returns "recording".
func (*recordingMerger) Name() string {
	return "recording"
}

// Available is always true.
func (*recordingMerger) Available(platform.Host) bool {
	return true
}

// Merge writes the concatenation of the inputs to output.
func (m *recordingMerger) Merge(_ context.Context, output string, inputs ...string) error {
	m.output = output
	m.inputs = inputs

	var merged []byte

	for _, input := range inputs {
		data, err := os.ReadFile(input)
		if err != nil {
			return err
		}

		merged = append(merged, data...)
	}

	return os.WriteFile(output, merged, 0o755)
}

// TestSelect covers the strategy choice per host.
func TestSelect(t *testing.T) {
	t.Parallel()

	darwin := platform.Host{OS: "darwin"}
	linux := platform.Host{OS: "linux"}
	lipo := NewToolMerger("")

	strategy, err := Select(ModeAuto, darwin, lipo)
	require.NoError(t, err)
	require.Equal(t, "merge:lipo", strategy.Name())

	strategy, err = Select(ModeAuto, linux, lipo)
	require.NoError(t, err)
	require.Equal(t, "script", strategy.Name())

	strategy, err = Select("", linux, NewBuiltinMerger())
	require.NoError(t, err)
	require.Equal(t, "merge:builtin", strategy.Name())

	strategy, err = Select(ModeScript, darwin, lipo)
	require.NoError(t, err)
	require.Equal(t, "script", strategy.Name())

	strategy, err = Select(ModeMerge, linux, lipo)
	require.NoError(t, err)
	require.Equal(t, "merge:lipo", strategy.Name())

	_, err = Select("magic", linux, lipo)
	require.ErrorIs(t, err, ErrUnknownMode)
}

// TestPair orders artifacts and rejects mismatched inputs.
func TestPair(t *testing.T) {
	t.Parallel()

	x64 := &target.BuildArtifact{Target: target.MustParse("osx-x64")}
	arm := &target.BuildArtifact{Target: target.MustParse("osx-arm64")}

	amd64, arm64, err := Pair(arm, x64)
	require.NoError(t, err)
	require.Same(t, x64, amd64)
	require.Same(t, arm, arm64)

	_, _, err = Pair(x64, x64)
	require.ErrorIs(t, err, ErrArchitectureMismatch)

	_, _, err = Pair(x64, &target.BuildArtifact{Target: target.MustParse("linux-arm64")})
	require.ErrorIs(t, err, ErrArchitectureMismatch)

	_, _, err = Pair(x64, nil)
	require.ErrorIs(t, err, ErrArchitectureMismatch)
}

// TestMergeStrategy produces one executable and no architecture directories.
func TestMergeStrategy(t *testing.T) {
	t.Parallel()

	req := newRequest(t, "MyGame")
	merger := new(recordingMerger)

	result, err := NewMergeStrategy(merger).Build(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, []string{"MyGame"}, result.Executables)

	require.Equal(t, []string{req.AMD64.ExecutablePath(), req.ARM64.ExecutablePath()}, merger.inputs)

	data, err := os.ReadFile(req.Layout.ExecutablePath("MyGame"))
	require.NoError(t, err)
	require.Equal(t, "x64-binaryarm64-binary", string(data))

	requireMissing(t, req.Layout.ExecutablePath("Game"))
	requireMissing(t, filepath.Join(req.Layout.MacOS, "amd64"))
	requireMissing(t, filepath.Join(req.Layout.MacOS, "arm64"))
	requireMissing(t, filepath.Join(req.Layout.MacOS, "Content"))
	requireExists(t, filepath.Join(req.Layout.ContentPath(), "level.bin"))
}

// TestScriptStrategy lays out per-architecture directories and a dispatch script.
func TestScriptStrategy(t *testing.T) {
	t.Parallel()

	req := newRequest(t, "MyGame")

	result, err := NewScriptStrategy(platform.CurrentHost()).Build(context.Background(), req)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"MyGame", "Game"}, dedupe(result.Executables))

	requireExists(t, filepath.Join(req.Layout.MacOS, "amd64", "Game"))
	requireExists(t, filepath.Join(req.Layout.MacOS, "arm64", "Game"))
	requireExists(t, filepath.Join(req.Layout.MacOS, "amd64", "libnative.dylib"))
	requireMissing(t, filepath.Join(req.Layout.MacOS, "amd64", "Content"))
	requireMissing(t, filepath.Join(req.Layout.MacOS, "arm64", "Content"))
	requireExists(t, filepath.Join(req.Layout.ContentPath(), "level.bin"))
	requireExists(t, filepath.Join(req.AMD64.RootDir, "Content", "level.bin"))

	script, err := os.ReadFile(req.Layout.ExecutablePath("MyGame"))
	require.NoError(t, err)
	require.NotContains(t, string(script), "\r")
	require.True(t, strings.HasPrefix(string(script), "#!/bin/bash\n"))
	require.Contains(t, string(script), "../Resources")
	require.Contains(t, string(script), `"./../MacOS/arm64/Game"`)
	require.Contains(t, string(script), `"./../MacOS/amd64/Game"`)

	if runtime.GOOS != "windows" {
		info, statErr := os.Stat(req.Layout.ExecutablePath("MyGame"))
		require.NoError(t, statErr)
		require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	}
}

// TestToolMerger runs a fake lipo that concatenates its inputs.
func TestToolMerger(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on Windows")
	}

	dir := t.TempDir()
	tool := writeTool(t, dir, `cat "$2" "$3" > "$5"`)

	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	out := filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(a, []byte("A"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("B"), 0o644))

	require.NoError(t, NewToolMerger(tool).Merge(context.Background(), out, a, b))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "AB", string(data))
}

// TestToolMerger_Failure surfaces the exit code and captured output.
func TestToolMerger_Failure(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on Windows")
	}

	dir := t.TempDir()
	tool := writeTool(t, dir, "echo progress\necho 'bad architecture' >&2\nexit 3")

	err := NewToolMerger(tool).Merge(context.Background(), filepath.Join(dir, "out"), "a", "b")

	var mergeErr *MergeToolError

	require.ErrorAs(t, err, &mergeErr)
	require.Equal(t, 3, mergeErr.ExitCode)
	require.Equal(t, "progress\n", mergeErr.Stdout)
	require.Equal(t, "bad architecture\n", mergeErr.Stderr)
	require.Contains(t, err.Error(), "merge tool failed with exit code 3")
	require.Contains(t, err.Error(), "bad architecture")
}

// TestToolMerger_MissingTool reports a start failure that is not a MergeToolError.
func TestToolMerger_MissingTool(t *testing.T) {
	t.Parallel()

	err := NewToolMerger(filepath.Join(t.TempDir(), "no-such-lipo")).
		Merge(context.Background(), "out", "a", "b")
	require.Error(t, err)

	var mergeErr *MergeToolError

	require.NotErrorAs(t, err, &mergeErr)
}

// newRequest creates two macOS build outputs and a bundle skeleton.
func newRequest(t *testing.T, name string) *Request {
	t.Helper()

	newBuild := func(id, payload string) *target.BuildArtifact {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "Game"), payload)
		writeFile(t, filepath.Join(root, "libnative.dylib"), "lib")
		writeFile(t, filepath.Join(root, "Content", "level.bin"), "level")

		return &target.BuildArtifact{
			RootDir:        root,
			ExecutableName: "Game",
			Target:         target.MustParse(id),
		}
	}

	layout := assembler.NewLayout(t.TempDir(), name)
	require.NoError(t, layout.Create())

	return &Request{
		Layout:         layout,
		AMD64:          newBuild("osx-x64", "x64-binary"),
		ARM64:          newBuild("osx-arm64", "arm64-binary"),
		ExecutableName: name,
	}
}

// writeTool writes an executable shell script and returns its path.
func writeTool(t *testing.T, dir, body string) string {
	t.Helper()

	path := filepath.Join(dir, "fake-lipo")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))

	return path
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

// dedupe removes repeated names while keeping order.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))

	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	return out
}
