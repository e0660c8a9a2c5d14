package universal

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/app-packager/internal/assembler"
	"github.com/oshokin/app-packager/internal/domain/target"
	"github.com/oshokin/app-packager/internal/platform"
)

// scriptMode is the permission of the dispatch script.
const scriptMode os.FileMode = 0o755

// ScriptStrategy keeps one build per architecture and dispatches at launch.
type ScriptStrategy struct {
	// host decides whether executable bits can be set on disk.
	host platform.Host
}

// NewScriptStrategy returns the dispatch-script strategy.
func NewScriptStrategy(host platform.Host) *ScriptStrategy {
	return &ScriptStrategy{host: host}
}

// Name returns "script".
func (*ScriptStrategy) Name() string {
	return "script"
}

// Build copies each architecture to Contents/MacOS/<arch> without its content payload,
// copies the shared payload once to Contents/Resources/Content and writes the dispatch script.
func (s *ScriptStrategy) Build(_ context.Context, req *Request) (*Result, error) {
	for _, artifact := range []*target.BuildArtifact{req.AMD64, req.ARM64} {
		dir := filepath.Join(req.Layout.MacOS, string(artifact.Target.Arch))

		if err := platform.CopyDir(artifact.RootDir, dir, skipContent); err != nil {
			return nil, fmt.Errorf("copy %s build output: %w", artifact.Target, err)
		}
	}

	copied, err := req.Layout.CopyContent(req.AMD64.RootDir)
	if err != nil {
		return nil, err
	}

	if !copied {
		if _, err = req.Layout.CopyContent(req.ARM64.RootDir); err != nil {
			return nil, err
		}
	}

	name := req.executableName()
	scriptPath := req.Layout.ExecutablePath(name)
	script := DispatchScript(req.AMD64.ExecutableFile(), req.ARM64.ExecutableFile())

	if err = os.WriteFile(scriptPath, []byte(script), scriptMode); err != nil {
		return nil, fmt.Errorf("write dispatch script: %w", err)
	}

	if err = s.host.Chmod(scriptPath, scriptMode); err != nil {
		return nil, fmt.Errorf("chmod dispatch script: %w", err)
	}

	return &Result{
		Executables: []string{name, req.AMD64.ExecutableFile(), req.ARM64.ExecutableFile()},
	}, nil
}

// DispatchScript returns the launcher that runs from Contents/Resources and execs the
// executable matching the processor: arm64/ on "arm", amd64/ otherwise.
// Lines are always joined with LF.
func DispatchScript(amd64Executable, arm64Executable string) string {
	lines := []string{
		"#!/bin/bash",
		`cd "$(dirname "${BASH_SOURCE[0]}")/../Resources" || exit 1`,
		`if [[ "$(uname -p)" == "arm" ]]; then`,
		fmt.Sprintf(`  exec "./../MacOS/%s/%s" "$@"`, target.ARM64, arm64Executable),
		"else",
		fmt.Sprintf(`  exec "./../MacOS/%s/%s" "$@"`, target.AMD64, amd64Executable),
		"fi",
		"",
	}

	return strings.Join(lines, "\n")
}

// skipContent leaves the top-level content payload out of per-architecture copies.
func skipContent(rel string, entry fs.DirEntry) bool {
	return entry.IsDir() && rel == assembler.ContentDirName
}
