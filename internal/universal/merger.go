package universal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/oshokin/app-packager/internal/platform"
)

// DefaultMergeTool is the macOS tool that creates multi-architecture executables.
const DefaultMergeTool = "lipo"

// Merger combines single-architecture executables into one.
type Merger interface {
	// Name identifies the merger in logs.
	Name() string
	// Available reports whether the merger can run on host.
	Available(host platform.Host) bool
	// Merge writes the combined executable to output.
	Merge(ctx context.Context, output string, inputs ...string) error
}

// MergeToolError is returned when the external merge tool exits with a non-zero status.
type MergeToolError struct {
	// Tool is the executable that was run.
	Tool string
	// ExitCode is the tool's exit status.
	ExitCode int
	// Stdout is the captured standard output.
	Stdout string
	// Stderr is the captured standard error.
	Stderr string
}

// Error implements error and includes the captured output verbatim.
func (e *MergeToolError) Error() string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "merge tool failed with exit code %d", e.ExitCode)

	if e.Stdout != "" {
		builder.WriteString("\nstdout:\n")
		builder.WriteString(e.Stdout)
	}

	if e.Stderr != "" {
		builder.WriteString("\nstderr:\n")
		builder.WriteString(e.Stderr)
	}

	return builder.String()
}

// ToolMerger runs an external lipo-compatible tool.
type ToolMerger struct {
	// tool is the command name or path.
	tool string
}

// NewToolMerger returns a merger for the given tool; an empty tool means DefaultMergeTool.
func NewToolMerger(tool string) *ToolMerger {
	if tool == "" {
		tool = DefaultMergeTool
	}

	return &ToolMerger{tool: tool}
}

// Name returns the tool name.
func (m *ToolMerger) Name() string {
	return m.tool
}

// Available reports true only on macOS hosts; the tool ships with the Xcode command line tools.
func (m *ToolMerger) Available(host platform.Host) bool {
	return host.IsMacOS()
}

// Merge runs "<tool> -create <inputs...> -output <output>" with absolute paths and waits for it.
// Both output streams are captured while the process runs.
func (m *ToolMerger) Merge(ctx context.Context, output string, inputs ...string) error {
	args := make([]string, 0, len(inputs)+3)
	args = append(args, "-create")

	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", input, err)
		}

		args = append(args, abs)
	}

	absOutput, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", output, err)
	}

	args = append(args, "-output", absOutput)

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, m.tool, args...) //nolint:gosec // The tool is configured by the operator.
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &MergeToolError{
			Tool:     m.tool,
			ExitCode: exitErr.ExitCode(),
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}
	}

	return fmt.Errorf("run merge tool %s: %w", m.tool, err)
}
