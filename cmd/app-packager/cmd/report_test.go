package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/app-packager/internal/repository/report"
)

// TestReportCommand prints a saved run report.
func TestReportCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	saved := &report.Report{
		RunID:      "run-1",
		Host:       "linux",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Archives: []report.Archive{
			{Target: "linux-x64", Path: "dist/Game-linux-x64.tar.gz", Format: "tar.gz", Bytes: 42, SHA256: "abc123"},
		},
		Failures: []report.Failure{{Target: "win-x64", Stage: "configure", Error: "executable not found"}},
	}
	require.NoError(t, report.NewFileRepository(path).Save(context.Background(), saved))

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"report", path})

	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	require.Contains(t, out.String(), "run run-1 on linux, 2s")
	require.Contains(t, out.String(), "dist/Game-linux-x64.tar.gz")
	require.Contains(t, out.String(), "abc123")
	require.Contains(t, out.String(), "executable not found")
}

// TestReportCommand_MissingFile fails for an absent report.
func TestReportCommand_MissingFile(t *testing.T) {
	rootCmd.SetArgs([]string{"report", filepath.Join(t.TempDir(), "missing.yaml")})

	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
	})

	require.ErrorIs(t, rootCmd.ExecuteContext(context.Background()), report.ErrNotFound)
}
