package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for a missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.yaml"))
	r, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, r)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load returns the same report.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "reports", "run.yaml"))
	started := time.Now().UTC().Truncate(time.Second)

	want := &Report{
		RunID:      "5f0c6f43-8f0e-4c35-9d36-0a2b8f0d6f11",
		Host:       "ci-runner-7",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Archives: []Archive{
			{Target: "linux-x64", Path: "dist/Game-linux-x64.tar.gz", Format: "tar.gz", Bytes: 1024},
			{Target: "universal", Path: "dist/Game-universal.zip", Format: "zip", Bytes: 4096, Strategy: "script"},
		},
		Failures: []Failure{
			{Target: "win-x64", Stage: "assemble", Error: "copy build output: no such file"},
		},
	}

	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, want.RunID, got.RunID)
	require.True(t, want.StartedAt.Equal(got.StartedAt))
	require.Equal(t, want.Archives, got.Archives)
	require.Equal(t, want.Failures, got.Failures)
}
