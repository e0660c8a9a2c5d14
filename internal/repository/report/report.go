package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Report is the outcome of one packaging run.
type Report struct {
	// RunID identifies the run in logs and metrics.
	RunID string `yaml:"run_id"`
	// Host is the machine that ran the packager.
	Host string `yaml:"host"`
	// StartedAt is when the run began.
	StartedAt time.Time `yaml:"started_at"`
	// FinishedAt is when the run ended.
	FinishedAt time.Time `yaml:"finished_at"`
	// Archives lists successfully written archives.
	Archives []Archive `yaml:"archives"`
	// Failures lists failed targets.
	Failures []Failure `yaml:"failures,omitempty"`
}

// Archive describes one produced archive.
type Archive struct {
	// Target is the runtime target identifier, or "universal".
	Target string `yaml:"target"`
	// Path is the archive location.
	Path string `yaml:"path"`
	// Format is the container format.
	Format string `yaml:"format"`
	// Bytes is the archive size.
	Bytes int64 `yaml:"bytes"`
	// SHA256 is the hex digest of the archive.
	SHA256 string `yaml:"sha256"`
	// Strategy names the universal strategy, when one was used.
	Strategy string `yaml:"strategy,omitempty"`
}

// Failure describes one failed target.
type Failure struct {
	// Target is the runtime target identifier.
	Target string `yaml:"target"`
	// Stage is the packaging stage that failed.
	Stage string `yaml:"stage"`
	// Error is the failure message.
	Error string `yaml:"error"`
}

// Repository defines persistence operations for run reports.
type Repository interface {
	Load(ctx context.Context) (*Report, error)
	Save(ctx context.Context, report *Report) error
}

// FileRepository persists a report as YAML on disk.
type FileRepository struct {
	// path is the filesystem location of the report.
	path string
	// mu serializes access to the report file.
	mu sync.Mutex
}

// ErrNotFound is returned when the report file does not exist yet.
var ErrNotFound = errors.New("report not found")

// reportFileMode is readable by CI users.
const reportFileMode os.FileMode = 0o644

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the report from disk.
func (r *FileRepository) Load(_ context.Context) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read report file: %w", err)
	}

	var report Report
	if err = yaml.Unmarshal(contents, &report); err != nil {
		return nil, fmt.Errorf("decode report file: %w", err)
	}

	return &report, nil
}

// Save writes the report to disk, replacing a previous one.
func (r *FileRepository) Save(_ context.Context, report *Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	if err = os.WriteFile(r.path, data, reportFileMode); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}

	return nil
}
