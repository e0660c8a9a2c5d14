package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/app-packager/internal/archive"
	"github.com/oshokin/app-packager/internal/domain/target"
	"github.com/oshokin/app-packager/internal/universal"
)

// FailurePolicy decides what happens to the remaining targets after one fails.
type FailurePolicy string

const (
	// FailureContinue packages every target and reports all failures at the end.
	FailureContinue FailurePolicy = "continue"
	// FailureAbort stops at the first failing target.
	FailureAbort FailurePolicy = "abort"
)

// Merger names.
const (
	// MergerLipo runs the external merge tool.
	MergerLipo = "lipo"
	// MergerBuiltin writes the fat binary in-process.
	MergerBuiltin = "builtin"
)

// Config is the packaging manifest.
type Config struct {
	// ProjectName names archives and bundles when ExecutableName is empty.
	ProjectName string `yaml:"project_name"`
	// ExecutableName is the desired executable name; the build's executable is renamed to it.
	ExecutableName string `yaml:"executable_name"`
	// OutputDir receives the archives.
	OutputDir string `yaml:"output_dir"`
	// StagingDir is where package layouts are assembled before archiving.
	StagingDir string `yaml:"staging_dir"`
	// Format is the archive format name (auto, zip, tar.gz, tar.xz).
	Format string `yaml:"format"`
	// InfoPlist is the property list copied into macOS bundles.
	InfoPlist string `yaml:"info_plist"`
	// Icon is the .icns icon copied into macOS bundles.
	Icon string `yaml:"icon"`
	// Universal configures the combined macOS package.
	Universal Universal `yaml:"universal"`
	// FailurePolicy is continue or abort.
	FailurePolicy FailurePolicy `yaml:"failure_policy"`
	// KeepIntermediate keeps build and staging directories after archiving.
	KeepIntermediate bool `yaml:"keep_intermediate"`
	// MetricsFile, when set, receives Prometheus metrics in text format.
	MetricsFile string `yaml:"metrics_file"`
	// ReportFile, when set, receives the YAML run report.
	ReportFile string `yaml:"report_file"`
	// LogLevel is the zap level name.
	LogLevel string `yaml:"log_level"`
	// Artifacts are the build outputs to package, one per runtime target.
	Artifacts []Artifact `yaml:"artifacts"`
}

// Universal configures the multi-architecture macOS package.
type Universal struct {
	// Enabled merges the amd64 and arm64 macOS artifacts into one package.
	Enabled bool `yaml:"enabled"`
	// Strategy is auto, merge or script.
	Strategy string `yaml:"strategy"`
	// Merger is lipo or builtin.
	Merger string `yaml:"merger"`
	// MergeTool is the path or name of the lipo-compatible tool.
	MergeTool string `yaml:"merge_tool"`
}

// Artifact is one build output supplied by the build step.
type Artifact struct {
	// Target is the runtime target identifier.
	Target string `yaml:"target"`
	// Dir is the build output directory.
	Dir string `yaml:"dir"`
	// Executable is the executable name produced by the build.
	Executable string `yaml:"executable"`
}

const (
	// DefaultConfigFilename is the default manifest filename.
	DefaultConfigFilename = "app-packager.yaml"

	// DefaultOutputDir is where archives go when output_dir is empty.
	DefaultOutputDir = "dist"

	// stagingDirName is the staging directory under OutputDir.
	stagingDirName = ".staging"

	// UniversalTarget labels the combined macOS package in archive names and reports.
	UniversalTarget = "universal"

	// DefaultLogLevel is used when log_level is empty.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the permission of saved manifests.
	DefaultFilePermissions = 0o644
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// ErrNoArtifacts is returned when nothing is configured for packaging.
	ErrNoArtifacts = errors.New("no artifacts to package")
	// ErrInvalidArtifact is returned for artifacts without a directory or executable.
	ErrInvalidArtifact = errors.New("artifact needs target, dir and executable")
	// ErrDuplicateTarget is returned when two artifacts share a runtime target.
	ErrDuplicateTarget = errors.New("duplicate runtime target")
	// ErrUnknownPolicy is returned for unsupported failure policies.
	ErrUnknownPolicy = errors.New("unknown failure policy")
	// ErrUnknownMerger is returned for unsupported merger names.
	ErrUnknownMerger = errors.New("unknown merger")
	// ErrMissingBundleInput is returned when a macOS target lacks the plist or icon path.
	ErrMissingBundleInput = errors.New("macOS bundles need info_plist and icon")
)

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Read parses the manifest without validating it, so that command-line
// overrides can complete it first.
func Read(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the configuration for required fields and known values.
// Missing bundle inputs are not checked here; see RequireBundleInputs.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	if cfg.StagingDir == "" {
		cfg.StagingDir = filepath.Join(cfg.OutputDir, stagingDirName)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	format, err := archive.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	cfg.Format = string(format)

	switch cfg.FailurePolicy {
	case "":
		cfg.FailurePolicy = FailureContinue
	case FailureContinue, FailureAbort:
	default:
		return fmt.Errorf("%q: %w", cfg.FailurePolicy, ErrUnknownPolicy)
	}

	if err = validateUniversal(&cfg.Universal); err != nil {
		return err
	}

	return validateArtifacts(cfg.Artifacts, cfg.Universal.Enabled)
}

// RequireBundleInputs reports a configuration error when bundle inputs are missing.
func (c *Config) RequireBundleInputs() error {
	if strings.TrimSpace(c.InfoPlist) == "" || strings.TrimSpace(c.Icon) == "" {
		return ErrMissingBundleInput
	}

	return nil
}

// ArchiveFormat returns the configured format.
func (c *Config) ArchiveFormat() archive.Format {
	return archive.Format(c.Format)
}

// BuildArtifacts converts the configured artifacts into domain values.
func (c *Config) BuildArtifacts() ([]*target.BuildArtifact, error) {
	artifacts := make([]*target.BuildArtifact, 0, len(c.Artifacts))

	for _, a := range c.Artifacts {
		t, err := target.Parse(a.Target)
		if err != nil {
			return nil, err
		}

		artifacts = append(artifacts, &target.BuildArtifact{
			RootDir:        filepath.Clean(a.Dir),
			ExecutableName: t.ExecutableStem(a.Executable),
			Target:         t,
		})
	}

	return artifacts, nil
}

// ParseArtifactFlag parses "target=dir:executable". The colon of a Windows drive letter
// (C:\build) is not taken as the separator; a missing executable is left empty for
// Validate to reject.
func ParseArtifactFlag(value string) (Artifact, error) {
	id, rest, ok := strings.Cut(value, "=")
	if !ok || id == "" || rest == "" {
		return Artifact{}, fmt.Errorf("%q: %w", value, ErrInvalidArtifact)
	}

	dir, executable := rest, ""
	if idx := strings.LastIndex(rest, ":"); idx > 0 && !isWindowsDrive(rest, idx) {
		dir, executable = rest[:idx], rest[idx+1:]
	}

	return Artifact{Target: id, Dir: dir, Executable: executable}, nil
}

// validateUniversal fills universal defaults and checks names.
func validateUniversal(u *Universal) error {
	if u.Strategy == "" {
		u.Strategy = string(universal.ModeAuto)
	}

	switch universal.Mode(u.Strategy) {
	case universal.ModeAuto, universal.ModeMerge, universal.ModeScript:
	default:
		return fmt.Errorf("%q: %w", u.Strategy, universal.ErrUnknownMode)
	}

	if u.Merger == "" {
		u.Merger = MergerLipo
	}

	if u.Merger != MergerLipo && u.Merger != MergerBuiltin {
		return fmt.Errorf("%q: %w", u.Merger, ErrUnknownMerger)
	}

	if u.MergeTool == "" {
		u.MergeTool = universal.DefaultMergeTool
	}

	return nil
}

// validateArtifacts checks required fields and that no two targets map to the same file names.
func validateArtifacts(artifacts []Artifact, universalEnabled bool) error {
	if len(artifacts) == 0 {
		return ErrNoArtifacts
	}

	seen := make(map[string]string, len(artifacts)+1)
	if universalEnabled {
		seen[UniversalTarget] = "the universal package"
	}

	for _, a := range artifacts {
		if strings.TrimSpace(a.Target) == "" || a.Dir == "" || a.Executable == "" {
			return fmt.Errorf("%+v: %w", a, ErrInvalidArtifact)
		}

		t, err := target.Parse(a.Target)
		if err != nil {
			return err
		}

		// Targets sharing a slug would write the same archive and staging directory.
		key := strings.ToLower(t.Slug())
		if first, ok := seen[key]; ok {
			return fmt.Errorf("%s and %s: %w", first, a.Target, ErrDuplicateTarget)
		}

		seen[key] = a.Target
	}

	return nil
}

// isWindowsDrive reports whether the colon at idx belongs to a drive letter such as "C:\".
func isWindowsDrive(s string, idx int) bool {
	return idx == 1 && len(s) > 2 && (s[2] == '\\' || s[2] == '/')
}
