package archive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oshokin/app-packager/internal/domain/target"
)

// Format is an archive container format.
type Format string

const (
	// FormatAuto picks a format from the runtime target.
	FormatAuto Format = "auto"
	// FormatZip is a zip archive.
	FormatZip Format = "zip"
	// FormatTarGz is a gzip-compressed tar archive.
	FormatTarGz Format = "tar.gz"
	// FormatTarXz is an xz-compressed tar archive.
	FormatTarXz Format = "tar.xz"
)

// ErrUnknownFormat is returned for unsupported format names or archive extensions.
var ErrUnknownFormat = errors.New("unknown archive format")

// ParseFormat converts a user-supplied name into a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(FormatAuto):
		return FormatAuto, nil
	case string(FormatZip):
		return FormatZip, nil
	case string(FormatTarGz), "tgz":
		return FormatTarGz, nil
	case string(FormatTarXz), "txz":
		return FormatTarXz, nil
	default:
		return "", fmt.Errorf("%q: %w", name, ErrUnknownFormat)
	}
}

// FormatFromPath guesses a format from an archive file name.
func FormatFromPath(path string) (Format, error) {
	lower := strings.ToLower(path)

	switch {
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip, nil
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz, nil
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return FormatTarXz, nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// Resolve replaces FormatAuto with the target's native format: zip for Windows and
// macOS, tar.gz for everything else.
func (f Format) Resolve(t target.Target) Format {
	if f != FormatAuto && f != "" {
		return f
	}

	if t.IsWindows() || t.IsMacOS() {
		return FormatZip
	}

	return FormatTarGz
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}
