package archive

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// Entry is one archive member as seen by unpacking tools.
type Entry struct {
	// Name is the slash-separated member name without a trailing slash.
	Name string
	// Mode carries the decoded permission bits and the directory flag.
	Mode fs.FileMode
	// Size is the uncompressed size.
	Size int64
	// IsDir reports a directory entry.
	IsDir bool
	// Linkname is the target of a symlink entry.
	Linkname string
}

// Inspect lists the entries of an archive written in any supported format.
func Inspect(path string) ([]Entry, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	if format == FormatZip {
		return inspectZip(path)
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	var stream io.Reader

	switch format {
	case FormatTarXz:
		stream, err = xz.NewReader(f)
	default:
		var gz *gzip.Reader

		gz, err = gzip.NewReader(f)
		if err == nil {
			defer func() {
				_ = gz.Close()
			}()
		}

		stream = gz
	}

	if err != nil {
		return nil, fmt.Errorf("open %s stream: %w", format, err)
	}

	return inspectTar(stream)
}

// inspectZip decodes the Unix mode stored in the external attributes.
func inspectZip(path string) ([]Entry, error) {
	r, err := zip.OpenReader(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open zip archive: %w", err)
	}

	defer func() {
		_ = r.Close()
	}()

	entries := make([]Entry, 0, len(r.File))

	for _, f := range r.File {
		mode := f.Mode()
		entry := Entry{
			Name:  strings.TrimSuffix(f.Name, "/"),
			Mode:  mode,
			Size:  int64(f.UncompressedSize64), //nolint:gosec // Sizes written by this package fit int64.
			IsDir: mode.IsDir(),
		}

		if entry.IsSymlink() {
			if entry.Linkname, err = readZipLink(f); err != nil {
				return nil, err
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// readZipLink returns the body of a symlink entry, which holds the link target.
func readZipLink(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}

	defer func() {
		_ = rc.Close()
	}()

	target, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Name, err)
	}

	return string(target), nil
}

// inspectTar reads headers until the end of the stream.
func inspectTar(r io.Reader) ([]Entry, error) {
	tr := tar.NewReader(r)

	var entries []Entry

	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}

		if err != nil {
			return nil, fmt.Errorf("read tar entry: %w", err)
		}

		entries = append(entries, Entry{
			Name:     strings.TrimSuffix(header.Name, "/"),
			Mode:     header.FileInfo().Mode(),
			Size:     header.Size,
			IsDir:    header.Typeflag == tar.TypeDir,
			Linkname: header.Linkname,
		})
	}
}

// IsSymlink reports a symbolic link entry.
func (e Entry) IsSymlink() bool {
	return e.Mode&fs.ModeSymlink != 0
}

// Perm returns the permission bits of the entry.
func (e Entry) Perm() fs.FileMode {
	return e.Mode.Perm()
}
