package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"

	"github.com/oshokin/app-packager/internal/domain/permission"
	"github.com/oshokin/app-packager/internal/platform"
)

// dirMode is used when creating the output directory.
const dirMode os.FileMode = 0o755

// ErrSourceNotDirectory is returned when the archive source is not a directory.
var ErrSourceNotDirectory = errors.New("archive source is not a directory")

// Descriptor identifies one archive to write.
type Descriptor struct {
	// SourceRoot is the directory whose contents are archived (the root itself is not an entry).
	SourceRoot string
	// OutputPath is the archive file; an existing file is replaced.
	OutputPath string
	// Format is the container format; FormatAuto is not accepted here.
	Format Format
}

// Stats summarizes a written archive.
type Stats struct {
	// Files is the number of file entries.
	Files int
	// Directories is the number of directory entries.
	Directories int
	// Symlinks is the number of symbolic link entries.
	Symlinks int
	// Bytes is the size of the archive file.
	Bytes int64
}

// entryWriter is implemented per container format.
type entryWriter interface {
	// writeDir adds a directory entry; name has no trailing slash.
	writeDir(name string, perm permission.Set, modTime time.Time) error
	// writeFile adds a file entry and streams its contents.
	writeFile(name string, perm permission.Set, info fs.FileInfo, contents io.Reader) error
	// writeSymlink adds a symbolic link entry pointing at linkTarget.
	writeSymlink(name, linkTarget string, perm permission.Set, modTime time.Time) error
	// Close flushes the container and its compressor (not the underlying file).
	Close() error
}

// Write streams every file and directory under desc.SourceRoot into desc.OutputPath.
// Entry names are slash-separated and relative to SourceRoot; permissions come from
// the policy's role for each entry. A partially written archive is removed on error.
func Write(ctx context.Context, desc *Descriptor, policy *Policy) (stats *Stats, err error) {
	info, err := os.Stat(desc.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("stat archive source: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", desc.SourceRoot, ErrSourceNotDirectory)
	}

	if err = os.Remove(desc.OutputPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove previous archive: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(desc.OutputPath), dirMode); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(filepath.Clean(desc.OutputPath))
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(desc.OutputPath)
		}
	}()

	writer, err := newEntryWriter(desc.Format, file)
	if err != nil {
		return nil, multierr.Append(err, file.Close())
	}

	stats = new(Stats)

	walkErr := walk(ctx, desc.SourceRoot, policy, writer, stats)

	// Close the container before the file so trailers are flushed.
	err = multierr.Combine(walkErr, writer.Close(), file.Close())
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", desc.OutputPath, err)
	}

	written, err := os.Stat(desc.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	stats.Bytes = written.Size()

	return stats, nil
}

// newEntryWriter returns the writer for format.
//
//nolint:ireturn // Internal format switch.
func newEntryWriter(format Format, w io.Writer) (entryWriter, error) {
	switch format {
	case FormatZip:
		return newZipWriter(w), nil
	case FormatTarGz:
		return newTarGzWriter(w)
	case FormatTarXz:
		return newTarXzWriter(w)
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
}

// walk visits the tree in lexical order and emits one entry per directory, regular file
// and symlink. Links are stored unresolved; other special files fail the walk.
func walk(ctx context.Context, root string, policy *Policy, writer entryWriter, stats *Stats) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if rel == "." {
			return nil
		}

		name := filepath.ToSlash(rel)

		info, err := entry.Info()
		if err != nil {
			return err
		}

		perm := permission.Resolve(policy.Role(name, entry.IsDir()))

		switch {
		case entry.IsDir():
			stats.Directories++

			return writer.writeDir(name, perm, info.ModTime())
		case platform.IsSymlink(entry.Type()):
			stats.Symlinks++

			return writeSymlinkEntry(writer, path, name, info)
		case entry.Type().IsRegular():
			stats.Files++

			return writeFileEntry(writer, path, name, perm, info)
		default:
			return fmt.Errorf("archive %s: %w", name, platform.ErrUnsupportedEntry)
		}
	})
}

// writeSymlinkEntry reads the link target of path and hands it to the format writer.
func writeSymlinkEntry(writer entryWriter, path, name string, info fs.FileInfo) error {
	linkTarget, err := os.Readlink(path)
	if err != nil {
		return fmt.Errorf("read link %s: %w", path, err)
	}

	perm := permission.Resolve(permission.Symlink)
	if err = writer.writeSymlink(name, filepath.ToSlash(linkTarget), perm, info.ModTime()); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}

	return nil
}

// writeFileEntry opens path and hands it to the format writer.
func writeFileEntry(writer entryWriter, path, name string, perm permission.Set, info fs.FileInfo) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	defer func() {
		_ = f.Close()
	}()

	if err = writer.writeFile(name, perm, info, f); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}

	return nil
}
