package platform

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
)

// defaultDirMode is used for directories created while assembling layouts.
const defaultDirMode os.FileMode = 0o755

// errNotDirectory is returned when CopyDir is given a file.
var errNotDirectory = errors.New("not a directory")

// SkipFunc decides whether a path (relative to the copy source, slash-separated) is left out.
type SkipFunc func(rel string, entry fs.DirEntry) bool

// CopyDir recursively copies src into dst, creating dst when needed.
// File modes are preserved and symlinks are recreated with their original target.
// Any other special file fails the copy with ErrUnsupportedEntry.
func CopyDir(src, dst string, skip SkipFunc) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source %s: %w", src, err)
	}

	if !srcInfo.IsDir() {
		return fmt.Errorf("copy %s: %w", src, errNotDirectory)
	}

	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		if rel != "." && skip != nil && skip(filepath.ToSlash(rel), entry) {
			if entry.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		target := filepath.Join(dst, rel)

		switch {
		case entry.IsDir():
			if err = os.MkdirAll(target, defaultDirMode); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
		case IsSymlink(entry.Type()):
			if err = CopySymlink(path, target); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			if err = CopyFile(path, target); err != nil {
				return err
			}
		default:
			return fmt.Errorf("copy %s: %w", path, ErrUnsupportedEntry)
		}

		return nil
	})
}

// CopyFile copies a single file from src to dst, preserving permissions.
// Parent directories of dst are created as needed and an existing dst is truncated.
func CopyFile(src, dst string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}

	defer func() {
		_ = in.Close()
	}()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	if err = os.MkdirAll(filepath.Dir(dst), defaultDirMode); err != nil {
		return fmt.Errorf("create directory for %s: %w", dst, err)
	}

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()

		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}

	// OpenFile applies the umask; restore the source mode explicitly.
	return Chmod(dst, info.Mode().Perm())
}

// Move renames src to dst, falling back to copy-and-delete when a rename is not possible
// (for example across devices). Parent directories of dst are created as needed.
func Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), defaultDirMode); err != nil {
		return fmt.Errorf("create directory for %s: %w", dst, err)
	}

	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("move %s: %w", src, renameErr)
	}

	if info.IsDir() {
		err = CopyDir(src, dst, nil)
	} else {
		err = CopyFile(src, dst)
	}

	if err != nil {
		return multierr.Append(fmt.Errorf("move %s to %s: %w", src, dst, renameErr), err)
	}

	if err = os.RemoveAll(src); err != nil {
		return fmt.Errorf("remove moved source %s: %w", src, err)
	}

	return nil
}

// Exists reports whether path exists. Errors other than "not exist" are returned.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, err
}
