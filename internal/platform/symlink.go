package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrUnsupportedEntry is returned for build output entries that are neither regular files,
// directories nor symlinks (sockets, pipes, devices).
var ErrUnsupportedEntry = errors.New("unsupported file type")

// CopySymlink recreates the symlink src at dst with the same, unresolved target.
// An existing dst is replaced and parent directories are created as needed.
func CopySymlink(src, dst string) error {
	linkTarget, err := os.Readlink(src)
	if err != nil {
		return fmt.Errorf("read link %s: %w", src, err)
	}

	if err = os.MkdirAll(filepath.Dir(dst), defaultDirMode); err != nil {
		return fmt.Errorf("create directory for %s: %w", dst, err)
	}

	if err = os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("replace %s: %w", dst, err)
	}

	if err = os.Symlink(linkTarget, dst); err != nil {
		return fmt.Errorf("create link %s: %w", dst, err)
	}

	return nil
}

// IsSymlink reports whether the mode describes a symbolic link.
func IsSymlink(mode fs.FileMode) bool {
	return mode&fs.ModeSymlink != 0
}
