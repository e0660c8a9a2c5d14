package permission

import (
	"fmt"
	"io/fs"
)

// Role is the semantic role of a path inside a packaged tree.
type Role int

const (
	// RegularFile is any non-directory entry that is not the designated executable.
	RegularFile Role = iota
	// Executable is the application executable (or its dispatch script).
	Executable
	// Directory is a directory entry.
	Directory
	// Symlink is a symbolic link carried over from the build output.
	Symlink
)

// Set is a canonical Unix permission bit set (only the low nine bits are used).
type Set uint32

const (
	// FileSet is rw-r--r--.
	FileSet Set = 0o644
	// ExecutableSet is rwxr-xr-x.
	ExecutableSet Set = 0o755
	// DirectorySet is rwxr-xr-x.
	DirectorySet Set = 0o755
	// SymlinkSet is rwxr-xr-x; extractors ignore link permissions on Linux and macOS.
	SymlinkSet Set = 0o755

	// permMask limits a Set to owner/group/other bits.
	permMask Set = 0o777
	// groupOtherWrite is forbidden for any packaged entry.
	groupOtherWrite Set = 0o022
)

// String returns the role name used in logs.
func (r Role) String() string {
	switch r {
	case RegularFile:
		return "file"
	case Executable:
		return "executable"
	case Directory:
		return "directory"
	case Symlink:
		return "symlink"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Resolve returns the permission set for the provided role.
// Unknown roles fall back to the regular file set so the result is never zero.
func Resolve(role Role) Set {
	switch role {
	case Executable:
		return ExecutableSet
	case Directory:
		return DirectorySet
	case Symlink:
		return SymlinkSet
	default:
		return FileSet
	}
}

// RoleOf derives the role of an entry from its directory flag and executable match.
func RoleOf(isDir, isExecutable bool) Role {
	switch {
	case isDir:
		return Directory
	case isExecutable:
		return Executable
	default:
		return RegularFile
	}
}

// Perm converts the set into an fs.FileMode carrying permission bits only.
func (s Set) Perm() fs.FileMode {
	return fs.FileMode(s & permMask)
}

// Valid reports whether the set is non-zero and grants no write access to group or other.
func (s Set) Valid() bool {
	return s&permMask != 0 && s&groupOtherWrite == 0
}

// String renders the set in the familiar ls-style form, e.g. rwxr-xr-x.
func (s Set) String() string {
	return s.Perm().String()[1:]
}
