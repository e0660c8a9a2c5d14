package archive

import (
	"path"
	"strings"

	"github.com/oshokin/app-packager/internal/domain/permission"
)

// Policy maps archived paths to permission roles.
type Policy struct {
	// Executables are the file names archived with executable permissions.
	Executables []string
	// CaseInsensitive compares file names case-insensitively (Windows targets).
	CaseInsensitive bool
}

// Role returns the role of an entry given its slash-separated archive name.
func (p *Policy) Role(name string, isDir bool) permission.Role {
	return permission.RoleOf(isDir, !isDir && p.isExecutable(path.Base(name)))
}

// isExecutable matches base against the configured executable names.
func (p *Policy) isExecutable(base string) bool {
	for _, executable := range p.Executables {
		if base == executable || (p.CaseInsensitive && strings.EqualFold(base, executable)) {
			return true
		}
	}

	return false
}
