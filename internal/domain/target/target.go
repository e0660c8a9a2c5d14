package target

import (
	"errors"
	"fmt"
	"strings"
)

// OS is an operating system family.
type OS string

// Arch is a CPU architecture.
type Arch string

const (
	// Windows family targets produce ".exe" executables.
	Windows OS = "windows"
	// MacOS family targets are packaged as .app bundles.
	MacOS OS = "macos"
	// Linux family targets are packaged as plain directories.
	Linux OS = "linux"
	// OtherOS is any family packaging does not special-case.
	OtherOS OS = "other"

	// AMD64 is x86-64.
	AMD64 Arch = "amd64"
	// ARM64 is 64-bit ARM.
	ARM64 Arch = "arm64"
	// X86 is 32-bit x86.
	X86 Arch = "386"
	// ARM is 32-bit ARM.
	ARM Arch = "arm"
	// OtherArch is any architecture packaging does not special-case.
	OtherArch Arch = "other"

	// WindowsExecutableSuffix is appended to executable stems on Windows targets.
	WindowsExecutableSuffix = ".exe"
)

// ErrEmptyTarget is returned when a target identifier is blank.
var ErrEmptyTarget = errors.New("runtime target is empty")

//nolint:gochecknoglobals // Lookup tables for identifier tokens.
var (
	osAliases = map[string]OS{
		"win":     Windows,
		"windows": Windows,
		"osx":     MacOS,
		"macos":   MacOS,
		"darwin":  MacOS,
		"mac":     MacOS,
		"linux":   Linux,
	}
	archAliases = map[string]Arch{
		"x64":     AMD64,
		"amd64":   AMD64,
		"x86_64":  AMD64,
		"arm64":   ARM64,
		"aarch64": ARM64,
		"x86":     X86,
		"386":     X86,
		"i386":    X86,
		"arm":     ARM,
	}
)

// Target is an immutable runtime target: the identifier as supplied plus the parsed parts.
type Target struct {
	// ID is the identifier exactly as the caller supplied it.
	ID string
	// OS is the operating system family derived from ID.
	OS OS
	// Arch is the CPU architecture derived from ID.
	Arch Arch
}

// Parse builds a Target from an identifier. Unknown families and architectures are kept as
// OtherOS/OtherArch so that any identifier can still be packaged with the plain packager.
func Parse(id string) (Target, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Target{}, ErrEmptyTarget
	}

	tokens := strings.FieldsFunc(strings.ToLower(id), func(r rune) bool {
		return r == '-' || r == '/' || r == '\\'
	})

	t := Target{
		ID:   id,
		OS:   OtherOS,
		Arch: OtherArch,
	}

	for _, token := range tokens {
		if family, ok := osAliases[token]; ok && t.OS == OtherOS {
			t.OS = family

			continue
		}

		if arch, ok := archAliases[token]; ok && t.Arch == OtherArch {
			t.Arch = arch
		}
	}

	return t, nil
}

// MustParse is Parse for identifiers known to be valid, such as test fixtures.
func MustParse(id string) Target {
	t, err := Parse(id)
	if err != nil {
		panic(fmt.Sprintf("parse target %q: %v", id, err))
	}

	return t
}

// String returns the identifier as supplied.
func (t Target) String() string {
	return t.ID
}

// Slug returns the identifier with path separators replaced, safe for file names.
func (t Target) Slug() string {
	return strings.NewReplacer("/", "-", "\\", "-", " ", "-").Replace(t.ID)
}

// IsWindows reports whether the target is in the Windows family.
func (t Target) IsWindows() bool {
	return t.OS == Windows
}

// IsMacOS reports whether the target is in the macOS family.
func (t Target) IsMacOS() bool {
	return t.OS == MacOS
}

// ExecutableFile returns the on-disk file name of an executable with the given stem.
func (t Target) ExecutableFile(name string) string {
	stem := t.ExecutableStem(name)
	if t.IsWindows() {
		return stem + WindowsExecutableSuffix
	}

	return stem
}

// ExecutableStem strips the platform executable suffix from name, if present.
func (t Target) ExecutableStem(name string) string {
	if t.IsWindows() && strings.HasSuffix(strings.ToLower(name), WindowsExecutableSuffix) {
		return name[:len(name)-len(WindowsExecutableSuffix)]
	}

	return name
}

// SameFileName compares two file names the way the target's file system would.
func (t Target) SameFileName(a, b string) bool {
	if t.IsWindows() {
		return strings.EqualFold(a, b)
	}

	return a == b
}
