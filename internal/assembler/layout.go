package assembler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/app-packager/internal/platform"
)

// Bundle directory and file names are part of the macOS bundle contract.
const (
	// BundleExtension is appended to the application name.
	BundleExtension = ".app"
	// ContentsDirName is the bundle's top-level directory.
	ContentsDirName = "Contents"
	// MacOSDirName holds executables.
	MacOSDirName = "MacOS"
	// ResourcesDirName holds resources, the icon and the content payload.
	ResourcesDirName = "Resources"
	// InfoPlistName is the bundle property list file name.
	InfoPlistName = "Info.plist"
	// ContentDirName is the asset payload directory relocated into Resources.
	ContentDirName = "Content"

	// dirMode is used for skeleton directories.
	dirMode os.FileMode = 0o755
)

// ErrMissingInput is returned when a bundle input file (plist or icon) is missing.
var ErrMissingInput = errors.New("bundle input is missing")

// Layout is the directory skeleton of a macOS application bundle.
type Layout struct {
	// Name is the application name without the .app extension.
	Name string
	// Root is <parent>/<Name>.app.
	Root string
	// Contents is Root/Contents.
	Contents string
	// MacOS is Root/Contents/MacOS.
	MacOS string
	// Resources is Root/Contents/Resources.
	Resources string
}

// NewLayout computes the bundle paths for an application placed under parent.
// Nothing is created on disk.
func NewLayout(parent, name string) Layout {
	root := filepath.Join(parent, name+BundleExtension)
	contents := filepath.Join(root, ContentsDirName)

	return Layout{
		Name:      name,
		Root:      root,
		Contents:  contents,
		MacOS:     filepath.Join(contents, MacOSDirName),
		Resources: filepath.Join(contents, ResourcesDirName),
	}
}

// Create makes the MacOS and Resources directories.
func (l Layout) Create() error {
	for _, dir := range []string{l.MacOS, l.Resources} {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return fmt.Errorf("create bundle directory %s: %w", dir, err)
		}
	}

	return nil
}

// InfoPlistPath returns the location of the bundle property list.
func (l Layout) InfoPlistPath() string {
	return filepath.Join(l.Contents, InfoPlistName)
}

// ContentPath returns where the shared content payload lives inside the bundle.
func (l Layout) ContentPath() string {
	return filepath.Join(l.Resources, ContentDirName)
}

// ExecutablePath returns the path of the named executable under Contents/MacOS.
func (l Layout) ExecutablePath(name string) string {
	return filepath.Join(l.MacOS, name)
}

// InstallMetadata copies the property list to Contents/Info.plist and the icon into
// Contents/Resources, keeping the icon's file name.
func (l Layout) InstallMetadata(infoPlistPath, iconPath string) error {
	for _, input := range []string{infoPlistPath, iconPath} {
		info, err := os.Stat(input)
		if err != nil || info.IsDir() {
			return fmt.Errorf("%s: %w", input, ErrMissingInput)
		}
	}

	if err := platform.CopyFile(infoPlistPath, l.InfoPlistPath()); err != nil {
		return fmt.Errorf("copy %s: %w", InfoPlistName, err)
	}

	if err := platform.CopyFile(iconPath, filepath.Join(l.Resources, filepath.Base(iconPath))); err != nil {
		return fmt.Errorf("copy icon: %w", err)
	}

	return nil
}

// RelocateContent moves dir/Content, when present, to Contents/Resources/Content.
// It reports whether anything was moved.
func (l Layout) RelocateContent(dir string) (bool, error) {
	return l.installContent(dir, platform.Move)
}

// CopyContent copies dir/Content, when present, to Contents/Resources/Content and leaves
// the source untouched. It reports whether anything was copied.
func (l Layout) CopyContent(dir string) (bool, error) {
	return l.installContent(dir, func(src, dst string) error {
		return platform.CopyDir(src, dst, nil)
	})
}

// installContent places dir/Content at Contents/Resources/Content with transfer.
func (l Layout) installContent(dir string, transfer func(src, dst string) error) (bool, error) {
	src := filepath.Join(dir, ContentDirName)

	info, err := os.Stat(src)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("stat %s: %w", src, err)
	}

	if !info.IsDir() {
		return false, nil
	}

	dst := l.ContentPath()
	if err = os.RemoveAll(dst); err != nil {
		return false, fmt.Errorf("clear %s: %w", dst, err)
	}

	if err = transfer(src, dst); err != nil {
		return false, fmt.Errorf("relocate content: %w", err)
	}

	return true, nil
}
