package platform

import (
	"os"
	"runtime"
)

// Host describes the machine the packager runs on.
type Host struct {
	// OS is a GOOS value such as "darwin", "linux" or "windows".
	OS string
}

// CurrentHost returns the running host.
func CurrentHost() Host {
	return Host{OS: runtime.GOOS}
}

// IsMacOS reports whether the host is macOS, where the native merge tool is available.
func (h Host) IsMacOS() bool {
	return h.OS == "darwin"
}

// SupportsUnixModes reports whether the host file system keeps Unix permission bits.
func (h Host) SupportsUnixModes() bool {
	return h.OS != "windows"
}

// Chmod sets permission bits on hosts that keep them and does nothing elsewhere.
func (h Host) Chmod(path string, mode os.FileMode) error {
	if !h.SupportsUnixModes() {
		return nil
	}

	return os.Chmod(path, mode)
}

// Chmod applies mode on the running host.
func Chmod(path string, mode os.FileMode) error {
	return CurrentHost().Chmod(path, mode)
}
