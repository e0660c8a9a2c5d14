//go:build !unix

package archive

import "errors"

// mkfifo is not available on this platform.
func mkfifo(string) error {
	return errors.ErrUnsupported
}
