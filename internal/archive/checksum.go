package archive

import (
	"crypto"
	_ "crypto/sha256" // Registers SHA-256 for ChecksumFunction.
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ChecksumFunction is the hash published next to every archive.
const ChecksumFunction = crypto.SHA256

// errHashUnavailable is returned when ChecksumFunction is not linked into the binary.
var errHashUnavailable = errors.New("hash function is unavailable")

// Checksum returns the hex-encoded ChecksumFunction digest of the file at path.
func Checksum(path string) (string, error) {
	if !ChecksumFunction.Available() {
		return "", fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}

	defer func() {
		_ = f.Close()
	}()

	hasher := ChecksumFunction.New()
	if _, err = io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("calculate checksum: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
