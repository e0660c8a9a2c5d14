package archive

import (
	"archive/zip"
	"io"
	"io/fs"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/oshokin/app-packager/internal/domain/permission"
)

// Zip external attribute encoding: the high 16 bits hold a Unix st_mode when the
// creator OS (high byte of CreatorVersion) is Unix.
const (
	// zipCreatorUnix is the "made by" host system for Unix.
	zipCreatorUnix = 3
	// zipVersion20 is the zip format version (2.0) written in the low byte of CreatorVersion.
	zipVersion20 = 20
	// unixTypeRegular is S_IFREG.
	unixTypeRegular = 0o100000
	// unixTypeDirectory is S_IFDIR.
	unixTypeDirectory = 0o040000
	// unixTypeSymlink is S_IFLNK.
	unixTypeSymlink = 0o120000
	// msdosDirectory is the MS-DOS directory attribute in the low byte.
	msdosDirectory = 0x10
)

// zipWriter writes zip entries with Unix modes.
type zipWriter struct {
	// zw is the underlying zip stream.
	zw *zip.Writer
}

// newZipWriter wraps w and registers the klauspost Deflate compressor.
func newZipWriter(w io.Writer) *zipWriter {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	return &zipWriter{zw: zw}
}

// externalAttrs packs a Unix file type and permission set into the external attributes field.
func externalAttrs(unixType uint32, perm permission.Set) uint32 {
	return (unixType | uint32(perm.Perm())) << 16
}

// writeDir adds "name/" as a stored entry.
func (w *zipWriter) writeDir(name string, perm permission.Set, modTime time.Time) error {
	header := &zip.FileHeader{
		Name:           name + "/",
		Method:         zip.Store,
		Modified:       modTime,
		CreatorVersion: zipCreatorUnix<<8 | zipVersion20,
		ExternalAttrs:  externalAttrs(unixTypeDirectory, perm) | msdosDirectory,
	}

	_, err := w.zw.CreateHeader(header)

	return err
}

// writeFile adds a deflated file entry.
func (w *zipWriter) writeFile(name string, perm permission.Set, info fs.FileInfo, contents io.Reader) error {
	header := &zip.FileHeader{
		Name:           name,
		Method:         zip.Deflate,
		Modified:       info.ModTime(),
		CreatorVersion: zipCreatorUnix<<8 | zipVersion20,
		ExternalAttrs:  externalAttrs(unixTypeRegular, perm),
	}

	dst, err := w.zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, contents)

	return err
}

// writeSymlink adds a stored entry whose body is the link target, as Info-ZIP does.
func (w *zipWriter) writeSymlink(name, linkTarget string, perm permission.Set, modTime time.Time) error {
	header := &zip.FileHeader{
		Name:           name,
		Method:         zip.Store,
		Modified:       modTime,
		CreatorVersion: zipCreatorUnix<<8 | zipVersion20,
		ExternalAttrs:  externalAttrs(unixTypeSymlink, perm),
	}

	dst, err := w.zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.WriteString(dst, linkTarget)

	return err
}

// Close writes the central directory.
func (w *zipWriter) Close() error {
	return w.zw.Close()
}
