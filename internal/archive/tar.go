package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
	"go.uber.org/multierr"

	"github.com/oshokin/app-packager/internal/domain/permission"
)

// tarWriter writes tar entries into a compressor stream.
type tarWriter struct {
	// tw is the tar stream.
	tw *tar.Writer
	// compressor is closed after tw.
	compressor io.WriteCloser
}

// newTarGzWriter returns a tar writer over gzip.
func newTarGzWriter(w io.Writer) (*tarWriter, error) {
	gz, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("create gzip stream: %w", err)
	}

	return &tarWriter{tw: tar.NewWriter(gz), compressor: gz}, nil
}

// newTarXzWriter returns a tar writer over xz.
func newTarXzWriter(w io.Writer) (*tarWriter, error) {
	xzw, err := xz.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("create xz stream: %w", err)
	}

	return &tarWriter{tw: tar.NewWriter(xzw), compressor: xzw}, nil
}

// writeDir adds a directory header named "name/".
func (w *tarWriter) writeDir(name string, perm permission.Set, modTime time.Time) error {
	return w.tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeDir,
		Name:     name + "/",
		Mode:     int64(perm.Perm()),
		ModTime:  modTime,
	})
}

// writeFile adds a regular file header followed by the contents.
func (w *tarWriter) writeFile(name string, perm permission.Set, info fs.FileInfo, contents io.Reader) error {
	err := w.tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     int64(perm.Perm()),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	})
	if err != nil {
		return err
	}

	_, err = io.CopyN(w.tw, contents, info.Size())

	return err
}

// writeSymlink adds a symlink header; the target is kept in Linkname.
func (w *tarWriter) writeSymlink(name, linkTarget string, perm permission.Set, modTime time.Time) error {
	return w.tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeSymlink,
		Name:     name,
		Linkname: linkTarget,
		Mode:     int64(perm.Perm()),
		ModTime:  modTime,
	})
}

// Close flushes the tar trailer and the compressor.
func (w *tarWriter) Close() error {
	return multierr.Append(w.tw.Close(), w.compressor.Close())
}
