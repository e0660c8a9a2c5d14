// Package archive serializes an assembled directory tree into zip, tar.gz or
// tar.xz archives.
//
// Permission bits come from the permission package and are only re-encoded
// per format: zip keeps the Unix mode in the high 16 bits of the external
// attributes, tar keeps it in the header mode field. Inspect reads archives
// back and decodes the same bits.
package archive
