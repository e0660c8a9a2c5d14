// Package permission defines the canonical Unix permission policy for packaged entries.
//
// Every archive format consults Resolve with the semantic role of an entry and
// encodes the returned bits in its own header representation.
package permission
