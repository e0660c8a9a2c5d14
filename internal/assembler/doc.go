// Package assembler lays build outputs out in their distributable shape.
//
// AssemblePlain produces a flat copy of the build output (optionally renaming the
// executable), AssembleBundle produces a macOS .app bundle. Layout describes the
// fixed bundle skeleton and is shared with the universal binary strategies.
package assembler
