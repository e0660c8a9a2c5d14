// Package target contains the runtime target and build artifact domain types.
//
// A Target is parsed from an opaque identifier such as "osx-arm64", "win-x64" or
// "darwin/amd64" and only exposes what packaging needs: the operating system
// family, the CPU architecture and a file-name friendly slug.
package target
