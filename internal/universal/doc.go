// Package universal builds multi-architecture macOS bundles from two
// single-architecture build outputs.
//
// A Strategy produces the executable part of the bundle. The merge strategy
// combines both executables into one fat binary through a Merger (the external
// lipo tool or the builtin Mach-O writer). The script strategy keeps one copy
// per architecture and installs a dispatch script that picks the right one at
// launch. Select chooses between them by probing what the host can do.
package universal
