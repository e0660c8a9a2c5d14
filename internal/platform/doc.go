// Package platform hides host differences from the packaging code.
//
// It reports host capabilities (is this a macOS host, does the file system keep
// Unix modes) and provides the copy/move/chmod helpers used while assembling
// package layouts.
package platform
