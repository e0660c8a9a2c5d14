// Package config defines the packaging manifest and provides helpers to load,
// validate and save it in YAML format.
//
// The Config type lists the build artifacts to package, the naming and format
// options, the macOS bundle inputs and the universal build settings.
package config
