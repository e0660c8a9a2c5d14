// Package packager turns build outputs into distributable archives.
//
// Run plans one packager per runtime target (plain directory, single-architecture
// macOS bundle, or a universal macOS bundle spanning two targets), assembles the
// layout, writes the archive, removes intermediate directories, and reports every
// failure with its target and stage. The failure policy decides whether a failing
// target stops the run.
package packager
