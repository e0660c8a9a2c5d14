// Package report persists the outcome of a packaging run.
//
// The FileRepository writes a YAML document listing produced archives and
// failed targets so CI jobs can pick up artifacts without parsing logs.
package report
