// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder writing to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Packaging code accepts a context and extracts the logger from it, so every
// line carries the run and target it belongs to.
package logger
