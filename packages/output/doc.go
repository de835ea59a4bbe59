// Package output provides formatters for displaying dispatch results.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output
//
// Each formatter implements the Formatter interface. JSON implements
// Flushable because it accumulates results into one document.
package output
