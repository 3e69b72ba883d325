// Package output renders operator-facing diagnostics and tables.
//
// Everything the shell shows to the operator flows through a Printer:
// success and failure lines carry the " (+) " / " (-) " markers, tabular
// data goes through Table, and display values are clipped to fixed widths
// so reports stay scannable. Structured logging is a separate concern and
// lives in internal/logging.
package output
