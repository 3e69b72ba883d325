// Package logging provides slog helpers shared across the codebase.
//
// It defines the common attribute keys used when logging reconnaissance
// operations (operation, broker, cluster, duration) so log lines stay
// consistent and greppable, plus constructors for the process logger.
package logging
