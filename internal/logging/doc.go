// Package logging wraps log/slog with the handlers and attribute helpers the
// rest of the repository uses: a console handler that renders
// component-prefixed logfmt lines, a JSON handler for machine consumption,
// and a rotated file sink for the daemon.
package logging
