// Package log provides the leveled, structured logger of taskgrunt, with text and JSON output.
package log

var std = New()

// Default returns the logger used by components that were not given one. Tests should pass their own.
func Default() Logger {
	return std
}
