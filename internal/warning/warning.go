// Package warning defines the non-fatal diagnostic channel codecs and
// drivers use to report lossy-but-not-illegal situations (ignored SQL
// constructs, type erasure on render, Named-to-Text fallback) without
// failing the operation that produced them. The CLI layer is responsible
// for printing these to stderr (SPEC_FULL.md, SUPPLEMENTED FEATURES).
package warning

import "fmt"

// Warning is one non-fatal diagnostic attached to a codec or driver
// operation's result.
type Warning struct {
	// Source names the column, type, or construct the warning concerns.
	Source string
	// Message is a human-readable description of what was lost or ignored.
	Message string
}

func (w Warning) String() string {
	if w.Source == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Source, w.Message)
}

// Collector accumulates Warnings during a single parse/render call.
type Collector struct {
	warnings []Warning
}

// Add records a warning.
func (c *Collector) Add(source, format string, args ...any) {
	c.warnings = append(c.warnings, Warning{Source: source, Message: fmt.Sprintf(format, args...)})
}

// Warnings returns the accumulated warnings in emission order.
func (c *Collector) Warnings() []Warning {
	return c.warnings
}
