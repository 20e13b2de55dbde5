// Package facet builds the automatic classification tags appended to
// ledger-like records. Derivation is a pure function of its inputs.
package facet

import (
	"fmt"
	"time"
)

// Facet names used in derived tags.
const (
	Theme = "Theme"
	Lens  = "Lens"
	Month = "Month"
)

// Tag formats one derived tag as "<Facet>/<Value>".
func Tag(facet, value string) string {
	return fmt.Sprintf("%s/%s", facet, value)
}

// MonthKey buckets a timestamp into its UTC 4-digit-year 2-digit-month pair.
func MonthKey(at time.Time) string {
	return at.UTC().Format("2006-01")
}

// Derive returns the derived tags for the given facet values, in stable
// order: theme, lens, month. Facets with no value produce no tag. The
// month facet always derives from createdAt.
func Derive(theme, lens string, createdAt time.Time) []string {
	var tags []string
	if theme != "" {
		tags = append(tags, Tag(Theme, theme))
	}
	if lens != "" {
		tags = append(tags, Tag(Lens, lens))
	}
	tags = append(tags, Tag(Month, MonthKey(createdAt)))
	return tags
}
