package itinerary

import "strings"

// NormalizeDestination derives the template cache key: lowercased with
// surrounding whitespace removed. Inner whitespace is kept as is.
func NormalizeDestination(destination string) string {
	return strings.ToLower(strings.TrimSpace(destination))
}
