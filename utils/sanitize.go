package utils

import "github.com/microcosm-cc/bluemonday"

// ugcPolicy allows the formatting users legitimately post (bold, links,
// lists) while stripping scripts and event handlers.
var ugcPolicy = bluemonday.UGCPolicy()

// Sanitize strips dangerous HTML from user supplied content before it is
// stored.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}
