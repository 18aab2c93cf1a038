// Package htmlsanitize cleans user-supplied markup with bluemonday.
//
// Club and event descriptions may carry a small amount of formatting
// (UGC policy). Plain-text fields such as chat messages and event titles
// are stored as sent and never pass through here; escaping them is the
// renderer's job.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var ugc = bluemonday.UGCPolicy()

// Sanitize returns input with unsafe elements and attributes removed.
func Sanitize(input string) string {
	if input == "" {
		return ""
	}
	return ugc.Sanitize(input)
}
