// Package moderation screens raw user input for disallowed language
// before any retrieval or generation work happens. It is pure and local:
// flagged text is never sent upstream.
package moderation

import (
	"regexp"
	"strings"
)

// Disallowed term stems, Romanian first, then English. Matching is a
// word-boundary stem match: each stem may be followed by more letters
// ("prost", "prostule", "prostia" all match "prost").
var offensiveStems = []string{
	"idiot",
	"prost",
	"nesimțit",
	"jeg",
	"jigod",
	"jigăod",
	"bozgor",
	"doamne-fer",
	"dracu",
	"naib",
	"pul",
	"cur",
	"muist",
	"țigan",
	"handicapat",
	"bou",
	"boulean",
	"porc",
	"vacă",
	"gunoa",
	"măgar",
	"zdrențăros",
	"javr",
	"moron",
	"jerk",
	"jackass",
	"asshole",
	"shit",
	"fuck",
	"cunt",
	"retard",
	"bitch",
	"whore",
	"slut",
	"bastard",
}

// Go's \b is ASCII-only, so the left word boundary is spelled out with a
// Unicode letter class to behave correctly around Romanian diacritics.
var pattern = regexp.MustCompile(
	`(?i)(?:^|[^\p{L}\p{N}_])((?:` + strings.Join(offensiveStems, "|") + `)[\p{L}]*)`,
)

// Inspect returns the matched disallowed term, or "" when the text is
// clean. No network call, no retention.
func Inspect(text string) string {
	if text == "" {
		return ""
	}
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
