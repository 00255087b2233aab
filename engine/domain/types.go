// Package domain defines the core catalog types shared across the engine.
package domain

import "strings"

// Book is one entry of the fixed library catalog. Immutable once loaded.
type Book struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Tags    []string `json:"tags"`
	Summary string   `json:"summary"`
}

// ID returns the stable slug derived from the book title.
func (b Book) ID() string {
	return Slugify(b.Title)
}

// Document is the canonical text that gets embedded for a book. It is
// persisted next to the vector so retrieval can return it unchanged.
func (b Book) Document() string {
	parts := []string{"Title: " + strings.TrimSpace(b.Title)}
	if len(b.Authors) > 0 {
		parts = append(parts, "Authors: "+strings.Join(b.Authors, ", "))
	}
	if len(b.Tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(b.Tags, ", "))
	}
	if s := strings.TrimSpace(b.Summary); s != "" {
		parts = append(parts, "Summary: "+s)
	}
	return strings.Join(parts, "\n")
}

// NormalizeTitle is the canonical key for title lookups: trimmed and
// case-folded.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
