// Package summary resolves a possibly inexact title to the stored
// authoritative summary. Absence is always reported as readable text,
// never as an error, so the generation step always has something to say.
package summary

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/smartlibrary/librarian/engine/catalog"
	"github.com/smartlibrary/librarian/engine/domain"
)

// fuzzyThreshold is the minimum similarity for the last-resort match.
const fuzzyThreshold = 0.6

// Lookup answers summary queries against the catalog.
type Lookup struct {
	catalog *catalog.Catalog
}

// New creates a Lookup over the catalog.
func New(cat *catalog.Catalog) *Lookup {
	return &Lookup{catalog: cat}
}

// SummaryFor resolves title to a summary text. Resolution order:
// exact normalized match, then substring/prefix scan in catalog order,
// then fuzzy similarity >= 0.6. Books without a summary and unresolved
// titles both yield a human-readable Romanian message.
func (l *Lookup) SummaryFor(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Nu am primit niciun titlu. Te rog trimite un titlu de carte valid."
	}

	key := domain.NormalizeTitle(title)

	if book, ok := l.catalog.FindByNormalizedTitle(key); ok {
		return summaryOrNotice(book)
	}

	for _, book := range l.catalog.Books() {
		indexed := domain.NormalizeTitle(book.Title)
		if strings.Contains(indexed, key) || strings.HasPrefix(indexed, key) {
			return summaryOrNotice(book)
		}
	}

	if book, ok := l.closestTitle(title); ok {
		if s := strings.TrimSpace(book.Summary); s != "" {
			return s
		}
		return fmt.Sprintf("Am găsit cartea cea mai apropiată „%s”, dar nu are rezumat.", book.Title)
	}

	return fmt.Sprintf("Nu am găsit nicio carte cu titlul „%s”.", title)
}

// closestTitle returns the catalog book whose title is most similar to
// the query, if the similarity clears the threshold.
func (l *Lookup) closestTitle(title string) (domain.Book, bool) {
	var best domain.Book
	bestScore := 0.0
	for _, book := range l.catalog.Books() {
		s := similarity(domain.NormalizeTitle(title), domain.NormalizeTitle(book.Title))
		if s > bestScore {
			bestScore = s
			best = book
		}
	}
	return best, bestScore >= fuzzyThreshold
}

// similarity maps Levenshtein distance into [0, 1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func summaryOrNotice(book domain.Book) string {
	if s := strings.TrimSpace(book.Summary); s != "" {
		return s
	}
	return fmt.Sprintf("Cartea „%s” nu are un rezumat disponibil.", book.Title)
}
