// Package catalog loads the fixed book catalog from its JSON source and
// serves read-only lookups over it.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/smartlibrary/librarian/engine/domain"
)

// Catalog is the in-memory copy of the book catalog. Read-only after Load.
type Catalog struct {
	books   []domain.Book
	byTitle map[string]domain.Book // normalized title -> book
}

// Load reads the catalog JSON file at path. Entries with an empty title
// are dropped. The file must decode to a JSON array of book records.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("catalog: %s: %w", path, domain.ErrCatalogMissing)
		}
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var books []domain.Book
	if err := json.Unmarshal(raw, &books); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", path, domain.ErrCatalogInvalid)
	}

	c := &Catalog{byTitle: make(map[string]domain.Book, len(books))}
	for _, b := range books {
		if domain.NormalizeTitle(b.Title) == "" {
			continue
		}
		c.books = append(c.books, b)
		c.byTitle[domain.NormalizeTitle(b.Title)] = b
	}
	return c, nil
}

// Books returns all catalog entries in source order.
func (c *Catalog) Books() []domain.Book { return c.books }

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.books) }

// FindByNormalizedTitle looks up a book by trimmed, case-folded title.
func (c *Catalog) FindByNormalizedTitle(title string) (domain.Book, bool) {
	b, ok := c.byTitle[domain.NormalizeTitle(title)]
	return b, ok
}

// Titles returns all titles in source order.
func (c *Catalog) Titles() []string {
	out := make([]string, len(c.books))
	for i, b := range c.books {
		out[i] = b.Title
	}
	return out
}
