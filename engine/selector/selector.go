// Package selector picks exactly one canonical title to answer about,
// given the retrieved candidates.
package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smartlibrary/librarian/engine/semantic"
	"github.com/smartlibrary/librarian/pkg/fn"
)

const systemPrompt = `Alege EXACT UN titlu din lista dată. Răspunde STRICT ca JSON valid pe o singură linie: {"title":"..."} Fără backticks, fără explicații.`

// Completer is the non-streaming completion capability.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Selector asks the completion provider to choose one title from the
// candidate set, with a deterministic fallback when the provider's
// output cannot be trusted.
type Selector struct {
	complete Completer
}

// New creates a Selector.
func New(complete Completer) *Selector {
	return &Selector{complete: complete}
}

// SelectTitle returns one title from the candidates, or "" when there
// are none. The provider is instructed to answer strict one-line JSON;
// a malformed answer or a title outside the candidate set falls back to
// the first candidate in first-seen order. Formatting failures never
// fail the request; only a provider error does.
func (s *Selector) SelectTitle(ctx context.Context, message string, matches []semantic.Match) (string, error) {
	titles := candidateTitles(matches)
	if len(titles) == 0 {
		return "", nil
	}

	user := fmt.Sprintf("Cerere: %s\nTitluri candidate: %s", message, strings.Join(titles, "; "))
	raw, err := s.complete.Complete(ctx, systemPrompt, user)
	if err != nil {
		return "", fmt.Errorf("selector: %w", err)
	}

	var decoded struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &decoded); err != nil {
		return titles[0], nil
	}
	chosen := strings.TrimSpace(decoded.Title)
	for _, t := range titles {
		if t == chosen {
			return chosen, nil
		}
	}
	return titles[0], nil
}

// candidateTitles extracts distinct non-empty titles, preserving
// first-seen order.
func candidateTitles(matches []semantic.Match) []string {
	titles := fn.FilterMap(matches, func(m semantic.Match) (string, bool) {
		t := strings.TrimSpace(m.Title)
		return t, t != ""
	})
	return fn.UniqueBy(titles, func(t string) string { return t })
}
