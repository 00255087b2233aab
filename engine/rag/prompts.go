package rag

import (
	"fmt"
	"strings"

	"github.com/smartlibrary/librarian/engine/semantic"
)

// shortSummaryLimit caps the per-match context rendering so the prompt
// stays compact regardless of catalog summary length.
const shortSummaryLimit = 350

const personaPrompt = `Ești „Bibliotecarul Asistent”. Recomandă concis O SINGURĂ carte și explică pe scurt „De ce”. Apoi inserează rezumatul complet furnizat (nu inventa). Rămâi în română, prietenos și clar.`

const redirectMessage = `Aș vrea să păstrăm conversația politicoasă și respectuoasă. Poți reformula mesajul fără termeni ofensatori?`

// buildUserPrompt assembles the generation prompt: the user's request,
// the chosen title, the retrieved matches as orientation context, and
// the locally-resolved summary as ground truth to be echoed.
func buildUserPrompt(message, title, summary string, matches []semantic.Match) string {
	ragBlock := "—"
	if len(matches) > 0 {
		parts := make([]string, len(matches))
		for i, m := range matches {
			parts[i] = fmt.Sprintf("Titlu: %s\nAutori: %s\nRezumat scurt: %s...",
				m.Title, strings.Join(m.Authors, ", "), shorten(m.Summary, shortSummaryLimit))
		}
		ragBlock = strings.Join(parts, "\n\n")
	}

	chosen := title
	if chosen == "" {
		chosen = "N/A"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cerere utilizator: %s\n\n", message)
	fmt.Fprintf(&b, "Titlu ales: %s\n\n", chosen)
	fmt.Fprintf(&b, "CONTEXT (din RAG, pentru orientare – nu inventa altele):\n%s\n\n", ragBlock)
	fmt.Fprintf(&b, "Rezumat complet pentru titlul ales (din sursă locală):\n%s\n\n", summary)
	b.WriteString("Structură răspuns:\n")
	b.WriteString("1) O propoziție cu recomandarea (doar un titlu).\n")
	b.WriteString("2) De ce se potrivește (2–3 fraze).\n")
	b.WriteString("3) Rezumatul complet (exact cum e furnizat mai sus).")
	return b.String()
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
