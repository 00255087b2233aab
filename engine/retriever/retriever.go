// Package retriever is the sole request-time read path into the vector
// index: it embeds the user query and runs nearest-neighbor search.
package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/smartlibrary/librarian/engine/semantic"
)

// Embedder computes embedding vectors, order-preserving.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher is the read-side surface of the vector store.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]semantic.Match, error)
}

// Retriever turns a user query into ranked catalog matches.
// Query embeddings are not cached; each call pays one embedding
// computation in exchange for freshness and simplicity.
type Retriever struct {
	embed Embedder
	store Searcher
}

// New creates a Retriever.
func New(embed Embedder, store Searcher) *Retriever {
	return &Retriever{embed: embed, store: store}
}

// Retrieve returns up to k matches sorted ascending by cosine distance.
// A blank query yields an empty result, not an error; k is clamped to 1.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]semantic.Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if k < 1 {
		k = 1
	}

	vectors, err := r.embed.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("retriever: embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("retriever: embed query: empty response")
	}

	return r.store.Search(ctx, vectors[0], k)
}
