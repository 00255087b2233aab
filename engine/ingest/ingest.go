// Package ingest populates the vector index from the book catalog.
// Population is idempotent: if the index already holds documents it is a
// no-op unless a forced rebuild is requested, because embedding calls are
// billed per token.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/smartlibrary/librarian/engine/catalog"
	"github.com/smartlibrary/librarian/engine/domain"
	"github.com/smartlibrary/librarian/engine/semantic"
	"github.com/smartlibrary/librarian/pkg/fn"
)

// EmbedBatchSize bounds the number of texts per embedding request.
const EmbedBatchSize = 64

// Embedder computes embedding vectors, order-preserving.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is the write-side surface of the vector store.
type Index interface {
	EnsureCollection(ctx context.Context, dims int) error
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Upsert(ctx context.Context, records []semantic.Record) error
}

// Populator mirrors the catalog into the vector index. The single mutex
// serializes overlapping startups so two processes of the same instance
// cannot double-insert.
type Populator struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	embed   Embedder
	index   Index
	dims    int
	logger  *slog.Logger

	// Retry controls backoff for embedding batches.
	Retry fn.RetryOpts
}

// New creates a Populator.
func New(cat *catalog.Catalog, embed Embedder, index Index, dims int, logger *slog.Logger) *Populator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Populator{catalog: cat, embed: embed, index: index, dims: dims, logger: logger, Retry: fn.DefaultRetry}
}

// EnsurePopulated makes sure the index mirrors the catalog.
// With force=false and a non-empty index it returns (0, existing) without
// any embedding work. With force=true it clears the index first. Returns
// the number of documents inserted and the number left untouched.
// A mid-run embedding failure aborts but keeps prior batches.
func (p *Populator) EnsurePopulated(ctx context.Context, force bool) (added, skipped int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.index.EnsureCollection(ctx, p.dims); err != nil {
		return 0, 0, err
	}

	existing, err := p.index.Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	if existing > 0 && !force {
		p.logger.Info("index already populated", "documents", existing)
		return 0, existing, nil
	}
	if force && existing > 0 {
		if err := p.index.Clear(ctx); err != nil {
			return 0, 0, err
		}
		p.logger.Info("index cleared for rebuild", "documents", existing)
	}

	books := p.catalog.Books()
	for _, batch := range fn.Chunk(books, EmbedBatchSize) {
		texts := fn.Map(batch, func(b domain.Book) string { return b.Document() })

		res := fn.Retry(ctx, p.Retry, func(ctx context.Context) fn.Result[[][]float32] {
			return fn.FromPair(p.embed.EmbedTexts(ctx, texts))
		})
		vectors, err := res.Unwrap()
		if err != nil {
			return added, len(books) - added, fmt.Errorf("ingest: embed batch: %w", err)
		}
		if len(vectors) != len(batch) {
			return added, len(books) - added, fmt.Errorf("ingest: embed batch: got %d vectors for %d texts", len(vectors), len(batch))
		}

		records := make([]semantic.Record, len(batch))
		for i, b := range batch {
			records[i] = semantic.Record{
				ID:        PointID(b.ID()),
				Embedding: vectors[i],
				Payload: map[string]string{
					"slug":     b.ID(),
					"title":    b.Title,
					"authors":  strings.Join(b.Authors, ", "),
					"tags":     strings.Join(b.Tags, ", "),
					"summary":  b.Summary,
					"document": texts[i],
				},
			}
		}
		if err := p.index.Upsert(ctx, records); err != nil {
			return added, len(books) - added, fmt.Errorf("ingest: %w", err)
		}
		added += len(batch)
	}

	p.logger.Info("index populated", "added", added)
	return added, len(books) - added, nil
}

// PointID derives the deterministic Qdrant point UUID for a catalog slug,
// so re-ingesting the same book overwrites rather than duplicates.
func PointID(slug string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(slug)).String()
}
