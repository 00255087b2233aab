// Package main populates the vector index from the book catalog.
// By default it is a no-op when the collection already holds points;
// -force drops and re-embeds everything.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/smartlibrary/librarian/engine/catalog"
	"github.com/smartlibrary/librarian/engine/ingest"
	"github.com/smartlibrary/librarian/engine/semantic"
	"github.com/smartlibrary/librarian/pkg/openai"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	force := flag.Bool("force", false, "clear the collection and re-embed the whole catalog")
	booksPath := flag.String("books", envOr("BOOKS_PATH", "data/book_summaries.json"), "path to the catalog JSON")
	flag.Parse()

	godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(*booksPath, *force, logger); err != nil {
		logger.Error("indexing failed", "err", err)
		os.Exit(1)
	}
}

func run(booksPath string, force bool, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(booksPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded", "path", booksPath, "books", cat.Len())

	store, err := semantic.New(envOr("QDRANT_URL", "localhost:6334"), envOr("QDRANT_COLLECTION", "book_summaries"))
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer store.Close()

	dims := envInt("EMBED_DIMS", 1536)
	client := openai.New(openai.Config{
		APIKey:     os.Getenv("OPENAI_API_KEY"),
		EmbedModel: envOr("EMBEDDING_MODEL", "text-embedding-3-small"),
		Dims:       dims,
	})

	start := time.Now()
	added, skipped, err := ingest.New(cat, client, store, dims, logger).EnsurePopulated(ctx, force)
	if err != nil {
		return err
	}
	logger.Info("index populated", "added", added, "skipped", skipped, "took", time.Since(start))
	return nil
}
