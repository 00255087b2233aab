// Package main runs the librarian API server: catalog-backed book
// recommendations over an event stream.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/smartlibrary/librarian/engine/catalog"
	"github.com/smartlibrary/librarian/engine/ingest"
	"github.com/smartlibrary/librarian/engine/moderation"
	"github.com/smartlibrary/librarian/engine/rag"
	"github.com/smartlibrary/librarian/engine/retriever"
	"github.com/smartlibrary/librarian/engine/selector"
	"github.com/smartlibrary/librarian/engine/semantic"
	"github.com/smartlibrary/librarian/engine/summary"
	"github.com/smartlibrary/librarian/pkg/metrics"
	"github.com/smartlibrary/librarian/pkg/mid"
	"github.com/smartlibrary/librarian/pkg/openai"
)

// Config holds all environment-based configuration.
type Config struct {
	Port       string
	APIKey     string
	ChatModel  string
	EmbedModel string
	EmbedDims  int
	QdrantURL  string
	Collection string
	BooksPath  string
	CORSOrigin string
}

func loadConfig() Config {
	return Config{
		Port:       envOr("PORT", "8000"),
		APIKey:     os.Getenv("OPENAI_API_KEY"),
		ChatModel:  envOr("OPENAI_MODEL", "gpt-4.1-nano"),
		EmbedModel: envOr("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbedDims:  envInt("EMBED_DIMS", 1536),
		QdrantURL:  envOr("QDRANT_URL", "localhost:6334"),
		Collection: envOr("QDRANT_COLLECTION", "book_summaries"),
		BooksPath:  envOr("BOOKS_PATH", "data/book_summaries.json"),
		CORSOrigin: envOr("CORS_ORIGIN", "*"),
	}
}

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
	godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(loadConfig(), logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Load catalog ---
	cat, err := catalog.Load(cfg.BooksPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded", "path", cfg.BooksPath, "books", cat.Len())

	// --- Connect to Qdrant ---
	store, err := semantic.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer store.Close()

	// --- OpenAI client ---
	client := openai.New(openai.Config{
		APIKey:     cfg.APIKey,
		ChatModel:  cfg.ChatModel,
		EmbedModel: cfg.EmbedModel,
		Dims:       cfg.EmbedDims,
	})

	// --- Populate index if empty ---
	pop := ingest.New(cat, client, store, cfg.EmbedDims, logger)
	added, skipped, err := pop.EnsurePopulated(ctx, false)
	if err != nil {
		return fmt.Errorf("populate index: %w", err)
	}
	logger.Info("index ready", "added", added, "skipped", skipped)

	// --- Build the response service ---
	svc := rag.New(
		moderation.Inspect,
		retriever.New(client, store),
		selector.New(client),
		summary.New(cat),
		client,
		rag.DefaultOptions(),
		logger,
	)

	// --- HTTP server ---
	reg := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("POST /respond", handleRespond(svc, reg, logger))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("librarian-api"),
	)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays unset: /respond streams for as long as
		// the model talks.
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
