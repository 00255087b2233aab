// Package openai wraps the OpenAI API behind the narrow embedding and
// completion surfaces the engine consumes.
package openai

import (
	"context"
	"fmt"

	oa "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/smartlibrary/librarian/pkg/fn"
	"github.com/smartlibrary/librarian/pkg/resilience"
)

// maxEmbedBatch caps texts per embeddings request.
const maxEmbedBatch = 64

// Config configures the client. BaseURL is only set in tests.
type Config struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	EmbedModel string
	// Dims requests reduced embedding dimensions; 0 keeps the model default.
	Dims int
	// Rate and Burst feed the outbound token bucket.
	Rate  float64
	Burst int
}

// Client calls OpenAI with rate limiting, retries on embeddings and a
// circuit breaker on completions.
type Client struct {
	api        oa.Client
	chatModel  string
	embedModel string
	dims       int
	limiter    *resilience.Limiter
	breaker    *resilience.Breaker
	retry      fn.RetryOpts
}

// New creates a Client.
func New(cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	return &Client{
		api:        oa.NewClient(opts...),
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbedModel,
		dims:       cfg.Dims,
		limiter:    resilience.NewLimiter(resilience.LimiterOpts{Rate: cfg.Rate, Burst: cfg.Burst}),
		breaker:    resilience.NewBreaker(resilience.DefaultBreakerOpts),
		retry:      fn.DefaultRetry,
	}
}

// EmbedTexts embeds texts in order, batching at most maxEmbedBatch per
// request. Each batch waits for a limiter token and is retried on
// transient failure.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for _, batch := range fn.Chunk(texts, maxEmbedBatch) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		res := fn.Retry(ctx, c.retry, func(ctx context.Context) fn.Result[[][]float32] {
			return fn.FromPair(c.embedBatch(ctx, batch))
		})
		vectors, err := res.Unwrap()
		if err != nil {
			return nil, fmt.Errorf("openai embed: %w", err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	params := oa.EmbeddingNewParams{
		Input: oa.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: oa.EmbeddingModel(c.embedModel),
	}
	if c.dims > 0 {
		params.Dimensions = oa.Int(int64(c.dims))
	}
	resp, err := c.api.Embeddings.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Data), len(texts))
	}
	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		v := make([]float32, len(d.Embedding))
		for j, x := range d.Embedding {
			v[j] = float32(x)
		}
		vectors[i] = v
	}
	return vectors, nil
}

// Complete runs a single chat completion through the breaker.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	var content string
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		resp, err := c.api.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
			Messages: []oa.ChatCompletionMessageParamUnion{
				oa.SystemMessage(system),
				oa.UserMessage(user),
			},
			Model: oa.ChatModel(c.chatModel),
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("completion returned no choices")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("openai complete: %w", err)
	}
	return content, nil
}

// CompleteStream streams a chat completion, calling onDelta for every
// non-empty content chunk. An onDelta error aborts the stream and is
// returned unwrapped; it counts as breaker success because the provider
// was healthy and only the consumer went away.
func (c *Client) CompleteStream(ctx context.Context, system, user string, onDelta func(string) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	var abort error
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		stream := c.api.Chat.Completions.NewStreaming(ctx, oa.ChatCompletionNewParams{
			Messages: []oa.ChatCompletionMessageParamUnion{
				oa.SystemMessage(system),
				oa.UserMessage(user),
			},
			Model: oa.ChatModel(c.chatModel),
		})
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				if err := onDelta(delta); err != nil {
					abort = err
					return nil
				}
			}
		}
		return stream.Err()
	})
	if err != nil {
		return fmt.Errorf("openai stream: %w", err)
	}
	return abort
}
