package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type embeddingClient interface {
	CreateEmbedding(ctx context.Context, inputTexts []string) ([][]float32, error)
}

// Embedder turns a text string into a 1024-dimension vector via the hosted
// embedding endpoint.
type Embedder struct {
	client  embeddingClient
	backoff time.Duration
	log     *slog.Logger
}

// Embed generates an embedding over the input text. A rate-limit or service
// error is retried exactly once after a fixed backoff.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty embedding input", ErrInvalidInput)
	}

	vectors, err := e.client.CreateEmbedding(ctx, []string{text})
	if err != nil {
		e.log.Warn("embedding call failed, retrying once", slog.Any("err", err))
		if werr := wait(ctx, e.backoff); werr != nil {
			return nil, werr
		}
		vectors, err = e.client.CreateEmbedding(ctx, []string{text})
		if err != nil {
			return nil, fmt.Errorf("%w: embeddings: %v", ErrUpstream, err)
		}
	}

	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: embeddings: empty response", ErrUpstream)
	}
	return vectors[0], nil
}
