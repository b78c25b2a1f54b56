// Package ai wraps the hosted Mistral embedding and chat-completion
// endpoints. Both clients apply the same retry contract: one attempt, a
// fixed backoff, exactly one retry, then the failure surfaces as ErrUpstream.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms/mistral"

	"github.com/statenlab/dossierzoeker/internal/config"
)

// Client bundles the long-lived embedding and completion handles. Construct
// one per process and inject it into the orchestrators.
type Client struct {
	Embedder  *Embedder
	Completer *Completer
}

// New dials Mistral and wires up both clients from the shared config.
func New(cfg config.AI, logger *slog.Logger) (*Client, error) {
	model, err := mistral.New(
		mistral.WithAPIKey(cfg.MistralAPIKey),
		mistral.WithModel(cfg.ChatModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create mistral client: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		Embedder: &Embedder{
			client:  model,
			backoff: cfg.RetryBackoff,
			log:     logger.With("component", "embedder"),
		},
		Completer: &Completer{
			model:       model,
			chatModel:   cfg.ChatModel,
			temperature: cfg.Temperature,
			maxTokens:   cfg.MaxTokens,
			backoff:     cfg.RetryBackoff,
			log:         logger.With("component", "completer"),
		},
	}, nil
}

// wait sleeps for the backoff unless the context is cancelled first.
func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
