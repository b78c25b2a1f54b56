package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// Completer generates free text from a prompt via the hosted chat-completion
// endpoint, either in one response or as an accumulated stream.
type Completer struct {
	model       llms.Model
	chatModel   string
	temperature float64
	maxTokens   int
	backoff     time.Duration
	log         *slog.Logger
}

// Complete generates a non-streamed completion for the prompt. A service
// error is retried exactly once after a fixed backoff.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: empty prompt", ErrInvalidInput)
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, c.callOptions()...)
	if err != nil {
		c.log.Warn("completion call failed, retrying once", slog.Any("err", err))
		if werr := wait(ctx, c.backoff); werr != nil {
			return "", werr
		}
		out, err = llms.GenerateFromSinglePrompt(ctx, c.model, prompt, c.callOptions()...)
		if err != nil {
			return "", fmt.Errorf("%w: completions: %v", ErrUpstream, err)
		}
	}

	return strings.TrimSpace(out), nil
}

// CompleteStream consumes the streamed delta fragments eagerly and returns
// them concatenated. If the stream errors mid-flight, it falls back to one
// non-streamed retry.
func (c *Completer) CompleteStream(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: empty prompt", ErrInvalidInput)
	}

	var buf strings.Builder
	opts := append(c.callOptions(), llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		buf.Write(chunk)
		return nil
	}))

	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, opts...)
	if err != nil {
		c.log.Warn("streamed completion failed, falling back to plain completion", slog.Any("err", err))
		if werr := wait(ctx, c.backoff); werr != nil {
			return "", werr
		}
		out, err = llms.GenerateFromSinglePrompt(ctx, c.model, prompt, c.callOptions()...)
		if err != nil {
			return "", fmt.Errorf("%w: completions: %v", ErrUpstream, err)
		}
		return strings.TrimSpace(out), nil
	}

	if buf.Len() > 0 {
		return strings.TrimSpace(buf.String()), nil
	}
	return strings.TrimSpace(out), nil
}

func (c *Completer) callOptions() []llms.CallOption {
	return []llms.CallOption{
		llms.WithModel(c.chatModel),
		llms.WithTemperature(c.temperature),
		llms.WithMaxTokens(c.maxTokens),
	}
}
