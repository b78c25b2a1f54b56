// Package chat answers free-form questions against retrieved chunk texts.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/statenlab/dossierzoeker/internal/ai"
	"github.com/statenlab/dossierzoeker/internal/prompt"
)

// Embedder converts text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever fetches the chunk texts most relevant to a question embedding.
type Retriever interface {
	ChunksForChat(ctx context.Context, vector []float32, documentIDs []string) ([]string, error)
}

// Completer generates the answer, streamed and accumulated.
type Completer interface {
	CompleteStream(ctx context.Context, prompt string) (string, error)
}

// Service is the chat orchestrator: embed the question, retrieve context,
// ask the model.
type Service struct {
	embedder  Embedder
	retriever Retriever
	completer Completer
	log       *slog.Logger
}

// New constructs the chat orchestrator.
func New(embedder Embedder, retriever Retriever, completer Completer, log *slog.Logger) *Service {
	return &Service{embedder: embedder, retriever: retriever, completer: completer, log: log}
}

// Ask answers the question from retrieved chunk content. A non-empty
// documentIDs list scopes retrieval to those documents; otherwise retrieval
// is global.
func (s *Service) Ask(ctx context.Context, question string, documentIDs []string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: empty question", ai.ErrInvalidInput)
	}

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return "", err
	}

	contexts, err := s.retriever.ChunksForChat(ctx, vector, documentIDs)
	if err != nil {
		return "", err
	}

	s.log.Debug("retrieved chat context",
		slog.Int("chunks", len(contexts)),
		slog.Int("scoped_documents", len(documentIDs)),
	)

	return s.completer.CompleteStream(ctx, prompt.Chat(question, contexts))
}
