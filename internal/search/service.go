// Package search orchestrates a themed search request: embed the query, run
// the hybrid search, flatten the timeline, and enrich the top results with an
// AI summary and category label.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/statenlab/dossierzoeker/internal/ai"
	"github.com/statenlab/dossierzoeker/internal/models"
	"github.com/statenlab/dossierzoeker/internal/prompt"
)

// maxContentRunes caps how much chunk text ends up in one prompt.
const maxContentRunes = 8000

// Embedder converts text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Repository is the slice of the chunk index this service needs.
type Repository interface {
	HybridSearch(ctx context.Context, q models.SearchQuery) ([]models.TimelineBucket, models.Facets, error)
	Sample(ctx context.Context, n int) ([]models.DocumentChunk, error)
}

// Completer generates text from a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config tunes the enrichment pass.
type Config struct {
	// CuratedTopics are queries whose results are already curated content;
	// a case-insensitive match skips AI enrichment entirely.
	CuratedTopics []string
	// MaxBuckets / MaxDocuments bound how many results get enriched.
	MaxBuckets   int
	MaxDocuments int
}

// Request is one search call.
type Request struct {
	Query          string   `json:"query"`
	From           string   `json:"search_from,omitempty"`
	Until          string   `json:"search_until,omitempty"`
	Publishers     []string `json:"publishers,omitempty"`
	TypesPrimary   []string `json:"types_primary,omitempty"`
	TypesSecondary []string `json:"types_secondary,omitempty"`
}

// Response is the flattened timeline plus the facet counts driving the
// filter options.
type Response struct {
	Timeline []models.TimelineBucket `json:"timeline"`
	Filters  models.Facets           `json:"filters"`
}

// Service wires the embedding client, chunk repository, and completion
// client together. All calls are strictly sequential.
type Service struct {
	embedder  Embedder
	repo      Repository
	completer Completer
	cfg       Config
	log       *slog.Logger
}

// New constructs the search orchestrator.
func New(embedder Embedder, repo Repository, completer Completer, cfg Config, log *slog.Logger) *Service {
	if cfg.MaxBuckets <= 0 {
		cfg.MaxBuckets = 3
	}
	if cfg.MaxDocuments <= 0 {
		cfg.MaxDocuments = 3
	}
	return &Service{embedder: embedder, repo: repo, completer: completer, cfg: cfg, log: log}
}

// Search answers one themed search request.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ai.ErrInvalidInput)
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	buckets, facets, err := s.repo.HybridSearch(ctx, models.SearchQuery{
		Text:           query,
		Vector:         vector,
		From:           req.From,
		Until:          req.Until,
		Publishers:     req.Publishers,
		TypesPrimary:   req.TypesPrimary,
		TypesSecondary: req.TypesSecondary,
	})
	if err != nil {
		return nil, err
	}

	attachDocumentIDs(buckets)

	if !s.isCuratedTopic(query) {
		s.enrich(ctx, buckets)
	}

	return &Response{Timeline: buckets, Filters: facets}, nil
}

// Sample returns n arbitrary chunks; a connectivity smoke test.
func (s *Service) Sample(ctx context.Context, n int) ([]models.DocumentChunk, error) {
	return s.repo.Sample(ctx, n)
}

// attachDocumentIDs collects the union of document ids across all buckets
// and attaches it to the first bucket only. Later buckets deliberately do
// not carry the field; clients read the full id list from the head of the
// timeline.
func attachDocumentIDs(buckets []models.TimelineBucket) {
	if len(buckets) == 0 {
		return
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, bucket := range buckets {
		for _, doc := range bucket.Documents {
			if _, ok := seen[doc.DocumentID]; ok {
				continue
			}
			seen[doc.DocumentID] = struct{}{}
			ids = append(ids, doc.DocumentID)
		}
	}

	buckets[0].DocumentIDs = ids
}

func (s *Service) isCuratedTopic(query string) bool {
	for _, topic := range s.cfg.CuratedTopics {
		if strings.EqualFold(strings.TrimSpace(topic), query) {
			return true
		}
	}
	return false
}

// enrich generates a summary and a category label for the top documents of
// the newest buckets. Results are attached to the response only; persisting
// them is the batch jobs' business. A failed completion skips that document
// and the rest of the response still goes out.
func (s *Service) enrich(ctx context.Context, buckets []models.TimelineBucket) {
	for bi := range buckets {
		if bi >= s.cfg.MaxBuckets {
			break
		}
		for di := range buckets[bi].Documents {
			if di >= s.cfg.MaxDocuments {
				break
			}
			doc := &buckets[bi].Documents[di]
			content := prompt.CleanContent(doc.ContentText, maxContentRunes)
			if content == "" {
				continue
			}

			summary, err := s.completer.Complete(ctx, prompt.Summary(content))
			if err != nil {
				s.log.Warn("summary generation failed, skipping document",
					slog.String("chunk_id", doc.ChunkID),
					slog.Any("err", err),
				)
				continue
			}
			doc.Summary = summary

			label, err := s.completer.Complete(ctx, prompt.Label(doc.DocumentTitle, summary, content))
			if err != nil {
				s.log.Warn("label generation failed, skipping label",
					slog.String("chunk_id", doc.ChunkID),
					slog.Any("err", err),
				)
				continue
			}
			doc.Label = strings.Trim(strings.TrimSpace(label), ".")
		}
	}
}
