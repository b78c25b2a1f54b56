// Package enrich implements the batch jobs that persist AI summaries and
// category labels back into the chunk index. Clients echo a previously
// returned timeline payload; the job re-walks it, re-fetches every chunk,
// generates the new fields, and writes the full record back.
package enrich

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/statenlab/dossierzoeker/internal/models"
	"github.com/statenlab/dossierzoeker/internal/prompt"
)

const maxContentRunes = 8000

// Repository is the read-modify-write slice of the chunk index.
type Repository interface {
	GetByID(ctx context.Context, chunkID string) (models.DocumentChunk, bool, error)
	Update(ctx context.Context, chunkID string, chunk models.DocumentChunk) error
}

// Completer generates text from a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Payload is the echoed timeline a client sends back for enrichment.
type Payload struct {
	Data []PayloadBucket `json:"data"`
}

// PayloadBucket mirrors one timeline date bucket.
type PayloadBucket struct {
	Date      string            `json:"date"`
	Documents []PayloadDocument `json:"documents"`
}

// PayloadDocument carries only the chunk identifier the job needs.
type PayloadDocument struct {
	ChunkID string `json:"chunk_id"`
}

// Result is the per-run manifest: which chunk ids were written and which
// were skipped. Failures never abort the batch.
type Result struct {
	ChunkIDsProcessed []string `json:"chunk_ids_processed"`
	ChunkIDsFailed    []string `json:"chunk_ids_failed"`
}

// Job runs batch enrichment sequentially over the payload's chunk ids.
type Job struct {
	repo      Repository
	completer Completer
	log       *slog.Logger
}

// New constructs a batch enrichment job.
func New(repo Repository, completer Completer, log *slog.Logger) *Job {
	return &Job{repo: repo, completer: completer, log: log}
}

// Summaries generates and persists a summary for every chunk in the payload.
func (j *Job) Summaries(ctx context.Context, p Payload) Result {
	return j.run(ctx, "summaries", p, func(ctx context.Context, chunk *models.DocumentChunk, content string) error {
		summary, err := j.completer.Complete(ctx, prompt.Summary(content))
		if err != nil {
			return err
		}
		chunk.Summary = summary
		return nil
	})
}

// Labels generates and persists a summary plus a category label for every
// chunk in the payload.
func (j *Job) Labels(ctx context.Context, p Payload) Result {
	return j.run(ctx, "labels", p, func(ctx context.Context, chunk *models.DocumentChunk, content string) error {
		summary, err := j.completer.Complete(ctx, prompt.Summary(content))
		if err != nil {
			return err
		}
		chunk.Summary = summary

		label, err := j.completer.Complete(ctx, prompt.Label(chunk.DocumentTitle, summary, content))
		if err != nil {
			return err
		}
		chunk.Label = strings.Trim(strings.TrimSpace(label), ".")
		return nil
	})
}

func (j *Job) run(ctx context.Context, kind string, p Payload, enrichFn func(context.Context, *models.DocumentChunk, string) error) Result {
	log := j.log.With(
		slog.String("job", kind),
		slog.String("run_id", uuid.NewString()),
	)

	chunkIDs := collectChunkIDs(p)
	log.Info("enrichment batch starting", slog.Int("chunks", len(chunkIDs)))

	var result Result
	for _, chunkID := range chunkIDs {
		if err := j.enrichOne(ctx, chunkID, enrichFn); err != nil {
			log.Warn("chunk enrichment failed, continuing",
				slog.String("chunk_id", chunkID),
				slog.Any("err", err),
			)
			result.ChunkIDsFailed = append(result.ChunkIDsFailed, chunkID)
			continue
		}
		result.ChunkIDsProcessed = append(result.ChunkIDsProcessed, chunkID)
	}

	log.Info("enrichment batch finished",
		slog.Int("processed", len(result.ChunkIDsProcessed)),
		slog.Int("failed", len(result.ChunkIDsFailed)),
	)
	return result
}

type notEnrichableError string

func (e notEnrichableError) Error() string { return string(e) }

// enrichOne does one full-record read-modify-write so unrelated fields
// survive the update.
func (j *Job) enrichOne(ctx context.Context, chunkID string, enrichFn func(context.Context, *models.DocumentChunk, string) error) error {
	chunk, found, err := j.repo.GetByID(ctx, chunkID)
	if err != nil {
		return err
	}
	if !found {
		return notEnrichableError("chunk not found")
	}

	content := prompt.CleanContent(chunk.ContentText, maxContentRunes)
	if content == "" {
		return notEnrichableError("chunk has no content")
	}

	if err := enrichFn(ctx, &chunk, content); err != nil {
		return err
	}

	return j.repo.Update(ctx, chunkID, chunk)
}

// collectChunkIDs walks every bucket and document, deduplicating ids so one
// chunk is not rewritten twice in the same run.
func collectChunkIDs(p Payload) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, bucket := range p.Data {
		for _, doc := range bucket.Documents {
			if doc.ChunkID == "" {
				continue
			}
			if _, ok := seen[doc.ChunkID]; ok {
				continue
			}
			seen[doc.ChunkID] = struct{}{}
			ids = append(ids, doc.ChunkID)
		}
	}
	return ids
}
