package search_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/statenlab/dossierzoeker/internal/ai"
	"github.com/statenlab/dossierzoeker/internal/models"
	"github.com/statenlab/dossierzoeker/internal/search"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty embedding input", ai.ErrInvalidInput)
	}
	return s.vector, s.err
}

type stubRepo struct {
	buckets   []models.TimelineBucket
	facets    models.Facets
	lastQuery models.SearchQuery
}

func (s *stubRepo) HybridSearch(_ context.Context, q models.SearchQuery) ([]models.TimelineBucket, models.Facets, error) {
	s.lastQuery = q
	return s.buckets, s.facets, nil
}

func (s *stubRepo) Sample(_ context.Context, n int) ([]models.DocumentChunk, error) {
	return make([]models.DocumentChunk, n), nil
}

type stubCompleter struct {
	calls int
	err   error
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if strings.HasPrefix(prompt, "Classificeer") {
		return "Motie.", nil
	}
	return "Een samenvatting.", nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func chunk(chunkID, documentID string) models.DocumentChunk {
	return models.DocumentChunk{
		ChunkID:     chunkID,
		DocumentID:  documentID,
		ContentText: "De provincie stelt voor om het project voort te zetten.",
	}
}

func timeline(buckets ...models.TimelineBucket) []models.TimelineBucket {
	return buckets
}

func newService(embedder search.Embedder, repo search.Repository, completer search.Completer, cfg search.Config) *search.Service {
	return search.New(embedder, repo, completer, cfg, testLogger())
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	svc := newService(&stubEmbedder{}, &stubRepo{}, &stubCompleter{}, search.Config{})

	_, err := svc.Search(context.Background(), search.Request{Query: "   "})
	require.ErrorIs(t, err, ai.ErrInvalidInput)
}

func TestSearchPassesFiltersAndVector(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(&stubEmbedder{vector: []float32{0.9, 0.8}}, repo, &stubCompleter{}, search.Config{})

	_, err := svc.Search(context.Background(), search.Request{
		Query:          "stikstof",
		From:           "2024-01-01",
		Until:          "2024-02-01",
		Publishers:     []string{"Provincie"},
		TypesPrimary:   []string{"Motie"},
		TypesSecondary: []string{"Bijlage"},
	})
	require.NoError(t, err)

	require.Equal(t, "stikstof", repo.lastQuery.Text)
	require.Equal(t, []float32{0.9, 0.8}, repo.lastQuery.Vector)
	require.Equal(t, "2024-01-01", repo.lastQuery.From)
	require.Equal(t, "2024-02-01", repo.lastQuery.Until)
	require.Equal(t, []string{"Provincie"}, repo.lastQuery.Publishers)
	require.Equal(t, []string{"Motie"}, repo.lastQuery.TypesPrimary)
	require.Equal(t, []string{"Bijlage"}, repo.lastQuery.TypesSecondary)
}

func TestSearchAttachesDocumentIDsToFirstBucketOnly(t *testing.T) {
	repo := &stubRepo{buckets: timeline(
		models.TimelineBucket{Date: "2024-03-12", Documents: []models.DocumentChunk{
			chunk("c1", "doc-a"), chunk("c2", "doc-b"),
		}},
		models.TimelineBucket{Date: "2024-03-10", Documents: []models.DocumentChunk{
			chunk("c3", "doc-b"), chunk("c4", "doc-c"),
		}},
	)}
	svc := newService(&stubEmbedder{vector: []float32{0.1}}, repo, &stubCompleter{}, search.Config{
		CuratedTopics: []string{"stikstof"},
	})

	resp, err := svc.Search(context.Background(), search.Request{Query: "stikstof"})
	require.NoError(t, err)

	// union of all document ids, deduplicated, on the head bucket
	require.Equal(t, []string{"doc-a", "doc-b", "doc-c"}, resp.Timeline[0].DocumentIDs)
	require.Empty(t, resp.Timeline[1].DocumentIDs)
}

func TestSearchEveryDocumentInExactlyOneBucket(t *testing.T) {
	repo := &stubRepo{buckets: timeline(
		models.TimelineBucket{Date: "2024-03-12", Documents: []models.DocumentChunk{chunk("c1", "doc-a")}},
		models.TimelineBucket{Date: "2024-03-10", Documents: []models.DocumentChunk{chunk("c2", "doc-b")}},
	)}
	svc := newService(&stubEmbedder{vector: []float32{0.1}}, repo, &stubCompleter{}, search.Config{
		CuratedTopics: []string{"stikstof"},
	})

	resp, err := svc.Search(context.Background(), search.Request{Query: "stikstof"})
	require.NoError(t, err)

	seen := map[string]int{}
	for _, bucket := range resp.Timeline {
		for _, doc := range bucket.Documents {
			seen[doc.DocumentID]++
		}
	}
	for id, count := range seen {
		require.Equal(t, 1, count, "document %s appears in more than one bucket", id)
	}
}

func TestSearchEnrichesTopDocuments(t *testing.T) {
	repo := &stubRepo{buckets: timeline(
		models.TimelineBucket{Date: "2024-03-12", Documents: []models.DocumentChunk{
			chunk("c1", "doc-a"), chunk("c2", "doc-b"), chunk("c3", "doc-c"), chunk("c4", "doc-d"),
		}},
	)}
	completer := &stubCompleter{}
	svc := newService(&stubEmbedder{vector: []float32{0.1}}, repo, completer, search.Config{
		MaxBuckets:   3,
		MaxDocuments: 3,
	})

	resp, err := svc.Search(context.Background(), search.Request{Query: "woningbouw"})
	require.NoError(t, err)

	docs := resp.Timeline[0].Documents
	for i := 0; i < 3; i++ {
		require.Equal(t, "Een samenvatting.", docs[i].Summary)
		require.Equal(t, "Motie", docs[i].Label)
	}
	// the fourth document is beyond the enrichment cap
	require.Empty(t, docs[3].Summary)
	require.Empty(t, docs[3].Label)

	// summary + label per enriched document
	require.Equal(t, 6, completer.calls)
}

func TestSearchEnrichmentCapsBuckets(t *testing.T) {
	var buckets []models.TimelineBucket
	for i := 0; i < 4; i++ {
		buckets = append(buckets, models.TimelineBucket{
			Date:      fmt.Sprintf("2024-03-%02d", 12-i),
			Documents: []models.DocumentChunk{chunk(fmt.Sprintf("c%d", i), fmt.Sprintf("doc-%d", i))},
		})
	}
	repo := &stubRepo{buckets: buckets}
	svc := newService(&stubEmbedder{vector: []float32{0.1}}, repo, &stubCompleter{}, search.Config{
		MaxBuckets:   3,
		MaxDocuments: 3,
	})

	resp, err := svc.Search(context.Background(), search.Request{Query: "woningbouw"})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Timeline[0].Documents[0].Summary)
	require.NotEmpty(t, resp.Timeline[2].Documents[0].Summary)
	require.Empty(t, resp.Timeline[3].Documents[0].Summary)
}

func TestSearchSkipsEnrichmentForCuratedTopic(t *testing.T) {
	repo := &stubRepo{buckets: timeline(
		models.TimelineBucket{Date: "2024-03-12", Documents: []models.DocumentChunk{chunk("c1", "doc-a")}},
	)}
	completer := &stubCompleter{}
	svc := newService(&stubEmbedder{vector: []float32{0.1}}, repo, completer, search.Config{
		CuratedTopics: []string{"rijnlandroute", "windpark spui"},
	})

	// exclusion match is case-insensitive
	resp, err := svc.Search(context.Background(), search.Request{Query: "Windpark Spui"})
	require.NoError(t, err)

	require.Equal(t, 0, completer.calls)
	require.Empty(t, resp.Timeline[0].Documents[0].Summary)
	require.Empty(t, resp.Timeline[0].Documents[0].Label)
}

func TestSearchEnrichmentFailureSkipsDocument(t *testing.T) {
	repo := &stubRepo{buckets: timeline(
		models.TimelineBucket{Date: "2024-03-12", Documents: []models.DocumentChunk{chunk("c1", "doc-a")}},
	)}
	completer := &stubCompleter{err: errors.New("boom")}
	svc := newService(&stubEmbedder{vector: []float32{0.1}}, repo, completer, search.Config{})

	resp, err := svc.Search(context.Background(), search.Request{Query: "woningbouw"})
	require.NoError(t, err)
	require.Empty(t, resp.Timeline[0].Documents[0].Summary)
}

func TestSearchReturnsFacets(t *testing.T) {
	repo := &stubRepo{facets: models.Facets{
		TypePrimary: []models.PrimaryTypeCount{{TypePrimary: "Motie", AmountOfDocs: 5}},
		Publishers:  []models.PublisherCount{{Publisher: "Provincie", AmountOfDocs: 9}},
	}}
	svc := newService(&stubEmbedder{vector: []float32{0.1}}, repo, &stubCompleter{}, search.Config{})

	resp, err := svc.Search(context.Background(), search.Request{Query: "energie"})
	require.NoError(t, err)

	require.Equal(t, int64(5), resp.Filters.TypePrimary[0].AmountOfDocs)
	require.Equal(t, "Provincie", resp.Filters.Publishers[0].Publisher)
}
