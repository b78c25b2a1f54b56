package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/statenlab/dossierzoeker/internal/models"
)

// Client wraps go-elasticsearch with the chunk-index operations this project
// needs. It is safe for concurrent use and meant to live for the whole
// process.
type Client struct {
	es    *elasticsearch.Client
	index string
	log   *slog.Logger
}

// New instantiates the search-backend client.
func New(addr, index, username, password string, logger *slog.Logger) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{addr},
		Username:  username,
		Password:  password,
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create search client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{es: es, index: index, log: logger}, nil
}

// Ping checks if the search backend is available.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping search backend: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("search backend ping failed: %s", res.Status())
	}

	return nil
}

// Health pings the cluster to ensure connectivity.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}

// Sample returns n arbitrary chunks. Used for smoke-testing connectivity.
func (c *Client) Sample(ctx context.Context, n int) ([]models.DocumentChunk, error) {
	if n <= 0 {
		n = 10
	}

	raw, err := c.search(ctx, map[string]any{"size": n})
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.DocumentChunk `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(raw).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode sample response: %w", err)
	}

	chunks := make([]models.DocumentChunk, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		chunks = append(chunks, hit.Source)
	}
	return chunks, nil
}

// HybridSearch runs the k-NN + filter query and flattens the nested
// aggregations into date buckets plus facet counts. A query matching no days
// yields an empty timeline; the facet lists may still be populated.
func (c *Client) HybridSearch(ctx context.Context, q models.SearchQuery) ([]models.TimelineBucket, models.Facets, error) {
	c.log.Debug("hybrid search",
		slog.String("query", q.Text),
		slog.Int("vector_dims", len(q.Vector)),
	)

	raw, err := c.search(ctx, buildHybridBody(q))
	if err != nil {
		return nil, models.Facets{}, err
	}
	defer raw.Close()

	return parseHybridResponse(raw)
}

// ChunksForChat retrieves the content text of the chunks most relevant to
// the question embedding, in descending score order. A non-empty documentIDs
// list restricts retrieval to those parent documents.
func (c *Client) ChunksForChat(ctx context.Context, vector []float32, documentIDs []string) ([]string, error) {
	raw, err := c.search(ctx, buildChatBody(vector, documentIDs))
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source struct {
					ContentText string `json:"content_text"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(raw).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode chat retrieval response: %w", err)
	}

	texts := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		texts = append(texts, hit.Source.ContentText)
	}
	return texts, nil
}

// GetByID looks up a single chunk by its identifier. A missing chunk is not
// an error: found reports whether the record exists.
func (c *Client) GetByID(ctx context.Context, chunkID string) (models.DocumentChunk, bool, error) {
	body := map[string]any{
		"size": 1,
		"query": map[string]any{
			"bool": map[string]any{
				"must": []map[string]any{
					{"term": map[string]any{"chunk_id": chunkID}},
				},
			},
		},
	}

	raw, err := c.search(ctx, body)
	if err != nil {
		return models.DocumentChunk{}, false, err
	}
	defer raw.Close()

	return parseGetByIDResponse(raw)
}

// Update merges the full record into the document at chunkID. Callers pass
// the complete re-fetched chunk so unrelated fields survive the write.
func (c *Client) Update(ctx context.Context, chunkID string, chunk models.DocumentChunk) error {
	payload, err := json.Marshal(map[string]any{"doc": chunk})
	if err != nil {
		return fmt.Errorf("marshal update body: %w", err)
	}

	res, err := c.es.Update(
		c.index,
		chunkID,
		bytes.NewReader(payload),
		c.es.Update.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("update chunk %s: %w", chunkID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("update chunk %s failed: %s", chunkID, strings.TrimSpace(string(data)))
	}

	return nil
}

func (c *Client) search(ctx context.Context, body map[string]any) (io.ReadCloser, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		res.Body.Close()
		return nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	return res.Body, nil
}
