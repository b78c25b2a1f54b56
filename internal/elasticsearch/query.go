package elasticsearch

import "github.com/statenlab/dossierzoeker/internal/models"

const (
	// knnK is how many nearest chunks the hybrid query considers.
	knnK = 100
	// chatK / chatScopedK size the chat retrieval; the scoped variant casts a
	// wider net because the document filter discards most neighbours.
	chatK       = 10
	chatScopedK = 100
	chatSize    = 10

	documentAggSize = 1000
	facetAggSize    = 1000
)

// buildHybridBody assembles the hybrid search request: a mandatory k-NN
// clause over the chunk embedding, conjunctive filters, zero raw hits, and
// the nested date -> document -> top-hit aggregation plus flat facet
// aggregations.
func buildHybridBody(q models.SearchQuery) map[string]any {
	filters := make([]map[string]any, 0, 4)

	if q.From != "" || q.Until != "" {
		rangeQuery := map[string]any{}
		if q.From != "" {
			rangeQuery["gte"] = q.From
		}
		if q.Until != "" {
			rangeQuery["lt"] = q.Until
		}
		filters = append(filters, map[string]any{
			"range": map[string]any{"published": rangeQuery},
		})
	}

	if len(q.Publishers) > 0 {
		filters = append(filters, map[string]any{
			"terms": map[string]any{"publisher": q.Publishers},
		})
	}

	if len(q.TypesPrimary) > 0 {
		filters = append(filters, map[string]any{
			"terms": map[string]any{"type_primary": q.TypesPrimary},
		})
	}

	if len(q.TypesSecondary) > 0 {
		filters = append(filters, map[string]any{
			"terms": map[string]any{"type_secondary": q.TypesSecondary},
		})
	}

	boolQuery := map[string]any{
		"must": []map[string]any{
			{"knn": knnClause(q.Vector, knnK)},
		},
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	return map[string]any{
		"size":  0,
		"query": map[string]any{"bool": boolQuery},
		"aggs": map[string]any{
			"per_day": map[string]any{
				"date_histogram": map[string]any{
					"field":             "published",
					"calendar_interval": "day",
					"format":            "yyyy-MM-dd",
					"min_doc_count":     1,
					"order":             map[string]any{"_key": "desc"},
				},
				"aggs": map[string]any{
					"per_document": map[string]any{
						"terms": map[string]any{
							"field": "document_id",
							"size":  documentAggSize,
							"order": map[string]any{"best_score": "desc"},
						},
						"aggs": map[string]any{
							"best_chunk": map[string]any{
								"top_hits": map[string]any{
									"size": 1,
									"_source": map[string]any{
										"excludes": []string{"embedding"},
									},
								},
							},
							"best_score": map[string]any{
								"max": map[string]any{
									"script": map[string]any{"source": "_score"},
								},
							},
						},
					},
				},
			},
			"type_primary":   termsAgg("type_primary"),
			"type_secondary": termsAgg("type_secondary"),
			"publisher":      termsAgg("publisher"),
		},
	}
}

// buildChatBody assembles the retrieval query for chat: k-NN over the
// question embedding, optionally restricted to a document allow-list.
func buildChatBody(vector []float32, documentIDs []string) map[string]any {
	k := chatK
	boolQuery := map[string]any{}

	if len(documentIDs) > 0 {
		k = chatScopedK
		boolQuery["filter"] = []map[string]any{
			{"terms": map[string]any{"document_id": documentIDs}},
		}
	}

	boolQuery["must"] = []map[string]any{
		{"knn": knnClause(vector, k)},
	}

	return map[string]any{
		"size":    chatSize,
		"_source": []string{"content_text"},
		"query":   map[string]any{"bool": boolQuery},
	}
}

// knnClause emits the Elasticsearch 8 knn query over the chunk embedding.
func knnClause(vector []float32, k int) map[string]any {
	return map[string]any{
		"field":          "embedding",
		"query_vector":   vector,
		"k":              k,
		"num_candidates": k,
	}
}

func termsAgg(field string) map[string]any {
	return map[string]any{
		"terms": map[string]any{
			"field": field,
			"size":  facetAggSize,
		},
	}
}
