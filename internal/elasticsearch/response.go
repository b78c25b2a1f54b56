package elasticsearch

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/statenlab/dossierzoeker/internal/models"
)

type facetAgg struct {
	Buckets []struct {
		Key      string `json:"key"`
		DocCount int64  `json:"doc_count"`
	} `json:"buckets"`
}

type hybridResponse struct {
	Aggregations struct {
		PerDay struct {
			Buckets []struct {
				KeyAsString string `json:"key_as_string"`
				PerDocument struct {
					Buckets []struct {
						Key       string `json:"key"`
						BestChunk struct {
							Hits struct {
								Hits []struct {
									Source models.DocumentChunk `json:"_source"`
								} `json:"hits"`
							} `json:"hits"`
						} `json:"best_chunk"`
					} `json:"buckets"`
				} `json:"per_document"`
			} `json:"buckets"`
		} `json:"per_day"`
		TypePrimary   facetAgg `json:"type_primary"`
		TypeSecondary facetAgg `json:"type_secondary"`
		Publisher     facetAgg `json:"publisher"`
	} `json:"aggregations"`
}

// parseHybridResponse flattens the nested date -> document -> top-hit
// aggregation into timeline buckets (newest first, as returned) and the flat
// terms aggregations into facet lists (bucket order, descending doc count).
func parseHybridResponse(r io.Reader) ([]models.TimelineBucket, models.Facets, error) {
	var parsed hybridResponse
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, models.Facets{}, fmt.Errorf("decode hybrid response: %w", err)
	}

	buckets := make([]models.TimelineBucket, 0, len(parsed.Aggregations.PerDay.Buckets))
	for _, day := range parsed.Aggregations.PerDay.Buckets {
		bucket := models.TimelineBucket{
			Date:      day.KeyAsString,
			Documents: make([]models.DocumentChunk, 0, len(day.PerDocument.Buckets)),
		}
		for _, doc := range day.PerDocument.Buckets {
			if len(doc.BestChunk.Hits.Hits) == 0 {
				continue
			}
			bucket.Documents = append(bucket.Documents, doc.BestChunk.Hits.Hits[0].Source)
		}
		buckets = append(buckets, bucket)
	}

	facets := models.Facets{
		TypePrimary:   make([]models.PrimaryTypeCount, 0, len(parsed.Aggregations.TypePrimary.Buckets)),
		TypeSecondary: make([]models.SecondaryTypeCount, 0, len(parsed.Aggregations.TypeSecondary.Buckets)),
		Publishers:    make([]models.PublisherCount, 0, len(parsed.Aggregations.Publisher.Buckets)),
	}
	for _, b := range parsed.Aggregations.TypePrimary.Buckets {
		facets.TypePrimary = append(facets.TypePrimary, models.PrimaryTypeCount{
			TypePrimary:  b.Key,
			AmountOfDocs: b.DocCount,
		})
	}
	for _, b := range parsed.Aggregations.TypeSecondary.Buckets {
		facets.TypeSecondary = append(facets.TypeSecondary, models.SecondaryTypeCount{
			TypeSecondary: b.Key,
			AmountOfDocs:  b.DocCount,
		})
	}
	for _, b := range parsed.Aggregations.Publisher.Buckets {
		facets.Publishers = append(facets.Publishers, models.PublisherCount{
			Publisher:    b.Key,
			AmountOfDocs: b.DocCount,
		})
	}

	return buckets, facets, nil
}

// parseGetByIDResponse decodes a single-chunk lookup. Zero hits is not an
// error: found reports whether the record exists.
func parseGetByIDResponse(r io.Reader) (models.DocumentChunk, bool, error) {
	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.DocumentChunk `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return models.DocumentChunk{}, false, fmt.Errorf("decode get response: %w", err)
	}

	if len(parsed.Hits.Hits) == 0 {
		return models.DocumentChunk{}, false, nil
	}
	return parsed.Hits.Hits[0].Source, true, nil
}
