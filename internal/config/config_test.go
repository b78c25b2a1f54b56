package config_test

import (
	"testing"
	"time"

	"github.com/statenlab/dossierzoeker/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadAPIDefaults(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "test-key")
	t.Setenv("SEARCH_ADDR", "")
	t.Setenv("SEARCH_INDEX", "")
	t.Setenv("SEARCH_CURATED_TOPICS", "")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)

	require.Equal(t, "http://elasticsearch:9200", cfg.SearchAddr)
	require.Equal(t, "chunks", cfg.SearchIndex)
	require.Equal(t, "0.0.0.0:8080", cfg.BindAddr)
	require.Equal(t, "ministral-3b-latest", cfg.ChatModel)
	require.Equal(t, 256, cfg.MaxTokens)
	require.Equal(t, 3*time.Second, cfg.RetryBackoff)
	require.Equal(t, 3, cfg.EnrichBuckets)
	require.Equal(t, 3, cfg.EnrichDocuments)
	require.Equal(t, []string{"rijnlandroute", "windpark spui"}, cfg.CuratedTopics)
}

func TestLoadAPIOverrides(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "test-key")
	t.Setenv("SEARCH_ADDR", "http://localhost:9999")
	t.Setenv("SEARCH_INDEX", "custom")
	t.Setenv("SEARCH_USERNAME", "admin")
	t.Setenv("SEARCH_PASSWORD", "secret")
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("API_REQUEST_TIMEOUT", "5m")
	t.Setenv("MISTRAL_CHAT_MODEL", "mistral-small-latest")
	t.Setenv("AI_TEMPERATURE", "0.2")
	t.Setenv("AI_MAX_TOKENS", "512")
	t.Setenv("AI_RETRY_BACKOFF", "1s")
	t.Setenv("SEARCH_CURATED_TOPICS", "thema een, thema twee")
	t.Setenv("ENRICH_MAX_BUCKETS", "5")
	t.Setenv("ENRICH_MAX_DOCUMENTS", "2")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:9999", cfg.SearchAddr)
	require.Equal(t, "custom", cfg.SearchIndex)
	require.Equal(t, "admin", cfg.SearchUsername)
	require.Equal(t, "secret", cfg.SearchPassword)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, 5*time.Minute, cfg.RequestTimeout)
	require.Equal(t, "mistral-small-latest", cfg.ChatModel)
	require.InDelta(t, 0.2, cfg.Temperature, 0.001)
	require.Equal(t, 512, cfg.MaxTokens)
	require.Equal(t, time.Second, cfg.RetryBackoff)
	require.Equal(t, []string{"thema een", "thema twee"}, cfg.CuratedTopics)
	require.Equal(t, 5, cfg.EnrichBuckets)
	require.Equal(t, 2, cfg.EnrichDocuments)
}

func TestLoadAPIRequiresMistralKey(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")

	_, err := config.LoadAPI()
	require.Error(t, err)
	require.Contains(t, err.Error(), "MISTRAL_API_KEY")
}

func TestLoadEnricher(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "test-key")
	t.Setenv("ENRICH_PAYLOAD_FILE", "/tmp/timeline.json")
	t.Setenv("ENRICH_JOB", "labels")
	t.Setenv("ENRICH_TIMEOUT", "1h")

	cfg, err := config.LoadEnricher()
	require.NoError(t, err)

	require.Equal(t, "/tmp/timeline.json", cfg.PayloadPath)
	require.Equal(t, "labels", cfg.Job)
	require.Equal(t, time.Hour, cfg.Timeout)
}

func TestLoadEnricherRejectsUnknownJob(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "test-key")
	t.Setenv("ENRICH_PAYLOAD_FILE", "/tmp/timeline.json")
	t.Setenv("ENRICH_JOB", "reindex")

	_, err := config.LoadEnricher()
	require.Error(t, err)
	require.Contains(t, err.Error(), "ENRICH_JOB")
}

func TestLoadEnricherRequiresPayload(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "test-key")
	t.Setenv("ENRICH_PAYLOAD_FILE", "")

	_, err := config.LoadEnricher()
	require.Error(t, err)
	require.Contains(t, err.Error(), "ENRICH_PAYLOAD_FILE")
}
