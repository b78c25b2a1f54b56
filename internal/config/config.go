package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains search-backend parameters shared by every service.
type Common struct {
	SearchAddr     string
	SearchIndex    string
	SearchUsername string
	SearchPassword string
}

// AI holds the Mistral connection and generation parameters.
type AI struct {
	MistralAPIKey string
	ChatModel     string
	Temperature   float64
	MaxTokens     int
	RetryBackoff  time.Duration
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	AI
	BindAddr        string
	RequestTimeout  time.Duration
	DefaultSample   int
	MaxSample       int
	CuratedTopics   []string
	EnrichBuckets   int
	EnrichDocuments int
}

// Enricher configures the standalone batch-enrichment runner.
type Enricher struct {
	Common
	AI
	PayloadPath string
	Job         string
	Timeout     time.Duration
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	ai, err := loadAI()
	if err != nil {
		return nil, err
	}

	c := &API{
		Common:          loadCommon(),
		AI:              *ai,
		BindAddr:        getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		RequestTimeout:  getDuration("API_REQUEST_TIMEOUT", "15m"),
		DefaultSample:   getInt("API_SAMPLE_SIZE", 10),
		MaxSample:       getInt("API_MAX_SAMPLE_SIZE", 100),
		CuratedTopics:   splitAndTrim(getEnv("SEARCH_CURATED_TOPICS", "rijnlandroute,windpark spui")),
		EnrichBuckets:   getInt("ENRICH_MAX_BUCKETS", 3),
		EnrichDocuments: getInt("ENRICH_MAX_DOCUMENTS", 3),
	}

	if c.DefaultSample <= 0 {
		return nil, fmt.Errorf("API_SAMPLE_SIZE must be positive")
	}
	if c.MaxSample <= 0 {
		return nil, fmt.Errorf("API_MAX_SAMPLE_SIZE must be positive")
	}
	if c.DefaultSample > c.MaxSample {
		return nil, fmt.Errorf("API_SAMPLE_SIZE cannot exceed API_MAX_SAMPLE_SIZE")
	}
	if c.EnrichBuckets <= 0 {
		return nil, fmt.Errorf("ENRICH_MAX_BUCKETS must be positive")
	}
	if c.EnrichDocuments <= 0 {
		return nil, fmt.Errorf("ENRICH_MAX_DOCUMENTS must be positive")
	}
	if c.RequestTimeout <= 0 {
		return nil, fmt.Errorf("API_REQUEST_TIMEOUT must be positive")
	}

	return c, nil
}

// LoadEnricher builds an Enricher config from environment variables.
func LoadEnricher() (*Enricher, error) {
	ai, err := loadAI()
	if err != nil {
		return nil, err
	}

	c := &Enricher{
		Common:      loadCommon(),
		AI:          *ai,
		PayloadPath: getEnv("ENRICH_PAYLOAD_FILE", ""),
		Job:         strings.ToLower(getEnv("ENRICH_JOB", "summaries")),
		Timeout:     getDuration("ENRICH_TIMEOUT", "2h"),
	}

	if c.PayloadPath == "" {
		return nil, fmt.Errorf("ENRICH_PAYLOAD_FILE must point to a timeline payload")
	}
	if c.Job != "summaries" && c.Job != "labels" {
		return nil, fmt.Errorf("ENRICH_JOB must be summaries or labels, got %q", c.Job)
	}
	if c.Timeout <= 0 {
		return nil, fmt.Errorf("ENRICH_TIMEOUT must be positive")
	}

	return c, nil
}

func loadCommon() Common {
	return Common{
		SearchAddr:     getEnv("SEARCH_ADDR", "http://elasticsearch:9200"),
		SearchIndex:    getEnv("SEARCH_INDEX", "chunks"),
		SearchUsername: getEnv("SEARCH_USERNAME", ""),
		SearchPassword: getEnv("SEARCH_PASSWORD", ""),
	}
}

func loadAI() (*AI, error) {
	c := &AI{
		MistralAPIKey: getEnv("MISTRAL_API_KEY", ""),
		ChatModel:     getEnv("MISTRAL_CHAT_MODEL", "ministral-3b-latest"),
		Temperature:   getFloat("AI_TEMPERATURE", 0.7),
		MaxTokens:     getInt("AI_MAX_TOKENS", 256),
		RetryBackoff:  getDuration("AI_RETRY_BACKOFF", "3s"),
	}

	if c.MistralAPIKey == "" {
		return nil, fmt.Errorf("MISTRAL_API_KEY must be set")
	}
	if c.Temperature < 0 {
		return nil, fmt.Errorf("AI_TEMPERATURE cannot be negative")
	}
	if c.MaxTokens <= 0 {
		return nil, fmt.Errorf("AI_MAX_TOKENS must be positive")
	}
	if c.RetryBackoff < 0 {
		return nil, fmt.Errorf("AI_RETRY_BACKOFF cannot be negative")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
