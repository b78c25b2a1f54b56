package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/statenlab/dossierzoeker/internal/ai"
	"github.com/statenlab/dossierzoeker/internal/config"
	"github.com/statenlab/dossierzoeker/internal/elasticsearch"
	"github.com/statenlab/dossierzoeker/internal/enrich"
	"github.com/statenlab/dossierzoeker/internal/logger"
)

// The enricher runs one batch-enrichment pass over a timeline payload file
// and exits. It is meant for re-enriching historic timelines without going
// through the HTTP API.
func main() {
	_ = godotenv.Load()

	log := logger.New("enricher")
	cfg, err := config.LoadEnricher()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	esClient := connectWithBackoff(ctx, log, cfg)
	if esClient == nil {
		log.Error("failed to connect to search backend after retries")
		os.Exit(1)
	}
	log.Info("connected to search backend")

	aiClient, err := ai.New(cfg.AI, log)
	if err != nil {
		log.Error("init ai clients", slog.Any("err", err))
		os.Exit(1)
	}

	payload, err := readPayload(cfg.PayloadPath)
	if err != nil {
		log.Error("read payload", slog.String("path", cfg.PayloadPath), slog.Any("err", err))
		os.Exit(1)
	}

	runCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	job := enrich.New(esClient, aiClient.Completer, log)

	var result enrich.Result
	switch cfg.Job {
	case "labels":
		result = job.Labels(runCtx, payload)
	default:
		result = job.Summaries(runCtx, payload)
	}

	log.Info("enrichment run completed",
		slog.Int("processed", len(result.ChunkIDsProcessed)),
		slog.Int("failed", len(result.ChunkIDsFailed)),
	)

	if len(result.ChunkIDsFailed) > 0 {
		os.Exit(2)
	}
}

// connectWithBackoff retries the search-backend connection until it answers
// a ping or the attempts run out.
func connectWithBackoff(ctx context.Context, log *slog.Logger, cfg *config.Enricher) *elasticsearch.Client {
	maxRetries := 10
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		esClient, err := elasticsearch.New(cfg.SearchAddr, cfg.SearchIndex, cfg.SearchUsername, cfg.SearchPassword, log)
		if err != nil {
			log.Warn("failed to create search client, retrying",
				slog.Any("err", err),
				slog.Int("attempt", i+1),
				slog.Int("max_retries", maxRetries),
			)
		} else {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			pingErr := esClient.Ping(pingCtx)
			cancel()
			if pingErr == nil {
				return esClient
			}
			log.Warn("search backend ping failed, retrying",
				slog.Any("err", pingErr),
				slog.Int("attempt", i+1),
				slog.Int("max_retries", maxRetries),
				slog.Duration("retry_in", retryDelay),
			)
		}

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			log.Info("shutdown signal received during startup")
			os.Exit(0)
		}
		retryDelay *= 2
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}
	}

	return nil
}

func readPayload(path string) (enrich.Payload, error) {
	var payload enrich.Payload

	data, err := os.ReadFile(path)
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
