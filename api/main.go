package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/statenlab/dossierzoeker/internal/ai"
	"github.com/statenlab/dossierzoeker/internal/chat"
	"github.com/statenlab/dossierzoeker/internal/config"
	"github.com/statenlab/dossierzoeker/internal/elasticsearch"
	"github.com/statenlab/dossierzoeker/internal/enrich"
	"github.com/statenlab/dossierzoeker/internal/logger"
	"github.com/statenlab/dossierzoeker/internal/search"
)

func main() {
	_ = godotenv.Load()

	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.SearchAddr, cfg.SearchIndex, cfg.SearchUsername, cfg.SearchPassword, log)
	if err != nil {
		log.Error("init search backend", slog.Any("err", err))
		os.Exit(1)
	}

	aiClient, err := ai.New(cfg.AI, log)
	if err != nil {
		log.Error("init ai clients", slog.Any("err", err))
		os.Exit(1)
	}

	srv := &server{
		log: log,
		cfg: cfg,
		es:  esClient,
		ai:  aiClient,
		search: search.New(aiClient.Embedder, esClient, aiClient.Completer, search.Config{
			CuratedTopics: cfg.CuratedTopics,
			MaxBuckets:    cfg.EnrichBuckets,
			MaxDocuments:  cfg.EnrichDocuments,
		}, log),
		chat:   chat.New(aiClient.Embedder, esClient, aiClient.Completer, log),
		enrich: enrich.New(esClient, aiClient.Completer, log),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	r.Get("/search", srv.handleSample)
	r.Post("/search", srv.handleSearch)
	r.Post("/timeline/chat", srv.handleChat)
	r.Post("/completion", srv.handleCompletion)
	r.Post("/generate_document_summaries", srv.handleSummaries)
	r.Post("/generate_document_labels", srv.handleLabels)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

type server struct {
	log    *slog.Logger
	cfg    *config.API
	es     *elasticsearch.Client
	ai     *ai.Client
	search *search.Service
	chat   *chat.Service
	enrich *enrich.Job
}

type errorResponse struct {
	Error string `json:"error"`
}

type outputResponse struct {
	Output string `json:"output"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.es.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleSample(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	size := clampInt(r.URL.Query().Get("size"), s.cfg.DefaultSample, s.cfg.MaxSample)

	chunks, err := s.search.Sample(ctx, size)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chunks)
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	var req search.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := s.search.Search(ctx, req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	var req struct {
		Question    string   `json:"question"`
		DocumentIDs []string `json:"document_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	answer, err := s.chat.Ask(ctx, req.Question, req.DocumentIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outputResponse{Output: answer})
}

func (s *server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	var req struct {
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	output, err := s.ai.Completer.Complete(ctx, req.Input)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outputResponse{Output: output})
}

func (s *server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	s.handleEnrichment(w, r, s.enrich.Summaries)
}

func (s *server) handleLabels(w http.ResponseWriter, r *http.Request) {
	s.handleEnrichment(w, r, s.enrich.Labels)
}

func (s *server) handleEnrichment(w http.ResponseWriter, r *http.Request, job func(context.Context, enrich.Payload) enrich.Result) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	var payload enrich.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid timeline payload"})
		return
	}

	result := job(ctx, payload)

	writeJSON(w, http.StatusOK, map[string]any{
		"results": []enrich.Result{result},
	})
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ai.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, ai.ErrUpstream):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
