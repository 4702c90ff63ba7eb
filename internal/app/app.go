package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"docsense/features/ask"
	"docsense/features/job"
	"docsense/features/session"
	"docsense/features/source"
	"docsense/features/stats"
	"docsense/internal/adapter/gemini"
	"docsense/internal/answer"
	"docsense/internal/chunks"
	"docsense/internal/config"
	"docsense/internal/extract"
	"docsense/internal/middleware"
	"docsense/internal/settings"
	"docsense/internal/worker"
)

// Database is satisfied by *sql.DB; the indirection keeps New mockable
// with sqlmock.
type Database interface {
	PingContext(ctx context.Context) error
}

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler  http.Handler
	Ingestor *worker.Ingestor
	port     int
}

func New(cfg *config.Config, db Database, taskPub TaskPublisher) (*App, error) {
	sqlDB, ok := db.(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("db must be *sql.DB")
	}

	// Feature: Settings
	settingsRepo := settings.NewPostgresRepo(sqlDB)
	settingsService := settings.NewService(settingsRepo)
	seedSettings(cfg, settingsService)
	settingsHandler := settings.NewHandler(settingsService)

	// Adapters: Dynamic Gemini clients, keyed off runtime settings.
	embedder := gemini.NewDynamicEmbedder(settingsService)
	generator := gemini.NewDynamicGenerator(settingsService, cfg.GenMaxTokens)

	// Chunk storage
	chunkRepo := chunks.NewPostgresRepo(sqlDB)

	// Feature: Session
	sessionRepo := session.NewPostgresRepo(sqlDB)
	sessionService := session.NewService(sessionRepo)
	sessionHandler := session.NewHandler(sessionService)

	// Feature: Source
	sourceRepo := source.NewPostgresRepo(sqlDB)
	sourceService := source.NewService(sourceRepo, taskPub, chunkRepo)
	sourceHandler := source.NewHandler(sourceService, cfg.UploadDir, cfg.MaxUploadSizeMB)

	// Feature: Job
	jobRepo := job.NewPostgresRepo(sqlDB)
	jobService := job.NewService(jobRepo, taskPub)
	jobHandler := job.NewHandler(jobService)

	// Feature: Stats
	statsHandler := stats.NewHandler(sessionRepo, sourceRepo, jobRepo, chunkRepo)

	// Feature: Ask
	askService := ask.NewService(
		chunkRepo,
		embedder,
		answer.NewSynthesizer(generator),
		sessionService,
		settingsService,
		ask.Defaults{
			TopK:            cfg.SearchTopK,
			MinTerms:        cfg.AttributionMinTerms,
			MaxChars:        cfg.AnswerMaxChars,
			EmbedTimeout:    time.Duration(cfg.EmbedTimeoutSeconds) * time.Second,
			GenerateTimeout: time.Duration(cfg.GenerateTimeoutSeconds) * time.Second,
		},
	)
	askHandler := ask.NewHandler(askService)

	// Extractors
	extractors := extract.NewRegistry()
	extractors.Register(source.TypeFile, extract.NewFileExtractor())
	extractors.Register(source.TypeLink, extract.NewLinkExtractor(30*time.Second))

	// Ingestion worker
	ingestor := worker.NewIngestor(extractors, embedder, chunkRepo, sourceRepo, jobRepo, worker.IngestorConfig{
		ChunkSize:    cfg.ChunkSize,
		Overlap:      cfg.ChunkOverlap,
		EmbeddingDim: cfg.EmbeddingDim,
		EmbedTimeout: time.Duration(cfg.EmbedTimeoutSeconds) * time.Second,
	})

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /sessions", middleware.CorrelationID(enableCORS(sessionHandler.Create)))
	mux.Handle("GET /sessions", middleware.CorrelationID(enableCORS(sessionHandler.List)))
	mux.Handle("GET /sessions/{id}", middleware.CorrelationID(enableCORS(sessionHandler.Get)))
	mux.Handle("DELETE /sessions/{id}", middleware.CorrelationID(enableCORS(sessionHandler.Delete)))
	mux.Handle("GET /sessions/{id}/history", middleware.CorrelationID(enableCORS(sessionHandler.History)))

	mux.Handle("POST /sessions/{id}/sources", middleware.CorrelationID(enableCORS(sourceHandler.Create)))
	mux.Handle("POST /sessions/{id}/sources/upload", middleware.CorrelationID(enableCORS(sourceHandler.Upload)))
	mux.Handle("GET /sessions/{id}/sources", middleware.CorrelationID(enableCORS(sourceHandler.List)))
	mux.Handle("DELETE /sources/{id}", middleware.CorrelationID(enableCORS(sourceHandler.Delete)))
	mux.Handle("POST /sources/{id}/resync", middleware.CorrelationID(enableCORS(sourceHandler.ReSync)))

	mux.Handle("POST /sessions/{id}/ask", middleware.CorrelationID(enableCORS(askHandler.Ask)))

	mux.Handle("GET /settings", middleware.CorrelationID(enableCORS(settingsHandler.GetSettings)))
	mux.Handle("PUT /settings", middleware.CorrelationID(enableCORS(settingsHandler.UpdateSettings)))

	mux.Handle("GET /jobs/failed", middleware.CorrelationID(enableCORS(jobHandler.List)))
	mux.Handle("POST /jobs/{id}/retry", middleware.CorrelationID(enableCORS(jobHandler.Retry)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})

	return &App{
		Handler:  mux,
		Ingestor: ingestor,
		port:     cfg.ServerPort,
	}, nil
}

// seedSettings copies the env-provided API key into the settings row
// when none has been configured through the API yet.
func seedSettings(cfg *config.Config, svc *settings.Service) {
	if cfg.GeminiAPIKey == "" {
		return
	}

	ctx := context.Background()
	set, err := svc.Get(ctx)
	if err != nil {
		slog.Warn("failed to fetch settings for seeding", "error", err)
		return
	}
	if set.GeminiAPIKey != "" {
		return
	}

	set.GeminiAPIKey = cfg.GeminiAPIKey
	if err := svc.Update(ctx, set); err != nil {
		slog.Warn("failed to seed gemini api key", "error", err)
	} else {
		slog.Info("seeded gemini api key from environment")
	}
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.port),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
