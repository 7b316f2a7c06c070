package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/matkb-cloud/matkb/internal/chunker"
	"github.com/matkb-cloud/matkb/internal/config"
	dbRedis "github.com/matkb-cloud/matkb/internal/db/redis"
	"github.com/matkb-cloud/matkb/internal/domain"
	"github.com/matkb-cloud/matkb/internal/fulltext"
	"github.com/matkb-cloud/matkb/internal/index"
	logpkg "github.com/matkb-cloud/matkb/internal/logger"
	"github.com/matkb-cloud/matkb/internal/metrics"
	chunkrepo "github.com/matkb-cloud/matkb/internal/repository/chunk"
	"github.com/matkb-cloud/matkb/internal/repository/embcache"
	"github.com/matkb-cloud/matkb/internal/repository/metadata"
	chiTransport "github.com/matkb-cloud/matkb/internal/transport/chi"
	openaiTransport "github.com/matkb-cloud/matkb/internal/transport/openai"
	healthuc "github.com/matkb-cloud/matkb/internal/usecase/health"
	ingestuc "github.com/matkb-cloud/matkb/internal/usecase/ingest"
	planuc "github.com/matkb-cloud/matkb/internal/usecase/plan"
	queryuc "github.com/matkb-cloud/matkb/internal/usecase/query"
	relqueryuc "github.com/matkb-cloud/matkb/internal/usecase/relquery"
	retrieveuc "github.com/matkb-cloud/matkb/internal/usecase/retrieve"
	summarizeuc "github.com/matkb-cloud/matkb/internal/usecase/summarize"
	"github.com/matkb-cloud/matkb/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting matkb API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("metadata_path", cfg.Metadata.Path),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create chunk store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Chunk store not ready", zap.Error(err))
	}
	logger.Info("Connected to chunk store")

	metaStore, err := metadata.NewStore(cfg.Metadata.Path, metadata.Config{
		DocIDField:     cfg.Metadata.DocIDField,
		MetadataTable:  cfg.Metadata.MetadataTable,
		FulltextTable:  cfg.Metadata.FulltextTable,
		FulltextColumn: cfg.Metadata.FulltextColumn,
	})
	if err != nil {
		logger.Fatal("Failed to open metadata store", zap.Error(err))
	}
	defer metaStore.Close()

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Embedder chain — composition root. Passage embeds are raw; the query
	// path adds the retrieval instruction outermost so cache keys include it.
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	cached := embcache.New(baseEmbedder, store, cfg.Database.KeyPrefix, metrics.EmbeddingCacheTotal, logger)
	var queryEmbedder domain.Embedder = cached
	if cfg.Embedding.QueryInstruction != "" {
		queryEmbedder = domain.NewInstructionEmbedder(cached, cfg.Embedding.QueryInstruction)
	}
	logger.Info("Embedders created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		Temperature: cfg.Generation.Temperature,
		Timeout:     time.Duration(cfg.Generation.TimeoutSec) * time.Second,
		Logger:      logger,
	})

	// Vector index: load persisted artifacts when both exist, else start empty
	flat := index.NewFlat(cfg.Embedding.Dimensions)
	if fileExists(cfg.Index.VectorPath) && fileExists(cfg.Index.IDListPath) {
		if err := flat.Load(cfg.Index.VectorPath, cfg.Index.IDListPath); err != nil {
			logger.Fatal("Failed to load index artifacts", zap.Error(err))
		}
		logger.Info("Loaded vector index", zap.Int("vectors", flat.Count()))
	} else {
		logger.Info("Starting with an empty vector index")
	}

	chunkRepo := chunkrepo.NewRepository(store, cfg.Database.KeyPrefix)
	chunks := chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.OverlapSize, cfg.Chunking.MinChunkSize)

	// Use case services
	ingestSvc := ingestuc.New(chunks, baseEmbedder, chunkRepo, flat,
		cfg.Index.VectorPath, cfg.Index.IDListPath)
	retrieveSvc := retrieveuc.New(queryEmbedder, flat, chunkRepo)
	planSvc := planuc.New(generator, cfg.Metadata.Tables, cfg.Metadata.DefaultTable)
	relquerySvc := relqueryuc.New(metaStore, cfg.Metadata)
	summarizeSvc := summarizeuc.New(generator, fulltext.NewTableProvider(metaStore), summarizeuc.Config{
		MaxWorkers:      cfg.Summary.MaxWorkers,
		MaxRetries:      cfg.Summary.MaxRetries,
		MaxFulltextDocs: cfg.Summary.MaxFulltextDocs,
	})
	querySvc := queryuc.New(retrieveSvc, planSvc, relquerySvc, summarizeSvc, metaStore,
		cfg.Summary.DefaultTopK, cfg.Summary.MaxTopK)
	healthSvc := healthuc.New(store, baseEmbedder)

	server := chiTransport.NewServer(querySvc, ingestSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
