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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/claimsdesk/claimsdesk/internal/config"
	dbRedis "github.com/claimsdesk/claimsdesk/internal/db/redis"
	"github.com/claimsdesk/claimsdesk/internal/domain"
	logpkg "github.com/claimsdesk/claimsdesk/internal/logger"
	"github.com/claimsdesk/claimsdesk/internal/metrics"
	conversationrepo "github.com/claimsdesk/claimsdesk/internal/repository/conversation"
	faqrepo "github.com/claimsdesk/claimsdesk/internal/repository/faq"
	"github.com/claimsdesk/claimsdesk/internal/transport/chihttp"
	openaiTransport "github.com/claimsdesk/claimsdesk/internal/transport/openai"
	answeruc "github.com/claimsdesk/claimsdesk/internal/usecase/answer"
	assistantuc "github.com/claimsdesk/claimsdesk/internal/usecase/assistant"
	feedbackuc "github.com/claimsdesk/claimsdesk/internal/usecase/feedback"
	healthuc "github.com/claimsdesk/claimsdesk/internal/usecase/health"
	judgeuc "github.com/claimsdesk/claimsdesk/internal/usecase/judge"
	"github.com/claimsdesk/claimsdesk/internal/usecase/pricing"
	retrievaluc "github.com/claimsdesk/claimsdesk/internal/usecase/retrieval"
	"github.com/claimsdesk/claimsdesk/internal/version"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting claimsdesk API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("search_addrs", cfg.Search.Addrs),
	)

	// FAQ search index
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Search.Addrs,
		Password: cfg.Search.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create search store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Search.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Search index not ready", zap.Error(err))
	}
	logger.Info("Connected to search index")

	// Conversation store
	pool, err := conversationrepo.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect conversation store", zap.Error(err))
	}
	defer pool.Close()

	convRepo := conversationrepo.New(pool)
	if err := convRepo.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure conversation schema", zap.Error(err))
	}
	logger.Info("Connected to conversation store")

	// Register metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Embedding + chat backends
	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	chatBackends := make(map[string]openaiTransport.BackendConfig, len(cfg.LLM.Backends))
	for name, bc := range cfg.LLM.Backends {
		chatBackends[name] = openaiTransport.BackendConfig{BaseURL: bc.BaseURL, APIKey: bc.APIKey}
	}
	chatClient := openaiTransport.NewChatClient(chatBackends, logger)
	logger.Info("LLM backends configured",
		zap.Int("backends", len(chatBackends)),
		zap.String("judge_model", cfg.Judge.Model),
	)

	judgeModel, err := domain.ParseModelRef(cfg.Judge.Model)
	if err != nil {
		logger.Fatal("Invalid judge model", zap.Error(err))
	}

	// Repositories and use case services
	faqRepo := faqrepo.New(store, cfg.Search.IndexName, cfg.Search.KeyPrefix)

	retrieverSvc := retrievaluc.New(faqRepo, embedder, cfg.Retrieval.TopK, cfg.Retrieval.NumCandidates)
	answerSvc := answeruc.New(chatClient)
	judgeSvc := judgeuc.New(chatClient, judgeModel)
	assistantSvc := assistantuc.New(retrieverSvc, answerSvc, judgeSvc, pricing.DefaultTable(), convRepo)
	feedbackSvc := feedbackuc.New(convRepo)
	healthSvc := healthuc.New(store, pool, embedder, chatClient)

	server := chihttp.NewServer(assistantSvc, feedbackSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

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
