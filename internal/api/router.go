package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/ethoslabs/ethos/internal/api/handlers"
	mw "github.com/ethoslabs/ethos/internal/api/middleware"
	"github.com/ethoslabs/ethos/internal/config"
	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/embedding"
	"github.com/ethoslabs/ethos/internal/instinct"
	"github.com/ethoslabs/ethos/internal/llm"
	"github.com/ethoslabs/ethos/internal/service"
	"github.com/ethoslabs/ethos/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router plus request counters for the metrics endpoint.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	tenantStore := store.NewTenantStore(db)
	agentStore := store.NewAgentStore(db)
	evalStore := store.NewEvaluationStore(db)
	patternStore := store.NewPatternStore(db)
	authStore := store.NewAuthenticityStore(db)

	// External clients via provider factory
	var embeddingClient domain.EmbeddingClient
	var llmClient domain.LLMClient

	llmProvider := config.LLMProvider()
	embeddingProvider := config.EmbeddingProvider()

	var err error
	llmClient, err = llm.NewClient(llmProvider, config.LLMAPIKey())
	if err != nil {
		logger.Warn("LLM client initialization failed", zap.String("provider", llmProvider), zap.Error(err))
	} else {
		logger.Info("LLM client initialized", zap.String("provider", llmProvider))
	}

	embeddingClient, err = embedding.NewClient(embeddingProvider, config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("Embedding client initialization failed", zap.String("provider", embeddingProvider), zap.Error(err))
	} else if embeddingClient != nil {
		logger.Info("Embedding client initialized", zap.String("provider", embeddingProvider))
	}

	// Services
	scanner := instinct.NewScanner(instinct.Thresholds{
		Focused: config.InstinctFocusedThreshold(),
		Deep:    config.InstinctDeepThreshold(),
	})
	engine := service.NewDeliberationEngine(llmClient, service.DeliberationConfig{
		StandardModel: config.StandardModel(),
		DeepModel:     config.DeepModel(),
	}, logger)
	evalSvc := service.NewEvaluationService(engine, scanner, evalStore, agentStore, embeddingClient, config.BatchConcurrency(), logger)
	patternSvc := service.NewPatternService(evalStore, patternStore, logger)
	authenticitySvc := service.NewAuthenticityService(authStore, logger)
	reflectionSvc := service.NewReflectionService(evalStore, evalSvc, logger)

	// Handlers
	tenantHandler := handlers.NewTenantHandler(tenantStore)
	evalHandler := handlers.NewEvaluationHandler(evalSvc, evalStore, embeddingClient)
	agentHandler := handlers.NewAgentHandler(agentStore, reflectionSvc, patternSvc, authenticitySvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Tenant creation (no auth, bootstrap endpoint)
	r.Post("/v1/tenants", tenantHandler.Create)

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(tenantStore))
		r.Use(mw.CallerLLMKey)

		r.Post("/evaluate", evalHandler.Evaluate)
		r.Post("/evaluate/batch", evalHandler.EvaluateBatch)

		r.Route("/evaluations", func(r chi.Router) {
			r.Get("/", evalHandler.Search)
			r.Post("/similar", evalHandler.FindSimilar)
			r.Get("/{id}", evalHandler.GetByID)
		})

		r.Route("/agents/{agentID}", func(r chi.Router) {
			r.Get("/", agentHandler.Get)
			r.Get("/aggregate", agentHandler.GetAggregate)
			r.Get("/reflect", agentHandler.Reflect)
			r.Get("/patterns", agentHandler.Patterns)
			r.Post("/authenticity", agentHandler.Authenticity)
		})
	})

	return app
}

// NewRouter returns just the chi.Mux for callers that manage no lifecycle.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.TenantStore     = (*store.TenantStore)(nil)
	_ domain.AgentStore      = (*store.AgentStore)(nil)
	_ domain.EvaluationStore = (*store.EvaluationStore)(nil)
	_ domain.PatternStore      = (*store.PatternStore)(nil)
	_ domain.AuthenticityStore = (*store.AuthenticityStore)(nil)
	_ domain.EmbeddingClient = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient = (*embedding.MockClient)(nil)
	_ domain.LLMClient       = (*llm.AnthropicClient)(nil)
	_ domain.LLMClient       = (*llm.MockClient)(nil)
)
