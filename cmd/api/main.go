package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/freshfarm/vendorgpt-backend/internal/apperr"
	"github.com/freshfarm/vendorgpt-backend/internal/config"
	"github.com/freshfarm/vendorgpt-backend/internal/docstore"
	"github.com/freshfarm/vendorgpt-backend/internal/logger"
	"github.com/freshfarm/vendorgpt-backend/internal/metrics"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/auth"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/bid"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/catalog"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/chat"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/discovery"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/geo"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/intent"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/llm"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/matching"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/order"
	"github.com/freshfarm/vendorgpt-backend/internal/modules/user"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics ─────────────────────────────────────────────
	appMetrics := metrics.Noop()
	if cfg.MetricsEnabled {
		m, provider, err := metrics.Init(ctx, cfg)
		if err != nil {
			zlog.Fatal("Failed to initialize metrics", zap.Error(err))
		}
		appMetrics = m
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				zlog.Warn("Error shutting down meter provider", zap.Error(err))
			}
		}()
	}

	// ── Storage ─────────────────────────────────────────────
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		zlog.Fatal("Failed to open document store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()
	zlog.Info("Document store ready", zap.String("driver", cfg.StoreDriver))

	rdb := openRedis(ctx, cfg, zlog)
	if rdb != nil {
		defer rdb.Close()
	}

	// ── Text generation ─────────────────────────────────────
	var generator llm.TextGenerator
	if cfg.GoogleAIAPIKey == "" {
		zlog.Warn("GOOGLE_AI_API_KEY not set; chat replies will fall back to defaults")
		generator = llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
			return "", apperr.External("text generation is not configured", nil)
		})
	} else {
		gemini, err := llm.NewGeminiGenerator(ctx, cfg.GoogleAIAPIKey, cfg.LLMModel)
		if err != nil {
			zlog.Fatal("Failed to create text generator", zap.Error(err))
		}
		generator = gemini
	}
	extractGen := llm.NewInstrumented(generator, "extract", cfg.LLMTimeout, appMetrics, zlog)
	converseGen := llm.NewInstrumented(generator, "converse", cfg.LLMTimeout, appMetrics, zlog)

	// ── Router ──────────────────────────────────────────────
	userService := user.NewService(user.NewDocumentRepository(store))
	authService := auth.NewService(userService, cfg.JWTSecret, cfg.TokenTTL)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logger.RequestLogger(zlog))
	router.Use(middleware.Recoverer)
	router.Use(auth.Middleware(authService))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// ── Identity ────────────────────────────────────────────
	user.NewHandler(userService).RegisterRoutes(router)
	auth.NewHandler(authService).RegisterRoutes(router)
	geo.NewHandler(geo.NewPincodeClient(cfg.PincodeAPIURL)).RegisterRoutes(router)

	// ── Catalog & Orders ────────────────────────────────────
	var productCache catalog.Cache = catalog.NopCache{}
	if rdb != nil {
		productCache = catalog.NewRedisCache(rdb, zlog)
	}
	catalogService := catalog.NewService(catalog.NewDocumentRepository(store), userService, productCache, appMetrics, zlog)
	catalog.NewHandler(catalogService).RegisterRoutes(router)

	orderService := order.NewService(store, catalogService, appMetrics, zlog)
	order.NewHandler(orderService).RegisterRoutes(router)

	// ── Bids & Chat ─────────────────────────────────────────
	bidService := bid.NewService(store, appMetrics, zlog)
	bid.NewHandler(bidService).RegisterRoutes(router)

	orchestrator := chat.NewOrchestrator(
		intent.NewExtractor(extractGen, appMetrics, zlog),
		matching.NewMatcher(catalogService),
		bidService,
		converseGen,
		appMetrics,
		zlog,
	)
	chat.NewHandler(orchestrator, chat.NewRateLimiter(cfg.ChatRateLimitPerMin)).RegisterRoutes(router)

	// ── Discovery ───────────────────────────────────────────
	var publisher discovery.Publisher = discovery.NewLogPublisher(zlog)
	if rdb != nil {
		publisher = discovery.NewRedisPublisher(rdb, discovery.DefaultChannel)
	}
	watcher := discovery.NewWatcher(
		bid.NewDocumentRepository(store),
		order.NewDocumentRepository(store),
		publisher,
		cfg.PollInterval,
		appMetrics,
		zlog,
	)
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		watcher.Run(ctx)
	}()

	// ── Start Server ────────────────────────────────────────
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.LLMTimeout + 15*time.Second, // a chat turn may make two generation calls
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("VendorGPT API server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	<-watcherDone
	zlog.Info("Server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (docstore.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		s, err := docstore.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.Close(closeCtx)
		}, nil
	case config.StorePostgres:
		s, err := docstore.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return docstore.NewMemoryStore(), func() {}, nil
	}
}

// openRedis returns nil when redis is not configured or unreachable; the
// product cache and change feed are optional.
func openRedis(ctx context.Context, cfg *config.Config, zlog *zap.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zlog.Warn("Invalid REDIS_URL, continuing without redis", zap.Error(err))
		return nil
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		zlog.Warn("Redis unreachable, continuing without redis", zap.Error(err))
		client.Close()
		return nil
	}
	return client
}
