package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/chvpa/aura-engine/pkg/auth"
	"github.com/chvpa/aura-engine/pkg/config"
	"github.com/chvpa/aura-engine/pkg/database"
	"github.com/chvpa/aura-engine/pkg/handlers"
	"github.com/chvpa/aura-engine/pkg/llm"
	"github.com/chvpa/aura-engine/pkg/logging"
	"github.com/chvpa/aura-engine/pkg/middleware"
	"github.com/chvpa/aura-engine/pkg/repositories"
	"github.com/chvpa/aura-engine/pkg/services"
	"github.com/chvpa/aura-engine/pkg/vocabulary"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", cfg.Database.Host),
		zap.String("redis", cfg.Redis.Addr()),
		zap.String("ai_endpoint", cfg.AI.Endpoint),
		zap.String("ai_model", cfg.AI.Model))

	ctx := context.Background()

	// Run migrations before opening the pool
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	// Database
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Redis is optional: without it caches degrade to always-miss.
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient == nil {
		logger.Warn("Redis not configured, interpretation and match caches disabled")
	}

	// LLM client
	llmClient, err := llm.NewClient(&llm.Config{
		Endpoint: cfg.AI.Endpoint,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	// Interpretation vocabulary, optionally overridden from YAML
	vocab, err := vocabulary.Load(cfg.Search.VocabularyPath)
	if err != nil {
		logger.Fatal("Failed to load vocabulary", zap.Error(err))
	}

	// Repositories
	productRepo := repositories.NewProductRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	historyRepo := repositories.NewSearchHistoryRepository(db)
	searchCacheRepo := repositories.NewSearchCacheRepository(redisClient, logger)
	matchCacheRepo := repositories.NewMatchCacheRepository(redisClient, logger)

	// Services
	interpreterService := services.NewInterpreterService(llmClient, vocab, services.InterpreterConfig{
		Timeout:     cfg.AI.Timeout,
		MaxInFlight: cfg.AI.MaxInFlight,
	}, logger)
	catalogService := services.NewCatalogService(productRepo, logger)
	searchService := services.NewSearchService(interpreterService, catalogService, searchCacheRepo, historyRepo, services.SearchConfig{
		CacheTTL:     cfg.Search.CacheTTL,
		PopularLimit: cfg.Search.PopularLimit,
	}, logger)
	matchService := services.NewMatchService(profileRepo, productRepo, matchCacheRepo, cfg.Match.CacheTTL, logger)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg.Auth.JWTSecret, cfg.Auth.EnableVerification, logger)

	mux := http.NewServeMux()

	// Register handlers
	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	searchHandler := handlers.NewSearchHandler(searchService, logger)
	searchHandler.RegisterRoutes(mux)

	matchHandler := handlers.NewMatchHandler(matchService, logger)
	matchHandler.RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	logger.Info("Starting aura-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
