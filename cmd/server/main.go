package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/NunoFAntunes/realtor-buddy/internal/config"
	"github.com/NunoFAntunes/realtor-buddy/internal/corpus"
	"github.com/NunoFAntunes/realtor-buddy/internal/handler"
	"github.com/NunoFAntunes/realtor-buddy/internal/logger"
	"github.com/NunoFAntunes/realtor-buddy/internal/repository"
	"github.com/NunoFAntunes/realtor-buddy/internal/schema"
	"github.com/NunoFAntunes/realtor-buddy/internal/service"
	"github.com/NunoFAntunes/realtor-buddy/internal/sqlguard"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = log.Sync() }()

	log.Info("realtor search starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	repo, err := repository.NewPostgresRepository(connectCtx, cfg, log)
	cancel()
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer repo.Close()
	log.Info("connected to PostgreSQL",
		zap.String("host", cfg.PostgreSQL.Host),
		zap.String("database", cfg.PostgreSQL.Database))

	catalog := schema.NewCatalog()
	mapper := schema.MustNewMapper(catalog)
	c, err := corpus.Load()
	if err != nil {
		return fmt.Errorf("load example corpus: %w", err)
	}

	gen, err := buildGenerator(cfg, mapper, log)
	if err != nil {
		return err
	}
	gate := service.NewAdmissionGate(gen, cfg.Generator.Slots, cfg.Generator.Timeout, cfg.Generator.RejectWhenBusy, log)

	deps := service.SearchDeps{
		Analyzer:  service.NewAnalyzer(mapper, service.WithRoomPolicy(service.ParseRoomPolicy(cfg.Analyzer.RoomPolicy))),
		Selector:  service.NewSelector(c.Examples),
		Prompts:   service.NewPromptBuilder(mapper, c.Pitfalls, cfg.Search.MaxPromptChars),
		Docs:      catalog,
		Generator: gate,
		Validator: sqlguard.NewValidator(sqlguard.RulesFromCatalog(catalog, cfg.Search.MaxRows)),
		Executor:  repo,
		Formatter: service.NewFormatter(mapper),
	}
	if client := repository.NewRedisClient(cfg.Redis); client != nil {
		defer client.Close()
		cache := repository.NewRedisCache(client, cfg.Redis.TTL)
		if err := cache.Ping(ctx); err != nil {
			// The cache is optional; searches still work without it.
			log.Warn("redis unreachable, continuing without SQL cache", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			log.Info("SQL cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
		}
		deps.Cache = cache
	}

	searchService := service.NewSearchService(deps, service.SearchOptions{
		DefaultLimit:   cfg.Search.DefaultLimit,
		ExamplesK:      cfg.Search.ExamplesK,
		RequestTimeout: cfg.Search.RequestTimeout,
	}, log)

	router := handler.NewRouter(cfg,
		handler.NewSearchHandler(searchService, c.Samples, cfg.Search.ExposeSQL, log),
		handler.NewHealthHandler(repo, gate, Version),
		log)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("generator", gate.Name()), zap.Int64("slots", gate.Slots()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// buildGenerator picks the SQL backend. "auto" uses the model when a key is
// configured and falls back to the rules when the model is unavailable.
func buildGenerator(cfg *config.Config, mapper *schema.Mapper, log *zap.Logger) (service.Generator, error) {
	rules := service.NewRuleGenerator(mapper, log)

	switch strings.ToLower(cfg.Generator.Backend) {
	case "rules":
		return rules, nil
	case "openai":
		if !cfg.OpenAI.Enabled() {
			return nil, errors.New("generator backend openai requires OPENAI_API_KEY")
		}
		return service.NewOpenAIGenerator(cfg.OpenAI, log), nil
	case "", "auto":
		if !cfg.OpenAI.Enabled() {
			log.Warn("OPENAI_API_KEY not set, using rule-based SQL generation")
			return rules, nil
		}
		log.Info("model-backed SQL generation",
			zap.String("api_base", cfg.OpenAI.APIBase),
			zap.String("model", cfg.OpenAI.ChatModel),
			zap.Bool("stream", cfg.OpenAI.Stream))
		return service.NewFallbackGenerator(service.NewOpenAIGenerator(cfg.OpenAI, log), rules, log), nil
	default:
		return nil, fmt.Errorf("unknown generator backend %q", cfg.Generator.Backend)
	}
}
