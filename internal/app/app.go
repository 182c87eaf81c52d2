// Package app wires the application together and manages its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lewisedginton/persona_chatbot/internal/chat"
	"github.com/lewisedginton/persona_chatbot/internal/config"
	"github.com/lewisedginton/persona_chatbot/internal/httpapi"
	"github.com/lewisedginton/persona_chatbot/internal/llm"
	llmanthropic "github.com/lewisedginton/persona_chatbot/internal/llm/anthropic"
	llmopenai "github.com/lewisedginton/persona_chatbot/internal/llm/openai"
	"github.com/lewisedginton/persona_chatbot/internal/memoryctx"
	"github.com/lewisedginton/persona_chatbot/internal/memtag"
	"github.com/lewisedginton/persona_chatbot/internal/persistence"
	"github.com/lewisedginton/persona_chatbot/internal/roles"
	"github.com/lewisedginton/persona_chatbot/internal/supermemory"
	"github.com/lewisedginton/persona_chatbot/pkg/logger"
	"github.com/lewisedginton/persona_chatbot/pkg/metrics"
	"github.com/lewisedginton/persona_chatbot/pkg/taskqueue"
	"github.com/lewisedginton/persona_chatbot/pkg/utils"
)

// App holds every long-lived component of the service.
type App struct {
	cfg     *config.AppConfig
	log     logger.Logger
	pool    *pgxpool.Pool
	queue   *taskqueue.Queue
	metrics *metrics.Metrics
	server  *http.Server

	Roles *roles.Service
}

// New builds the full component graph. Components are constructed in
// dependency order; any failure aborts startup.
func New(ctx context.Context, cfg *config.AppConfig, log logger.Logger) (*App, error) {
	pool, err := persistence.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database pool: %w", err)
	}

	migrator := persistence.NewMigrationManager(pool, log)
	if err := migrator.RunMigrations(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	users := persistence.NewUserRepository(pool, log)
	roleRepo := persistence.NewRoleRepository(pool, log)
	conversations := persistence.NewConversationRepository(pool, log)
	messages := persistence.NewMessageRepository(pool, log)

	m := metrics.NewMetrics(cfg.Monitoring.MetricsEnabled, cfg.Monitoring.MetricsEnabled, log)

	queue := taskqueue.New(taskqueue.Config{
		Workers:     cfg.Background.Workers,
		QueueSize:   cfg.Background.QueueSize,
		TaskTimeout: cfg.Background.TaskTimeout,
		Logger:      log,
		Metrics:     &m,
	})

	memoryClient := supermemory.NewClient(memoryFactory(cfg, log), log)
	tags := memtag.NewDeriver(cfg.Supermemory.Namespace, users)
	writer := memoryctx.NewWriter(memoryClient, tags, log)
	reader := memoryctx.NewReader(memoryClient, tags, log)

	completer, err := newCompleter(cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("completion provider: %w", err)
	}

	roleService, err := roles.NewService(roleRepo, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("role service: %w", err)
	}

	if err := seedRoles(ctx, cfg, roleService, log); err != nil {
		pool.Close()
		return nil, err
	}

	if err := seedUsers(ctx, cfg.AuthTokens, users, log); err != nil {
		pool.Close()
		return nil, err
	}

	chatService := chat.NewService(
		conversations, messages, roleService,
		reader, writer, queue,
		completer, cfg.ModelName(), log)

	turns := newTurnMetrics(chatService)
	m.AddCustomMetric(turns.collector())

	handlers := httpapi.NewHandlers(
		turns, conversations, messages, roleService, reader, writer, log)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Handlers:       handlers,
		Auth:           httpapi.NewStaticTokenAuthenticator(cfg.AuthTokens),
		Logger:         log,
		Metrics:        &m,
		AllowedOrigins: cfg.Security.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           http.MaxBytesHandler(router, cfg.Security.MaxRequestSize),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	return &App{
		cfg:     cfg,
		log:     log,
		pool:    pool,
		queue:   queue,
		metrics: &m,
		server:  server,
		Roles:   roleService,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully: stop accepting requests, drain the background queue, close
// the pool. The API and metrics listeners run on separate ports; either
// failing brings the process down.
func (a *App) Run(ctx context.Context) error {
	apiErr := make(chan error, 1)
	metricsErr := make(chan error, 1)

	go func() {
		defer close(apiErr)
		a.log.Info("HTTP server listening", logger.IntField("port", a.cfg.Port))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			apiErr <- err
		}
	}()

	var metricsServer *http.Server
	if a.cfg.Monitoring.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", a.cfg.Monitoring.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			defer close(metricsErr)
			a.log.Info("Metrics server listening", logger.IntField("port", a.cfg.Monitoring.MetricsPort))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				metricsErr <- err
			}
		}()
	} else {
		close(metricsErr)
	}

	serverErrs := utils.MergeErrorChans(apiErr, metricsErr)

	var runErr error
	select {
	case err := <-serverErrs:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	a.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("server shutdown failed", logger.ErrorField(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("metrics server shutdown failed", logger.ErrorField(err))
		}
	}
	a.cleanup()
	return runErr
}

// Close releases resources without serving. Run performs its own cleanup.
func (a *App) Close() {
	a.cleanup()
}

func (a *App) cleanup() {
	a.queue.Close()
	a.pool.Close()
}

// memoryFactory builds the memory provider lazily. Terminal conditions
// (feature flag off, missing key) wrap supermemory.ErrUnavailable so the
// client caches the disabled state; anything else is retried.
func memoryFactory(cfg *config.AppConfig, log logger.Logger) supermemory.Factory {
	return func() (supermemory.Provider, error) {
		sm := cfg.Supermemory
		if !sm.Enabled {
			return nil, fmt.Errorf("%w: disabled by configuration", supermemory.ErrUnavailable)
		}

		switch sm.Backend {
		case "local":
			if cfg.OpenAI.APIKey == "" {
				return nil, fmt.Errorf("%w: local backend requires an OpenAI key for embeddings", supermemory.ErrUnavailable)
			}
			return supermemory.NewLocalProvider(supermemory.LocalConfig{
				APIKey: cfg.OpenAI.APIKey,
				Logger: log,
			})
		default:
			if sm.APIKey == "" {
				return nil, fmt.Errorf("%w: API key not configured", supermemory.ErrUnavailable)
			}
			return supermemory.NewRemoteProvider(supermemory.RemoteConfig{
				BaseURL: sm.BaseURL,
				APIKey:  sm.APIKey,
				Timeout: sm.Timeout,
				Logger:  log,
			})
		}
	}
}

func newCompleter(cfg *config.AppConfig) (llm.Completer, error) {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		return llmopenai.New(cfg.OpenAI.APIKey)
	case "claude", "anthropic":
		return llmanthropic.New(cfg.Anthropic.APIKey)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// userStore is the user-provisioning surface seedUsers needs.
type userStore interface {
	GetByPublicID(ctx context.Context, publicID string) (*persistence.User, error)
	CreateUser(ctx context.Context, publicID, username string) (*persistence.User, error)
}

// seedUsers provisions a user row for every identity named in the configured
// auth tokens, so conversation ownership always has a valid target. Malformed
// pairs are skipped, matching the authenticator.
func seedUsers(ctx context.Context, pairs []string, store userStore, log logger.Logger) error {
	seen := make(map[string]bool)
	for _, pair := range pairs {
		token, userID, found := strings.Cut(pair, ":")
		if !found || token == "" || userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true

		_, err := store.GetByPublicID(ctx, userID)
		if err == nil {
			continue
		}
		if !errors.Is(err, persistence.ErrNotFound) {
			return fmt.Errorf("lookup user %q: %w", userID, err)
		}

		if _, err := store.CreateUser(ctx, userID, userID); err != nil {
			return fmt.Errorf("seed user %q: %w", userID, err)
		}
		log.Info("provisioned user", logger.StringField("public_id", userID))
	}
	return nil
}

// seedRoles syncs the persona catalog from the roles file when the table is
// empty. A missing file is only fatal when there are no roles at all.
func seedRoles(ctx context.Context, cfg *config.AppConfig, svc *roles.Service, log logger.Logger) error {
	count, err := svc.Count(ctx)
	if err != nil {
		return fmt.Errorf("count roles: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := os.Stat(cfg.RolesFile); err != nil {
		return fmt.Errorf("no roles in database and roles file unavailable: %w", err)
	}

	synced, err := svc.SyncFromFile(ctx, cfg.RolesFile)
	if err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	log.Info("role catalog seeded", logger.IntField("count", synced))
	return nil
}
