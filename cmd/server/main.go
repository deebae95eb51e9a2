package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forgo/guildhall/api/internal/config"
	"github.com/forgo/guildhall/api/internal/database"
	"github.com/forgo/guildhall/api/internal/handler"
	"github.com/forgo/guildhall/api/internal/jobs"
	"github.com/forgo/guildhall/api/internal/kvstore"
	"github.com/forgo/guildhall/api/internal/metrics"
	"github.com/forgo/guildhall/api/internal/middleware"
	"github.com/forgo/guildhall/api/internal/repository"
	"github.com/forgo/guildhall/api/internal/service"
	"github.com/forgo/guildhall/api/pkg/jwt"
)

// backend is the persistence gateway selected by STORE_DRIVER
type backend struct {
	guilds   service.GuildRepository
	users    service.UserRepository
	partners service.PartnerRepository
	pinger   handler.Pinger
	close    func() error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to open store",
			slog.String("driver", cfg.Store.Driver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	defer func() { _ = store.close() }()

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		Secret:         cfg.JWT.Secret,
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	m := metrics.New()

	eventHub := service.NewEventHub(service.EventHubConfig{
		Buffer:    cfg.Events.Buffer,
		Heartbeat: cfg.Events.Heartbeat,
		Metrics:   m,
	})
	defer eventHub.Close()

	registry := service.NewRegistryService(service.RegistryServiceConfig{
		GuildRepo:   store.guilds,
		UserRepo:    store.users,
		PartnerRepo: store.partners,
		Events:      eventHub,
		Metrics:     m,
		Logger:      logger,
	})

	loadCtx, cancelLoad := context.WithTimeout(ctx, 30*time.Second)
	err = registry.Load(loadCtx)
	cancelLoad()
	if err != nil {
		slog.Error("failed to load registry", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Background jobs
	auditor := jobs.NewInvariantAuditor(registry, jobs.InvariantAuditorConfig{
		Interval:   cfg.Audit.Interval,
		StartDelay: 10 * time.Second,
		Logger:     logger,
	})
	auditor.Start()
	defer auditor.Stop()

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RPS:   cfg.RateLimit.RPS,
		Burst: cfg.RateLimit.Burst,
	})
	defer rateLimiter.Stop()

	guards := handler.Guards{
		Auth:  middleware.Auth(jwtService, cfg.JWT.CookieName),
		Users: registry,
	}

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("GET /ready", handler.Ready(store.pinger))
	mux.Handle("GET /metrics", m.Handler())

	var oauthService *service.OAuthService
	if cfg.OAuth.Enabled() {
		oauthService = service.NewOAuthService(service.OAuthServiceConfig{
			Config: service.OAuthConfig{
				ClientID:     cfg.OAuth.ClientID,
				ClientSecret: cfg.OAuth.ClientSecret,
				RedirectURL:  cfg.OAuth.RedirectURL,
				AuthURL:      cfg.OAuth.AuthURL,
				TokenURL:     cfg.OAuth.TokenURL,
				UserInfoURL:  cfg.OAuth.UserInfoURL,
				Scopes:       cfg.OAuth.Scopes,
			},
			Tokens: jwtService,
		})
		slog.Info("oauth login enabled", slog.String("token_url", cfg.OAuth.TokenURL))
	}

	handler.NewAuthHandler(handler.AuthHandlerConfig{
		Registry: registry,
		OAuth:    oauthService,
		Cookie: handler.AuthCookie{
			Name:   cfg.JWT.CookieName,
			Domain: cfg.JWT.CookieDomain,
			MaxAge: cfg.JWT.CookieMaxAge,
			Secure: cfg.IsProduction(),
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}).RegisterRoutes(mux, guards)
	handler.NewGuildHandler(registry).RegisterRoutes(mux, guards)
	handler.NewUserHandler(registry).RegisterRoutes(mux, guards)
	handler.NewPartnerHandler(registry).RegisterRoutes(mux, guards)
	handler.NewEventsHandler(registry, eventHub).RegisterRoutes(mux)
	handler.NewSocketHandler(registry, eventHub, cfg.Server.AllowedOrigins).RegisterRoutes(mux)

	// Apply global middleware. OptionalAuth runs before RateLimit so
	// signed-in callers are limited per user.
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.OptionalAuth(jwtService, cfg.JWT.CookieName),
		middleware.RateLimit(rateLimiter),
		middleware.Compress,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	// Disconnect stream clients so Shutdown does not wait on them
	server.RegisterOnShutdown(eventHub.Close)

	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("store", cfg.Store.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.Store.Driver {
	case config.StoreBadger:
		store, err := kvstore.Open(kvstore.Config{
			Path:       cfg.Badger.Path,
			InMemory:   cfg.Badger.InMemory,
			SyncWrites: cfg.Badger.SyncWrites,
			GCInterval: cfg.Badger.GCInterval,
			Logger:     logger.With(slog.String("component", "badger")),
		})
		if err != nil {
			return nil, err
		}
		slog.Info("opened embedded store",
			slog.String("path", cfg.Badger.Path),
			slog.Bool("in_memory", cfg.Badger.InMemory),
		)
		return &backend{
			guilds:   store.Guilds,
			users:    store.Users,
			partners: store.Partners,
			pinger:   store,
			close:    store.Close,
		}, nil

	default:
		db := database.NewSurrealDB(database.Config{
			Host:      cfg.Database.Host,
			Port:      cfg.Database.Port,
			User:      cfg.Database.User,
			Password:  cfg.Database.Password,
			Namespace: cfg.Database.Namespace,
			Database:  cfg.Database.Database,
		})
		if err := db.Connect(ctx); err != nil {
			return nil, err
		}
		slog.Info("connected to database",
			slog.String("host", cfg.Database.Host),
			slog.String("database", cfg.Database.Database),
		)
		return &backend{
			guilds:   repository.NewGuildRepository(db),
			users:    repository.NewUserRepository(db),
			partners: repository.NewPartnerRepository(db),
			pinger:   db,
			close:    db.Close,
		}, nil
	}
}
