// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nextignition/network-api/internal/auth"
	"github.com/nextignition/network-api/internal/config"
	"github.com/nextignition/network-api/internal/events"
	"github.com/nextignition/network-api/internal/handler"
	"github.com/nextignition/network-api/internal/middleware"
	"github.com/nextignition/network-api/internal/oauth"
	"github.com/nextignition/network-api/internal/permission"
	"github.com/nextignition/network-api/internal/service"
	"github.com/nextignition/network-api/internal/store/postgres"
	"github.com/nextignition/network-api/internal/ws"
	"github.com/nextignition/network-api/pkg/logger"
	"github.com/nextignition/network-api/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "network-api", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", "error", err)
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	natsClient, err := events.Connect(ctx, events.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()

	bus := events.NewBus(natsClient)
	if err := bus.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure stream", "error", err)
		os.Exit(1)
	}

	// Connect to Postgres
	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		log.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	// Initialize services
	perms := permission.Resolver{GrantAll: cfg.GrantAllPermissions}
	notificationSvc := service.NewNotificationService(db.Notifications(), bus, log)
	conversationSvc := service.NewConversationService(db.Conversations(), db.Profiles(), notificationSvc, bus, perms, log)
	connectionSvc := service.NewConnectionService(db.Connections(), db.Profiles(), conversationSvc, notificationSvc, bus, perms, log)
	profileSvc := service.NewProfileService(db.Profiles(), log)
	presence := service.NewPresenceTracker(bus, cfg.TypingIdleTimeout, log)
	defer presence.Close()

	// Session container owned by the application root. The identity
	// platform answers over the bus; absent one, the process runs signed
	// out until a session-change broadcast arrives.
	sessions := service.NewSessionStore(auth.NewSessionProvider(natsClient.Conn(), log), db.Profiles(), log)
	if err := sessions.Start(ctx); err != nil {
		log.Error("failed to start session store", "error", err)
		os.Exit(1)
	}
	defer sessions.Close()

	// Live presence feeds conversation views.
	conversationSvc.SetOnlineChecker(presence)

	// Websocket hub
	hub := ws.NewHub(conversationSvc, db.Conversations(), presence, bus, log)
	if err := hub.Start(ctx); err != nil {
		log.Error("failed to start websocket hub", "error", err)
		os.Exit(1)
	}
	defer hub.Close()

	// Google OAuth relay
	googleRelay := oauth.NewGoogleRelay(
		cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL,
		db.Tokens(), log,
	)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient, db)
	profileHandler := handler.NewProfileHandler(profileSvc, perms, log)
	connectionHandler := handler.NewConnectionHandler(connectionSvc, log)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, log)
	eventsHandler := handler.NewEventsHandler(db.Notifications(), bus, log)
	wsHandler := handler.NewWSHandler(hub, db.Profiles(), log)
	oauthHandler := handler.NewOAuthHandler(googleRelay, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// The client-side redirect page forwards the authorization code, so all
	// three relay endpoints sit behind the bearer token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Post("/oauth/google/initiate", oauthHandler.Initiate)
		r.Post("/oauth/google/callback", oauthHandler.Callback)
		r.Post("/oauth/google/refresh", oauthHandler.Refresh)
	})

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Profiles
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", profileHandler.List)
			r.Get("/me", profileHandler.Me)
			r.Put("/me", profileHandler.UpdateMe)
			r.Get("/me/permissions", profileHandler.Permissions)
			r.Get("/{id}", profileHandler.Get)
		})

		// Connections
		r.Route("/connections", func(r chi.Router) {
			r.Post("/", connectionHandler.Send)
			r.Get("/", connectionHandler.List)
			r.Get("/pending", connectionHandler.PendingReceived)
			r.Get("/sent", connectionHandler.PendingSent)
			r.Get("/status/{identityID}", connectionHandler.Status)

			r.Route("/{id}", func(r chi.Router) {
				r.Post("/accept", connectionHandler.Accept)
				r.Post("/reject", connectionHandler.Reject)
				r.Post("/block", connectionHandler.Block)
				r.Delete("/", connectionHandler.Cancel)
			})
		})

		// Conversations
		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationHandler.List)
			r.Post("/", conversationHandler.CreateGroup)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/messages", conversationHandler.Messages)
				r.Post("/messages", conversationHandler.SendMessage)
				r.Post("/read", conversationHandler.MarkRead)
			})
		})

		// Notifications
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.List)
			r.Post("/read-all", notificationHandler.MarkAllRead)
			r.Post("/{id}/read", notificationHandler.MarkRead)
			r.Delete("/{id}", notificationHandler.Delete)
		})

		// Dashboard stats
		r.Get("/stats", connectionHandler.Stats)

		// Live streams
		r.Get("/events", eventsHandler.Stream)
		r.Get("/ws", wsHandler.Serve)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
