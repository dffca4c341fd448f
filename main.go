package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/example/pairchat/internal/auth"
	"github.com/example/pairchat/internal/cache"
	"github.com/example/pairchat/internal/config"
	"github.com/example/pairchat/internal/email"
	"github.com/example/pairchat/internal/handlers"
	"github.com/example/pairchat/internal/middleware"
	"github.com/example/pairchat/internal/store/sqlstore"
	"github.com/example/pairchat/internal/ws"
)

func main() {
	cfg := config.Load()

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	auth.SetSecret(cfg.CookieSecret)

	ctx := context.Background()

	store, err := sqlstore.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer store.Close()
	logger.Info().Str("driver", cfg.DatabaseDriver).Msg("connected to database")

	recentCache, err := cache.New(ctx, cfg.RedisURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer recentCache.Close()
	logger.Info().Msg("connected to redis")

	hub := ws.NewHub(logger)
	mail := email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, logger)

	authHandler := &handlers.AuthHandler{Store: store, Mail: mail, Logger: logger, BaseURL: cfg.BaseURL}
	chatHandler := &handlers.ChatHandler{Store: store, Logger: logger}

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))

	// Public endpoints
	r.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	r.HandleFunc("/verify", authHandler.Verify).Methods("GET")
	r.HandleFunc("/health", handlers.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated API
	api := r.NewRoute().Subrouter()
	api.Use(middleware.AuthMiddleware)
	api.HandleFunc("/users/search", authHandler.SearchUsers).Methods("GET")
	api.HandleFunc("/chats/{peerID}", chatHandler.StartChat).Methods("POST")
	api.HandleFunc("/chats/{peerID}/messages", chatHandler.GetMessages).Methods("GET")

	// WebSocket endpoint
	wsRouter := r.PathPrefix("/ws").Subrouter()
	wsRouter.Use(middleware.AuthMiddleware)
	wsRouter.HandleFunc("/chat/{peerID}", func(w http.ResponseWriter, req *http.Request) {
		userID, _ := middleware.UserID(req)
		ws.ServeWs(hub, store, recentCache, logger, w, req, userID)
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("env", cfg.Env).Msg("starting pairchat server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
