package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linksnap/auth"
	"linksnap/cache"
	"linksnap/config"
	"linksnap/handler"
	appLogger "linksnap/logger"
	"linksnap/middleware"
	redisClient "linksnap/redis"
	"linksnap/store"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize logger
	appLogger.Initialize()

	// Load configuration
	cfg := config.MustLoadConfig()
	log.Info().Msg("Configuration loaded successfully")

	// Connect to the store. The client is created once here and injected
	// into everything that needs it.
	rdb := redisClient.NewClient(cfg.Redis)
	linkStore := store.New(rdb)

	// Initialize cache (if enabled)
	var cacheClient *cache.Cache
	if cfg.Cache.Enabled {
		var err error
		cacheClient, err = cache.New(cfg.Cache)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize cache")
		}
	} else {
		log.Info().Msg("Cache disabled in configuration")
	}

	// Token manager for the identity endpoints
	jwtManager := auth.NewJWTManager(
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.AccessTokenTTLMinutes)*time.Minute,
		time.Duration(cfg.Auth.RefreshTokenTTLHours)*time.Hour,
	)

	linkHandler := handler.NewLinkHandler(linkStore, cacheClient, cfg)
	userHandler := handler.NewUserHandler(rdb, jwtManager)
	userAuth := middleware.NewUserAuth(jwtManager)

	// Set up router
	r := mux.NewRouter()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	r.Use(middleware.CORS)
	r.Use(middleware.RequestLogger)
	r.Use(rateLimiter.Limit)

	// System routes
	r.HandleFunc("/health", linkHandler.HealthCheck).Methods("GET")
	r.HandleFunc("/cache/metrics", linkHandler.CacheMetrics).Methods("GET")

	// Identity routes
	r.HandleFunc("/api/auth/register", userHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", userHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/refresh", userHandler.RefreshToken).Methods("POST")
	r.Handle("/api/auth/me", userAuth.Protect(http.HandlerFunc(userHandler.Me))).Methods("GET")

	// Link routes. Auth is optional: a token names the owner, nothing more.
	r.Handle("/api/urls", userAuth.Optional(http.HandlerFunc(linkHandler.CreateLink))).Methods("POST")
	r.Handle("/api/urls", userAuth.Optional(http.HandlerFunc(linkHandler.ListLinks))).Methods("GET")
	r.Handle("/api/urls/stats", userAuth.Optional(http.HandlerFunc(linkHandler.GetStats))).Methods("GET")
	r.HandleFunc("/api/urls/click/{shortCode}", linkHandler.IncrementClick).Methods("POST")
	r.HandleFunc("/api/urls/qr/{shortCode}", linkHandler.GenerateQR).Methods("GET")
	r.Handle("/api/urls/{id}", userAuth.Optional(http.HandlerFunc(linkHandler.UpdateLink))).Methods("PUT")
	r.Handle("/api/urls/{id}", userAuth.Optional(http.HandlerFunc(linkHandler.DeleteLink))).Methods("DELETE")

	// Redirect routes (root route must be last to avoid conflicts)
	r.HandleFunc("/api/r/{shortCode}", linkHandler.Redirect).Methods("GET")
	r.HandleFunc("/{shortCode}", linkHandler.Redirect).Methods("GET")

	// Configure HTTP server
	serverAddress := fmt.Sprintf("%s:%s", cfg.WebServer.IP, cfg.WebServer.Port)
	server := &http.Server{
		Addr:         serverAddress,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.WebServer.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WebServer.WriteTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("address", serverAddress).
			Str("scheme", cfg.WebServer.Scheme).
			Msg("Starting server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.WebServer.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if cacheClient != nil {
		cacheClient.Close()
	}

	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Redis connection")
	}

	log.Info().Msg("Server stopped gracefully")
}
