package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"compass/api/internal/app"
	"compass/api/internal/config"
	"compass/api/internal/search"
	"compass/api/internal/session"
	"compass/api/internal/store"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg := config.Load()
	ctx := context.Background()

	var dataStore store.Store
	if strings.HasPrefix(cfg.DatabaseURL, "sqlite:") || strings.HasPrefix(cfg.DatabaseURL, "file:") {
		sqliteStore, err := store.OpenSQLite(ctx, strings.TrimPrefix(cfg.DatabaseURL, "sqlite:"))
		if err != nil {
			log.Fatalf("sqlite open failed: %v", err)
		}
		defer sqliteStore.Close()
		dataStore = sqliteStore
	} else {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()

		if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
		dataStore = store.NewPostgresStore(db)
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient)

	var service *app.Service
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for refresh token storage")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		service = app.NewWithSessionStore(cfg, dataStore, redisStore, searchService)
	} else {
		log.Printf("Using the database for refresh token storage")
		service = app.New(cfg, dataStore, searchService)
	}

	// A catalog defect means every total and percentage is wrong, so
	// refuse to start on one.
	if err := service.Bootstrap(ctx); err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	searchService.ReindexCatalog()

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Compass API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
