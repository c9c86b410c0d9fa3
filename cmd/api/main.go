package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ums-dashboard/bff/internal/config"
	"github.com/ums-dashboard/bff/internal/infrastructure/backend"
	"github.com/ums-dashboard/bff/internal/infrastructure/sealer"
	transporthttp "github.com/ums-dashboard/bff/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Cookie sealer. A missing or weak secret is fatal: without it every
	// session cookie would be unverifiable, so the process fails closed.
	cookieSealer, err := sealer.New(cfg.CookieSecret)
	if err != nil {
		log.Fatalf("COOKIE_SECRET: %v", err)
	}

	backendClient := backend.NewClient(cfg)

	deps := &transporthttp.Deps{
		Backend: backendClient,
		Sealer:  cookieSealer,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, backend=%s)", cfg.AppPort, cfg.AppEnv, cfg.BackendBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
