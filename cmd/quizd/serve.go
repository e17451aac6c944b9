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

	"github.com/spf13/cobra"

	"quizengine/internal/handlers"
	"quizengine/internal/repository"
	"quizengine/internal/security"
	"quizengine/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireSecret(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Initialize repositories
	quizRepo := repository.NewQuizRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// Initialize services
	sessionService := service.NewQuizSessionService(quizRepo, sessionRepo, cfg.MaxAnswerDuration)
	tokens := security.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	limiter := security.NewRateLimiter(ctx, cfg.RateLimit, cfg.RateLimitWindow)

	// Initialize handlers
	router := handlers.NewRouter(handlers.RouterConfig{
		Sessions:       handlers.NewSessionHandler(sessionService),
		Middleware:     handlers.NewMiddleware(tokens, limiter),
		AllowedOrigins: cfg.CORSOrigins,
		Ping:           func(r *http.Request) error { return db.PingContext(r.Context()) },
	})

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
