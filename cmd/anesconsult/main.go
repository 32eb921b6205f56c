package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yctsai/anesconsult/internal/config"
	"github.com/yctsai/anesconsult/internal/conversation"
	"github.com/yctsai/anesconsult/internal/genai"
	"github.com/yctsai/anesconsult/internal/httpapi"
	"github.com/yctsai/anesconsult/internal/intake"
	"github.com/yctsai/anesconsult/internal/observability"
	"github.com/yctsai/anesconsult/internal/patient"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := patient.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("patient store init failed: %v", err)
	}
	defer store.Close()
	if cfg.DatabaseURL == "" {
		log.Printf("patient store: in-memory (set DATABASE_URL for postgres)")
	} else {
		log.Printf("patient store: postgres")
	}

	adapter, err := genai.NewAdapter(genai.Config{
		Mode:    cfg.GenAIMode,
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.GenerateTimeout,
	})
	if err != nil {
		log.Fatalf("genai adapter init failed: %v", err)
	}

	conversations := conversation.NewManager(cfg.ConversationTTL)
	conversations.SetExpireHook(func(_ conversation.State) {
		metrics.ActiveConversations.Set(float64(conversations.ActiveCount()))
	})
	resolver := patient.NewResolver(store)
	engine := intake.NewEngine(conversations, store, resolver, adapter, metrics)

	api := httpapi.New(cfg, conversations, engine, store, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	conversations.StartJanitor(runCtx, time.Minute)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
