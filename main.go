package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docuchat/internal/config"
	"docuchat/internal/extract"
	"docuchat/internal/handlers"
	"docuchat/internal/logging"
	"docuchat/internal/middleware"
	"docuchat/internal/services"
	"docuchat/internal/store"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	openai "github.com/sashabaranov/go-openai"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logging.SetupLogger()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting docuchat", slog.String("version", "1.0.0"))

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		slog.Error("Failed to create upload directory", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	registry := extract.Default()
	sessionStore := store.New()
	documentService := services.NewDocumentService(sessionStore, registry)
	chatService := services.NewChatService(
		openai.NewClient(cfg.OpenAIAPIKey),
		cfg.OpenAIModel,
		sessionStore,
		registry,
		cfg.UploadDir,
	)

	uploadHandler := handlers.NewUploadHandler(documentService, registry, cfg.UploadDir)
	chatHandler := handlers.NewChatHandler(chatService)

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.MetricsMiddleware)

	uploadRouter := router.Path("/upload").Subrouter()
	uploadRouter.Use(middleware.UploadRateLimitMiddleware())
	uploadRouter.HandleFunc("", uploadHandler.HandleUpload).Methods("POST")

	chatRouter := router.Path("/chat").Subrouter()
	chatRouter.Use(middleware.APIRateLimitMiddleware())
	chatRouter.HandleFunc("", chatHandler.HandleChat).Methods("POST")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Ready"))
	}).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
		// Uploads can be large and completion calls slow; keep the write
		// timeout above the chat handler's own 60s deadline.
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Server starting", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully")
}
