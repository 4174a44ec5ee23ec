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

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/kapatiran/lending-engine/internal/config"
	"github.com/kapatiran/lending-engine/internal/handler"
	"github.com/kapatiran/lending-engine/internal/penalty"
	"github.com/kapatiran/lending-engine/internal/repository"
	"github.com/kapatiran/lending-engine/internal/service"
	"github.com/kapatiran/lending-engine/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	appRepo := repository.NewApplicationRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	collectionRepo := repository.NewCollectionRepository(db)

	// Initialize services
	loanService := service.NewLoanService(appRepo, installmentRepo, cfg)
	collectionService := service.NewCollectionService(
		installmentRepo,
		collectionRepo,
		redisClient,
		penalty.Policy{Rate: cfg.GetPenaltyRate()},
		cfg.GetReconcileLockTTL(),
	)

	lendingHandler := handler.NewLendingHandler(loanService, collectionService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Setup routes
	router := setupRoutes(lendingHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(lendingHandler *handler.LendingHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/schedules/preview", lendingHandler.PreviewSchedule).Methods("POST")
	api.HandleFunc("/applications", lendingHandler.SubmitApplication).Methods("POST")
	api.HandleFunc("/applications/{id}/approve", lendingHandler.ApproveApplication).Methods("POST")
	api.HandleFunc("/applications/{id}/activate", lendingHandler.ActivateApplication).Methods("POST")
	api.HandleFunc("/applications/{id}/reject", lendingHandler.RejectApplication).Methods("POST")
	api.HandleFunc("/applications/{id}/cancel", lendingHandler.CancelApplication).Methods("POST")
	api.HandleFunc("/applications/{id}/schedule", lendingHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/centers/{centerId}/co-maker-candidates", lendingHandler.GetCoMakerCandidates).Methods("GET")
	api.HandleFunc("/centers/{centerId}/collections", lendingHandler.SubmitCollection).Methods("POST")

	return router
}
