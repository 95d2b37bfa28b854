package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UCLALibrary/ftva-lab-data/internal/assignment"
	"github.com/UCLALibrary/ftva-lab-data/internal/config"
	"github.com/UCLALibrary/ftva-lab-data/internal/db"
	"github.com/UCLALibrary/ftva-lab-data/internal/export"
	"github.com/UCLALibrary/ftva-lab-data/internal/middleware"
	"github.com/UCLALibrary/ftva-lab-data/internal/repository"
	"github.com/UCLALibrary/ftva-lab-data/internal/search"

	"github.com/rs/cors"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories
	itemRepo := repository.NewItemRepository(conn.Pool)
	statusRepo := repository.NewStatusRepository(conn.Pool)
	userRepo := repository.NewUserRepository(conn.Pool)

	// Create services and handlers
	engine := search.NewEngine(itemRepo, statusRepo, userRepo)
	assignService := assignment.NewService(itemRepo, userRepo)
	exportService := export.NewService(itemRepo, statusRepo, userRepo)

	mux := http.NewServeMux()
	mux.Handle("/api/items", search.NewHTTPHandler(engine))
	mux.Handle("/api/items/export", export.NewHTTPHandler(exportService, engine))
	mux.Handle("/api/items/assign", assignment.NewHTTPHandler(assignService, engine))
	mux.HandleFunc("/api/statuses", func(w http.ResponseWriter, r *http.Request) {
		tags, err := statusRepo.List(r.Context())
		if err != nil {
			log.Printf("[HTTP] failed to list statuses: %v", err)
			http.Error(w, "failed to list statuses", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(tags); err != nil {
			log.Printf("[HTTP] failed to encode statuses: %v", err)
		}
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	handler := corsHandler.Handler(
		middleware.LoggingMiddleware(
			middleware.IdentityMiddleware(userRepo)(mux),
		),
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting lab data server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
