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

	"aurenlm-backend/internal/config"
	"aurenlm-backend/internal/database"
	"aurenlm-backend/internal/handlers"
	"aurenlm-backend/internal/llm"
	"aurenlm-backend/internal/middleware"
	"aurenlm-backend/internal/repository"
	"aurenlm-backend/internal/router"
	"aurenlm-backend/internal/services"
	"aurenlm-backend/internal/vectorstore"
	"aurenlm-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting AurenLM Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	docRepo := repository.NewDocumentRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)
	mindmapRepo := repository.NewMindmapRepo(pool)
	quizRepo := repository.NewQuizRepo(pool)

	// ──── Step 5: Initialize LLM Backend ────
	completer, err := llm.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("✗ LLM backend initialization failed: %v", err)
	}
	if closer, ok := completer.(interface{ Close() }); ok {
		defer closer.Close()
	}
	limiter := llm.NewLimiter(cfg.LLMConcurrentReqs)
	log.Printf("✓ LLM backend initialized (%s)", completer.Name())

	var embedder llm.Embedder
	if cfg.EmbeddingsBaseURL != "" {
		embedder = llm.NewEmbeddingClient(cfg.EmbeddingsBaseURL, cfg.EmbeddingsAPIKey, cfg.EmbeddingsModel)
		log.Println("✓ Embeddings client initialized")
	} else {
		log.Println("  Embeddings disabled, retrieval falls back to leading chunks")
	}

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	chunkStore := vectorstore.New(docRepo)
	extractService := services.NewExtractService()
	urlService := services.NewURLService()
	authService := services.NewAuthService(userRepo, redisClients.Tokens, jwtAuth)
	docService := services.NewDocumentService(extractService, urlService, chunkStore, docRepo, embedder, cfg.ChunkSize, cfg.ChunkOverlap)
	publisher := services.NewRedisPublisher(redisClients.PubSub)
	studioService := services.NewStudioService(completer, embedder, limiter, chunkStore, docRepo, sessionRepo, mindmapRepo, quizRepo, publisher)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	documentHandler := handlers.NewDocumentHandler(docService)
	sessionHandler := handlers.NewSessionHandler(sessionRepo, mindmapRepo)
	studioHandler := handlers.NewStudioHandler(studioService)
	quizHandler := handlers.NewQuizHandler(studioService, quizRepo)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		documentHandler,
		sessionHandler,
		studioHandler,
		quizHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // generation calls can run long
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ AurenLM Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
