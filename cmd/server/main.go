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

	"tlm/coach-api/internal/api"
	"tlm/coach-api/internal/config"
	"tlm/coach-api/internal/playlist"
	"tlm/coach-api/internal/repository"
	"tlm/coach-api/internal/repository/memory"
	"tlm/coach-api/internal/repository/mongo"
	"tlm/coach-api/internal/repository/redis"
	"tlm/coach-api/internal/service"
	"tlm/coach-api/internal/storage"

	"github.com/gin-gonic/gin"
)

// @title Coach API
// @version 1.0
// @description Exercise library, client workouts and guided workout playback.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting Coach API server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("FATAL: jwt.secret (JWT_SECRET) must be set")
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, appDB)
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(context.Background(), cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Playback session store ---
	sessions, closeSessions, err := newSessionStore(cfg.Redis)
	if err != nil {
		log.Fatalf("FATAL: Could not open playback session store: %v", err)
	}
	defer closeSessions()

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)
	prebuiltRepo := mongo.NewMongoPrebuiltWorkoutRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	resolver := playlist.NewResolver(cfg.Playback.BreakVideo, cfg.Playback.BreakThumb)
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	exerciseService := service.NewExerciseService(exerciseRepo, workoutRepo, prebuiltRepo, fileStorage)
	workoutService := service.NewWorkoutService(userRepo, exerciseRepo, workoutRepo, prebuiltRepo)
	playbackService := service.NewPlaybackService(userRepo, workoutRepo, sessions, resolver, fileStorage, cfg.Playback.MediaURLExpiry)

	// --- Initialize Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.Default() // Includes Logger and Recovery middleware

	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, exerciseService, workoutService, playbackService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// In-flight requests get 5 seconds to finish.
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}

// newSessionStore returns the Redis session store when an address is
// configured and a process-local store otherwise.
func newSessionStore(cfg config.RedisConfig) (repository.PlaybackSessionRepository, func(), error) {
	if cfg.Address == "" {
		log.Println("WARN: redis.address not set; playback sessions are kept in process memory")
		return memory.NewSessionRepository(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := redis.Connect(ctx, cfg.Address, cfg.Password, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Playback sessions stored in Redis at %s", cfg.Address)

	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Printf("ERROR: Failed to close Redis client: %v", err)
		}
	}
	return redis.NewSessionRepository(client, cfg.SessionTTL), closeFn, nil
}
