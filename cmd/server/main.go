package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"quiz-engine/internal/attempt"
	"quiz-engine/internal/auth"
	"quiz-engine/internal/catalog"
	"quiz-engine/internal/models"
	"quiz-engine/pkg/cache"
	"quiz-engine/pkg/database"
	"quiz-engine/pkg/logger"
	"quiz-engine/pkg/websocket"
)

func main() {
	// Load environment variables
	envLoaded := godotenv.Load() == nil

	logger.Init(os.Getenv("LOG_FILE"), os.Getenv("DEBUG") == "true")
	defer logger.Log.Sync()
	if !envLoaded {
		logger.Log.Warn(".env file not found")
	}

	// Initialize database
	dbConfig := &database.Config{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  os.Getenv("DB_SSLMODE"),
	}

	db, err := database.NewPostgresDB(dbConfig)
	if err != nil {
		logger.Log.Fatal("connecting to database", zap.Error(err))
	}

	err = db.AutoMigrate(
		&models.Quiz{},
		&models.Question{},
		&models.Option{},
		&models.QuizAttempt{},
		&models.AttemptAnswer{},
	)
	if err != nil {
		logger.Log.Fatal("migrating database", zap.Error(err))
	}

	// Initialize Redis cache
	redisCache := cache.NewRedisCache(os.Getenv("REDIS_ADDR"))

	// Initialize repositories and services
	jwtSecret := os.Getenv("JWT_SECRET")
	authService := auth.NewService(jwtSecret)

	catalogRepo := catalog.NewRepository(db)
	catalogService := catalog.NewService(catalogRepo, redisCache)

	attemptRepo := attempt.NewRepository(db)
	attemptService := attempt.NewService(attemptRepo, catalogService, redisCache)

	// Initialize WebSocket hub (attempt sessions: auto-save + timer push)
	wsHub := websocket.NewHub(attemptService, jwtSecret, 0)
	go wsHub.Run()

	// Initialize handlers
	authHandler := auth.NewHandler(authService)
	catalogHandler := catalog.NewHandler(catalogService, redisCache)
	attemptHandler := attempt.NewHandler(attemptService)

	// Setup router
	router := mux.NewRouter()

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	handler := corsMiddleware.Handler(router)

	// Session issuance - no token required
	router.HandleFunc("/api/participants/session", authHandler.CreateSession).Methods("POST", "OPTIONS")

	// Engine routes - participant token required
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(auth.ParticipantMiddleware(jwtSecret))

	apiRouter.HandleFunc("/quizzes", catalogHandler.CreateQuiz).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/quizzes/{quizCode}", catalogHandler.GetQuiz).Methods("GET", "OPTIONS")
	apiRouter.HandleFunc("/quizzes/{quizCode}/results", catalogHandler.GetResults).Methods("GET")

	apiRouter.HandleFunc("/attempts/start", attemptHandler.StartAttempt).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/attempts/{id}/answers/{questionID}", attemptHandler.SaveAnswer).Methods("PUT", "OPTIONS")
	apiRouter.HandleFunc("/attempts/{id}/answers", attemptHandler.ListAnswers).Methods("GET")
	apiRouter.HandleFunc("/attempts/{id}/submit", attemptHandler.Submit).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/attempts/{id}/timer", attemptHandler.TimerState).Methods("GET")
	apiRouter.HandleFunc("/attempts/{id}/result", attemptHandler.Result).Methods("GET")

	// WebSocket endpoint (token passed as a query parameter)
	router.HandleFunc("/ws/attempts/{id}", wsHub.HandleWebSocket)

	addr := os.Getenv("SERVER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Log.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("starting server", zap.Error(err))
		}
	}()

	// Graceful shutdown setup
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("forced shutdown", zap.Error(err))
	}

	logger.Log.Info("server shutdown gracefully")
}
