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

	"alcyxob/gym-manager/internal/api"
	"alcyxob/gym-manager/internal/config"
	"alcyxob/gym-manager/internal/events"
	"alcyxob/gym-manager/internal/jobs"
	"alcyxob/gym-manager/internal/ratelimit"
	"alcyxob/gym-manager/internal/repository/mongo"
	"alcyxob/gym-manager/internal/service"
	"alcyxob/gym-manager/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// @title Gym Manager API
// @version 1.0
// @description API for gym staff: clients, subscriptions, training sessions, transfers, group training and revenue dashboards.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting Gym Manager Server...")

	// A local .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("WARN: Could not read .env file: %v", err)
	}

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("FATAL: JWT_SECRET must be set")
	}
	loc := cfg.App.Location()
	log.Printf("Configuration loaded (timezone %s).", loc)

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

	// --- Ensure Indexes ---
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

	// --- Login Rate Limiter (optional) ---
	var limiter service.LoginLimiter
	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err := ratelimit.NewClient(ctx, cfg.Redis.URL)
		cancel()
		if err != nil {
			log.Printf("WARN: Redis unavailable, login throttling disabled: %v", err)
		} else {
			defer redisClient.Close()
			limiter = ratelimit.NewRedisLimiter(redisClient, "gym", cfg.Redis.LoginLimit, cfg.Redis.LoginWindow)
			log.Println("Login rate limiter enabled.")
		}
	}

	// --- Event Publisher (optional) ---
	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Printf("WARN: RabbitMQ unavailable, domain events disabled: %v", err)
		} else {
			publisher = rabbit
			log.Printf("Publishing domain events to exchange %q.", cfg.RabbitMQ.Exchange)
		}
	}
	defer publisher.Close()

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	tx := mongo.NewTransactor(dbClient)
	userRepo := mongo.NewMongoUserRepository(appDB)
	clientRepo := mongo.NewMongoClientRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	subRepo := mongo.NewMongoSubscriptionRepository(appDB)
	trainingPlanRepo := mongo.NewMongoTrainingPlanRepository(appDB)
	sessionRepo := mongo.NewMongoTrainingSessionRepository(appDB)
	logRepo := mongo.NewMongoSessionLogRepository(appDB)
	transferRepo := mongo.NewMongoTransferRepository(appDB)
	groupRepo := mongo.NewMongoGroupSessionRepository(appDB)
	scheduleRepo := mongo.NewMongoCoachScheduleRepository(appDB)
	templateRepo := mongo.NewMongoGroupTemplateRepository(appDB)
	uploadRepo := mongo.NewMongoUploadRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, limiter, cfg.JWT.Secret, cfg.JWT.Expiration)
	subscriptionService := service.NewSubscriptionService(subRepo, planRepo, clientRepo, userRepo, transferRepo, loc)
	services := api.Services{
		Auth:         authService,
		Client:       service.NewClientService(tx, clientRepo, subRepo, sessionRepo, logRepo, trainingPlanRepo, uploadRepo, fileStorage),
		Plan:         service.NewPlanService(planRepo),
		Subscription: subscriptionService,
		TrainingPlan: service.NewTrainingPlanService(trainingPlanRepo, subRepo),
		Session: service.NewSessionService(tx, subRepo, planRepo, sessionRepo, logRepo, groupRepo, trainingPlanRepo, userRepo,
			publisher, cfg.App.DefaultTrainerLabel, loc),
		SessionLog: service.NewSessionLogService(tx, subRepo, planRepo, sessionRepo, logRepo, groupRepo, publisher, loc),
		Transfer:   service.NewTransferService(transferRepo, subRepo, planRepo, userRepo, clientRepo, publisher),
		Group: service.NewGroupService(tx, groupRepo, scheduleRepo, templateRepo, clientRepo, userRepo, subRepo, planRepo,
			sessionRepo, logRepo, publisher, loc),
		Dashboard: service.NewDashboardService(subRepo, planRepo, clientRepo, userRepo, sessionRepo, logRepo, groupRepo, loc),
	}

	if cfg.Admin.Email != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := authService.EnsureBootstrapAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Printf("ERROR: Failed to ensure bootstrap admin: %v", err)
		}
		cancel()
	}

	// --- Background Jobs ---
	scheduler := jobs.NewScheduler(subscriptionService, loc)
	if err := scheduler.Start(cfg.Jobs.ExpiryCron); err != nil {
		log.Fatalf("FATAL: Could not schedule expiry job: %v", err)
	}

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware

	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, loc, services)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	<-scheduler.Stop().Done()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
