package main

import (
	"fmt"
	"os"
	"time"

	"github.com/saathichat/saathi-backend/internal/db"
	"github.com/saathichat/saathi-backend/internal/handlers"
	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/middleware"
	"github.com/saathichat/saathi-backend/internal/repos"
	"github.com/saathichat/saathi-backend/internal/server"
	"github.com/saathichat/saathi-backend/internal/services"
	"github.com/saathichat/saathi-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("JWT_ACCESS_TTL", 86400, log)
	historyWindow := utils.GetEnvAsInt("CHAT_HISTORY_WINDOW", 10, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	personaRepo := repos.NewPersonaRepo(thePG, log)
	threadRepo := repos.NewThreadRepo(thePG, log)
	messageRepo := repos.NewMessageRepo(thePG, log)
	contentReportRepo := repos.NewContentReportRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	completionClient, err := services.NewOpenAICompletionClient(log)
	if err != nil {
		log.Error("Could not init CompletionClient", "error", err)
		os.Exit(1)
	}
	tokenService := services.NewTokenService(thePG, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	personaService := services.NewPersonaService(thePG, log, personaRepo, completionClient)
	chatConfig := services.DefaultChatConfig()
	chatConfig.HistoryWindow = historyWindow
	chatService := services.NewChatService(thePG, log, threadRepo, messageRepo, personaRepo, personaService, completionClient, chatConfig)
	registrationService := services.NewRegistrationService(thePG, log, userRepo, tokenService)
	reportService := services.NewReportService(thePG, log, messageRepo, contentReportRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	registerHandler := handlers.NewRegisterHandler(log, registrationService)
	chatHandler := handlers.NewChatHandler(log, chatService)
	personaHandler := handlers.NewPersonaHandler(log, personaService)
	reportHandler := handlers.NewReportHandler(log, reportService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, tokenService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:  authMiddleware,
		RegisterHandler: registerHandler,
		ChatHandler:     chatHandler,
		PersonaHandler:  personaHandler,
		ReportHandler:   reportHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}
