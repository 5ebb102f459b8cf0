package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/saathichat/saathi-backend/internal/handlers"
	"github.com/saathichat/saathi-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware  *middleware.AuthMiddleware
	RegisterHandler *handlers.RegisterHandler
	ChatHandler     *handlers.ChatHandler
	PersonaHandler  *handlers.PersonaHandler
	ReportHandler   *handlers.ReportHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-FCM-Token"},
		AllowCredentials: false,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.RegisterHandler.Register)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Chat
	protected.POST("/chat", cfg.ChatHandler.SendTurn)
	protected.POST("/messages", cfg.ChatHandler.GetMessages)
	// Personas
	protected.GET("/personas", cfg.PersonaHandler.List)
	protected.POST("/personas", cfg.PersonaHandler.List)
	// Moderation
	protected.POST("/report", cfg.ReportHandler.Submit)

	return router
}
