package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/services"
)

type RegisterHandler struct {
	log                 *logger.Logger
	registrationService services.RegistrationService
}

func NewRegisterHandler(log *logger.Logger, registrationService services.RegistrationService) *RegisterHandler {
	return &RegisterHandler{log: log.With("handler", "RegisterHandler"), registrationService: registrationService}
}

func (rh *RegisterHandler) Register(c *gin.Context) {
	var req struct {
		Phone    string `json:"phone"`
		FCMToken string `json:"fcm_token"`
		Gender   string `json:"gender"`
		Age      int    `json:"age"`
		City     string `json:"city"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. Expected JSON format."})
		return
	}

	appKey, err := rh.registrationService.Register(c.Request.Context(), services.RegistrationInput{
		Phone:    req.Phone,
		FCMToken: req.FCMToken,
		Gender:   req.Gender,
		Age:      req.Age,
		City:     req.City,
	})
	if err != nil {
		rh.log.Error("Registration failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "app_key": appKey})
}
