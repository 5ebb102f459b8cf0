package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/services"
)

type PersonaHandler struct {
	log            *logger.Logger
	personaService services.PersonaService
}

func NewPersonaHandler(log *logger.Logger, personaService services.PersonaService) *PersonaHandler {
	return &PersonaHandler{log: log.With("handler", "PersonaHandler"), personaService: personaService}
}

// List serves both GET (all personas) and POST with an optional {id} filter.
func (ph *PersonaHandler) List(c *gin.Context) {
	var req struct {
		ID string `json:"id"`
	}
	// Body is optional; a GET carries none.
	_ = c.ShouldBindJSON(&req)

	personas, err := ph.personaService.List(c.Request.Context(), strings.TrimSpace(req.ID))
	if err != nil {
		ph.log.Error("Persona list failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, attachNewToken(c, gin.H{"data": personas}))
}
