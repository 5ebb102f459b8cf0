package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/requestdata"
	"github.com/saathichat/saathi-backend/internal/services"
)

type ChatHandler struct {
	log         *logger.Logger
	chatService services.ChatService
}

func NewChatHandler(log *logger.Logger, chatService services.ChatService) *ChatHandler {
	return &ChatHandler{log: log.With("handler", "ChatHandler"), chatService: chatService}
}

func (ch *ChatHandler) SendTurn(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	var req struct {
		PersonaID string `json:"personaId"`
		Text      string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.PersonaID = strings.TrimSpace(req.PersonaID)
	req.Text = strings.TrimSpace(req.Text)
	if req.PersonaID == "" || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing personaId or text"})
		return
	}

	result, err := ch.chatService.SendTurn(c.Request.Context(), rd.Phone, req.PersonaID, req.Text)
	if err != nil {
		ch.log.Error("SendTurn failed", "phone", rd.Phone, "persona_id", req.PersonaID, "error", err)
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attachNewToken(c, gin.H{
		"threadId": result.ThreadID,
		"replies":  result.Replies,
		"messages": result.Messages,
	}))
}

func (ch *ChatHandler) GetMessages(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	var req struct {
		PersonaID string `json:"personaId"`
		Page      *int   `json:"page"`
		PageSize  *int   `json:"pageSize"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.PersonaID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing personaId"})
		return
	}
	page := 0
	if req.Page != nil {
		page = *req.Page
	}
	pageSize := 100
	if req.PageSize != nil {
		pageSize = *req.PageSize
	}

	result, err := ch.chatService.History(c.Request.Context(), rd.Phone, strings.TrimSpace(req.PersonaID), page, pageSize)
	if err != nil {
		ch.log.Error("GetMessages failed", "phone", rd.Phone, "persona_id", req.PersonaID, "error", err)
		RespondServiceError(c, err)
		return
	}

	payload := gin.H{
		"thread":   result.Thread,
		"messages": result.Messages,
		"total":    result.Total,
	}
	c.JSON(http.StatusOK, attachNewToken(c, payload))
}
