package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/requestdata"
	"github.com/saathichat/saathi-backend/internal/services"
)

type ReportHandler struct {
	log           *logger.Logger
	reportService services.ReportService
}

func NewReportHandler(log *logger.Logger, reportService services.ReportService) *ReportHandler {
	return &ReportHandler{log: log.With("handler", "ReportHandler"), reportService: reportService}
}

func (rh *ReportHandler) Submit(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	var req struct {
		MessageID      string `json:"messageId"`
		Reason         string `json:"reason"`
		AdditionalInfo string `json:"additionalInfo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	report, err := rh.reportService.Submit(c.Request.Context(), rd.Phone, req.MessageID, req.Reason, req.AdditionalInfo)
	if err != nil {
		rh.log.Warn("Report submission rejected", "phone", rd.Phone, "error", err)
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attachNewToken(c, gin.H{
		"success":  true,
		"reportId": report.ID,
	}))
}
