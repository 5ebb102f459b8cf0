package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saathichat/saathi-backend/internal/apperr"
	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/repos"
	"github.com/saathichat/saathi-backend/internal/types"
)

type ReportService interface {
	// Submit files a content report against a bot-authored message. The
	// reported text is snapshotted onto the report row.
	Submit(ctx context.Context, phone, messageID, reason, additionalInfo string) (*types.ContentReport, error)
}

type reportService struct {
	db          *gorm.DB
	log         *logger.Logger
	messageRepo repos.MessageRepo
	reportRepo  repos.ContentReportRepo
}

func NewReportService(db *gorm.DB, log *logger.Logger, messageRepo repos.MessageRepo, reportRepo repos.ContentReportRepo) ReportService {
	serviceLog := log.With("service", "ReportService")
	return &reportService{
		db:          db,
		log:         serviceLog,
		messageRepo: messageRepo,
		reportRepo:  reportRepo,
	}
}

func (rs *reportService) Submit(ctx context.Context, phone, messageID, reason, additionalInfo string) (*types.ContentReport, error) {
	reason = strings.TrimSpace(reason)
	if messageID == "" || reason == "" {
		return nil, fmt.Errorf("%w: messageId and reason are required", apperr.ErrInvalidArgument)
	}
	if !types.ValidReportReason(reason) {
		return nil, fmt.Errorf("%w: reason must be one of: %s", apperr.ErrInvalidArgument, strings.Join(types.ReportReasons, ", "))
	}

	msgID, err := uuid.Parse(messageID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed messageId", apperr.ErrInvalidArgument)
	}

	message, err := rs.messageRepo.GetByID(ctx, nil, msgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reported message: %w", err)
	}
	if message == nil {
		return nil, fmt.Errorf("%w: message %s", apperr.ErrNotFound, messageID)
	}
	if message.Role != types.RoleBot {
		return nil, fmt.Errorf("%w: only AI-generated messages can be reported", apperr.ErrInvalidArgument)
	}

	report := &types.ContentReport{
		MessageID:      message.ID,
		ThreadID:       message.ThreadID,
		ReportedBy:     phone,
		Reason:         reason,
		AdditionalInfo: strings.TrimSpace(additionalInfo),
		MessageText:    message.Text,
		Status:         types.ReportStatusPending,
	}
	created, err := rs.reportRepo.Create(ctx, nil, report)
	if err != nil {
		return nil, fmt.Errorf("failed to create content report: %w", err)
	}
	rs.log.Info("Content report filed", "report_id", created.ID, "message_id", message.ID, "reason", reason)
	return created, nil
}
