package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/types"
)

type ContentReportRepo interface {
	Create(ctx context.Context, tx *gorm.DB, report *types.ContentReport) (*types.ContentReport, error)
}

type contentReportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentReportRepo(db *gorm.DB, baseLog *logger.Logger) ContentReportRepo {
	repoLog := baseLog.With("repo", "ContentReportRepo")
	return &contentReportRepo{db: db, log: repoLog}
}

func (cr *contentReportRepo) Create(ctx context.Context, tx *gorm.DB, report *types.ContentReport) (*types.ContentReport, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if report.Status == "" {
		report.Status = types.ReportStatusPending
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	if err := transaction.WithContext(ctx).Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}
