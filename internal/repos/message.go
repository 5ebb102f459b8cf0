package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/types"
)

const (
	defaultPageSize = 100
	// maxPageSize caps client-supplied page sizes so one request cannot scan a
	// whole thread.
	maxPageSize = 500
)

func clampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return defaultPageSize
	}
	if pageSize > maxPageSize {
		return maxPageSize
	}
	return pageSize
}

type MessageRepo interface {
	Append(ctx context.Context, tx *gorm.DB, threadID uuid.UUID, role, text string) (*types.Message, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Message, error)
	// ListPage returns one page in ascending created_at order plus the total
	// count. Page 0 is the oldest page; callers reverse for display if needed.
	ListPage(ctx context.Context, tx *gorm.DB, threadID uuid.UUID, page, pageSize int) ([]*types.Message, int64, error)
	// ListRecent returns the newest n messages, re-sorted ascending, as the
	// model context window.
	ListRecent(ctx context.Context, tx *gorm.DB, threadID uuid.UUID, n int) ([]*types.Message, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	repoLog := baseLog.With("repo", "MessageRepo")
	return &messageRepo{db: db, log: repoLog}
}

func (mr *messageRepo) Append(ctx context.Context, tx *gorm.DB, threadID uuid.UUID, role, text string) (*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	msg := types.Message{
		ID:        uuid.New(),
		ThreadID:  threadID,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := transaction.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (mr *messageRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var result types.Message
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (mr *messageRepo) ListPage(ctx context.Context, tx *gorm.DB, threadID uuid.UUID, page, pageSize int) ([]*types.Message, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if page < 0 {
		page = 0
	}
	pageSize = clampPageSize(pageSize)

	var total int64
	if err := transaction.WithContext(ctx).
		Model(&types.Message{}).
		Where("thread_id = ?", threadID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*types.Message
	if err := transaction.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Offset(page * pageSize).
		Limit(pageSize).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (mr *messageRepo) ListRecent(ctx context.Context, tx *gorm.DB, threadID uuid.UUID, n int) ([]*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if n <= 0 {
		n = 10
	}

	var newest []*types.Message
	if err := transaction.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at DESC").
		Limit(n).
		Find(&newest).Error; err != nil {
		return nil, err
	}

	// Reverse back to chronological order.
	for i, j := 0, len(newest)-1; i < j; i, j = i+1, j-1 {
		newest[i], newest[j] = newest[j], newest[i]
	}
	return newest, nil
}
