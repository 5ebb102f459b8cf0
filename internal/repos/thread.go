package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/types"
)

type ThreadRepo interface {
	// GetOrCreate resolves the single thread for a (phone, persona) pair.
	// Safe under concurrent first contact: the insert is on-conflict-do-nothing
	// against the composite unique index, followed by a re-read.
	GetOrCreate(ctx context.Context, tx *gorm.DB, phone, personaID string) (thread *types.Thread, created bool, err error)
	Get(ctx context.Context, tx *gorm.DB, phone, personaID string) (*types.Thread, error)
	TouchUpdatedAt(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) error
}

type threadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThreadRepo(db *gorm.DB, baseLog *logger.Logger) ThreadRepo {
	repoLog := baseLog.With("repo", "ThreadRepo")
	return &threadRepo{db: db, log: repoLog}
}

func (tr *threadRepo) Get(ctx context.Context, tx *gorm.DB, phone, personaID string) (*types.Thread, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var result types.Thread
	if err := transaction.WithContext(ctx).
		Where("phone = ? AND persona_id = ?", phone, personaID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (tr *threadRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, phone, personaID string) (*types.Thread, bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	existing, err := tr.Get(ctx, transaction, phone, personaID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	now := time.Now().UTC()
	candidate := types.Thread{
		ID:        uuid.New(),
		Phone:     phone,
		PersonaID: personaID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}, {Name: "persona_id"}},
			DoNothing: true,
		}).
		Create(&candidate)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return &candidate, true, nil
	}

	// Lost the race: another request inserted the row between our read and write.
	winner, err := tr.Get(ctx, transaction, phone, personaID)
	if err != nil {
		return nil, false, err
	}
	if winner == nil {
		return nil, false, fmt.Errorf("thread for phone=%s persona=%s vanished after conflict", phone, personaID)
	}
	return winner, false, nil
}

func (tr *threadRepo) TouchUpdatedAt(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Thread{}).
		Where("id = ?", threadID).
		Update("updated_at", time.Now().UTC()).Error
}
