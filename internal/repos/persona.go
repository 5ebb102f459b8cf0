package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/types"
)

type PersonaRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Persona, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Persona, error)
	UpdateShortSummary(ctx context.Context, tx *gorm.DB, id, summary string) error
}

type personaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPersonaRepo(db *gorm.DB, baseLog *logger.Logger) PersonaRepo {
	repoLog := baseLog.With("repo", "PersonaRepo")
	return &personaRepo{db: db, log: repoLog}
}

func (pr *personaRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Persona, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.Persona
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

func (pr *personaRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Persona, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.Persona
	if err := transaction.WithContext(ctx).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *personaRepo) UpdateShortSummary(ctx context.Context, tx *gorm.DB, id, summary string) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Persona{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"short_summary": summary, "updated_at": time.Now().UTC()}).Error
}
