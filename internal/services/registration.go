package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/saathichat/saathi-backend/internal/apperr"
	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/repos"
	"github.com/saathichat/saathi-backend/internal/types"
)

type RegistrationInput struct {
	Phone    string
	FCMToken string
	Gender   string
	Age      int
	City     string
}

// RegistrationService turns a device registration into a user row and an
// initial bearer credential (the client's app_key). The encrypted transport
// the mobile app wraps this payload in is handled before this layer.
type RegistrationService interface {
	Register(ctx context.Context, input RegistrationInput) (appKey string, err error)
}

type registrationService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	tokenService TokenService
}

func NewRegistrationService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, tokenService TokenService) RegistrationService {
	serviceLog := log.With("service", "RegistrationService")
	return &registrationService{
		db:           db,
		log:          serviceLog,
		userRepo:     userRepo,
		tokenService: tokenService,
	}
}

func (rs *registrationService) Register(ctx context.Context, input RegistrationInput) (string, error) {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return "", fmt.Errorf("%w: phone is required", apperr.ErrInvalidArgument)
	}

	user := &types.User{
		Phone:    phone,
		FCMToken: strings.TrimSpace(input.FCMToken),
		Gender:   strings.TrimSpace(input.Gender),
		Age:      input.Age,
		City:     strings.TrimSpace(input.City),
	}
	if _, err := rs.userRepo.Upsert(ctx, nil, user); err != nil {
		return "", fmt.Errorf("failed to upsert user: %w", err)
	}

	appKey, err := rs.tokenService.Issue(phone)
	if err != nil {
		return "", fmt.Errorf("failed to issue app key: %w", err)
	}
	rs.log.Info("Device registered", "phone", phone, "has_fcm_token", user.FCMToken != "")
	return appKey, nil
}
