package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/saathichat/saathi-backend/internal/apperr"
	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/repos"
)

// TokenClaims carries only the user identity. No mutable claims: anything that
// can change (fcm token, profile fields) lives on the user row, so tokens never
// go stale in a way that matters.
type TokenClaims struct {
	Phone string `json:"phone"`
	jwt.RegisteredClaims
}

type VerifyResult struct {
	Phone        string
	Token        string
	NewToken     string
	WasRefreshed bool
}

type TokenService interface {
	Issue(phone string) (string, error)
	// Verify is the fast path: signature and expiry only, no DB call.
	Verify(tokenString string) (string, error)
	// VerifyAndRefresh behaves like Verify, except that an expired-but-intact
	// token is recovered inline: decode without verification, confirm the user
	// still exists, reconcile the device fingerprint, mint a replacement.
	// Every other failure is fatal.
	VerifyAndRefresh(ctx context.Context, tokenString, fcmToken string) (*VerifyResult, error)
	GetAccessTTL() time.Duration
}

type tokenService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewTokenService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) TokenService {
	serviceLog := log.With("service", "TokenService")
	return &tokenService{
		db:           db,
		log:          serviceLog,
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (ts *tokenService) Issue(phone string) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		Phone: phone,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(ts.jwtSecretKey))
}

func (ts *tokenService) Verify(tokenString string) (string, error) {
	claims, err := ts.parse(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: %v", apperr.ErrTokenExpired, err)
		}
		return "", fmt.Errorf("%w: %v", apperr.ErrTokenInvalid, err)
	}
	if claims.Phone == "" {
		return "", fmt.Errorf("%w: no phone in token", apperr.ErrTokenInvalid)
	}
	return claims.Phone, nil
}

func (ts *tokenService) VerifyAndRefresh(ctx context.Context, tokenString, fcmToken string) (*VerifyResult, error) {
	phone, err := ts.Verify(tokenString)
	if err == nil {
		return &VerifyResult{Phone: phone, Token: tokenString}, nil
	}
	if !errors.Is(err, apperr.ErrTokenExpired) {
		return nil, err
	}

	// Expired but otherwise intact: recover the identity without verifying.
	claims, decodeErr := ts.decodeUnverified(tokenString)
	if decodeErr != nil || claims.Phone == "" {
		return nil, fmt.Errorf("%w: expired token missing phone", apperr.ErrTokenInvalid)
	}

	// Liveness check against the user table defends against tokens minted for
	// accounts deleted since issuance. This is the only DB call on the hot
	// path, and only on the expired branch.
	user, uErr := ts.userRepo.GetByPhone(ctx, nil, claims.Phone)
	if uErr != nil {
		return nil, fmt.Errorf("failed to load user for token refresh: %w", uErr)
	}
	if user == nil {
		ts.log.Warn("Token refresh rejected, user no longer exists", "phone", claims.Phone)
		return nil, fmt.Errorf("%w: user not found", apperr.ErrTokenInvalid)
	}

	// Device fingerprint reconciliation. A changed fingerprint is usually app
	// reinstall churn, so update the record instead of rejecting. Best-effort:
	// a failed update never blocks the refresh.
	if fcmToken != "" && user.FCMToken != fcmToken {
		if user.FCMToken != "" {
			ts.log.Warn("Device fingerprint changed during token refresh", "phone", claims.Phone)
		}
		if updErr := ts.userRepo.UpdateFCMToken(ctx, nil, claims.Phone, fcmToken); updErr != nil {
			ts.log.Warn("Failed to update device fingerprint", "phone", claims.Phone, "error", updErr)
		}
	}

	newToken, issueErr := ts.Issue(claims.Phone)
	if issueErr != nil {
		return nil, fmt.Errorf("failed to mint refreshed token: %w", issueErr)
	}
	ts.log.Info("Token refreshed", "phone", claims.Phone)
	return &VerifyResult{
		Phone:        claims.Phone,
		Token:        newToken,
		NewToken:     newToken,
		WasRefreshed: true,
	}, nil
}

func (ts *tokenService) GetAccessTTL() time.Duration {
	return ts.accessTTL
}

func (ts *tokenService) parse(tokenString string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(ts.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("unexpected claims type")
	}
	return claims, nil
}

func (ts *tokenService) decodeUnverified(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
