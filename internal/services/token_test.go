package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/saathichat/saathi-backend/internal/apperr"
	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/repos"
	"github.com/saathichat/saathi-backend/internal/types"
)

const testSecret = "test-secret"

func TestVerifyAndRefreshValidToken(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	userRepo := repos.NewUserRepo(db, log)
	ts := NewTokenService(db, log, userRepo, testSecret, time.Hour)

	token, err := ts.Issue("+919876543210")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	res, err := ts.VerifyAndRefresh(context.Background(), token, "")
	if err != nil {
		t.Fatalf("VerifyAndRefresh failed: %v", err)
	}
	if res.Phone != "+919876543210" {
		t.Fatalf("wrong phone: %s", res.Phone)
	}
	if res.WasRefreshed {
		t.Fatal("valid token should not be refreshed")
	}
	if res.Token != token || res.NewToken != "" {
		t.Fatal("valid token should pass through unchanged")
	}
}

func TestVerifyAndRefreshExpiredLiveUser(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	userRepo := repos.NewUserRepo(db, log)
	ctx := context.Background()

	if _, err := userRepo.Upsert(ctx, nil, &types.User{Phone: "+919876543210", FCMToken: "old-fcm"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// A service with a negative TTL mints already-expired tokens.
	expiredIssuer := NewTokenService(db, log, userRepo, testSecret, -time.Hour)
	expired, err := expiredIssuer.Issue("+919876543210")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	ts := NewTokenService(db, log, userRepo, testSecret, time.Hour)
	if _, err := ts.Verify(expired); !errors.Is(err, apperr.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired from Verify, got %v", err)
	}

	res, err := ts.VerifyAndRefresh(ctx, expired, "new-fcm")
	if err != nil {
		t.Fatalf("VerifyAndRefresh failed: %v", err)
	}
	if !res.WasRefreshed {
		t.Fatal("expired token for a live user should be refreshed")
	}
	if res.NewToken == "" || res.NewToken == expired {
		t.Fatal("refresh should mint a new token")
	}

	// The replacement must verify cleanly.
	phone, err := ts.Verify(res.NewToken)
	if err != nil {
		t.Fatalf("refreshed token does not verify: %v", err)
	}
	if phone != "+919876543210" {
		t.Fatalf("refreshed token carries wrong phone: %s", phone)
	}

	// Device fingerprint reconciled during refresh.
	user, err := userRepo.GetByPhone(ctx, nil, "+919876543210")
	if err != nil {
		t.Fatalf("GetByPhone failed: %v", err)
	}
	if user.FCMToken != "new-fcm" {
		t.Fatalf("fcm token not reconciled: %s", user.FCMToken)
	}
}

func TestVerifyAndRefreshExpiredMissingUser(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	userRepo := repos.NewUserRepo(db, log)

	expiredIssuer := NewTokenService(db, log, userRepo, testSecret, -time.Hour)
	expired, err := expiredIssuer.Issue("+910000000001")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	ts := NewTokenService(db, log, userRepo, testSecret, time.Hour)
	_, err = ts.VerifyAndRefresh(context.Background(), expired, "")
	if !errors.Is(err, apperr.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for deleted user, got %v", err)
	}
}

func TestVerifyAndRefreshBadSignature(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	userRepo := repos.NewUserRepo(db, log)

	if _, err := userRepo.Upsert(context.Background(), nil, &types.User{Phone: "+919876543210"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	forged := NewTokenService(db, log, userRepo, "other-secret", time.Hour)
	token, err := forged.Issue("+919876543210")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	ts := NewTokenService(db, log, userRepo, testSecret, time.Hour)
	_, err = ts.VerifyAndRefresh(context.Background(), token, "")
	if !errors.Is(err, apperr.ErrTokenInvalid) {
		t.Fatalf("bad signature must never refresh, got %v", err)
	}
}

func TestVerifyGarbageToken(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	ts := NewTokenService(db, log, repos.NewUserRepo(db, log), testSecret, time.Hour)

	if _, err := ts.Verify("not.a.token"); !errors.Is(err, apperr.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
