package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/saathichat/saathi-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.User{}, &types.Persona{}, &types.Thread{}, &types.Message{}, &types.ContentReport{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// fakeCompletion is a scripted CompletionClient for service tests.
type fakeCompletion struct {
	mu sync.Mutex

	result *CompletionResult
	err    error

	summary      string
	summarizeErr error

	lastRequest    *CompletionRequest
	summarizeCalls int
}

func (f *fakeCompletion) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reqCopy := req
	f.lastRequest = &reqCopy
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeCompletion) Summarize(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summarizeCalls++
	if f.summarizeErr != nil {
		return "", f.summarizeErr
	}
	return f.summary, nil
}

func (f *fakeCompletion) lastReq() *CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRequest
}

func (f *fakeCompletion) summarizeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summarizeCalls
}
