package repos

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/saathichat/saathi-backend/internal/logger"
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

func TestThreadGetOrCreateIdempotent(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	repo := NewThreadRepo(db, log)
	ctx := context.Background()

	first, created, err := repo.GetOrCreate(ctx, nil, "+911234567890", "riya")
	if err != nil {
		t.Fatalf("first GetOrCreate failed: %v", err)
	}
	if !created {
		t.Fatal("first GetOrCreate should report created=true")
	}

	second, created, err := repo.GetOrCreate(ctx, nil, "+911234567890", "riya")
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if created {
		t.Fatal("second GetOrCreate should report created=false")
	}
	if first.ID != second.ID {
		t.Fatalf("expected same thread, got %s and %s", first.ID, second.ID)
	}

	other, created, err := repo.GetOrCreate(ctx, nil, "+911234567890", "kabir")
	if err != nil {
		t.Fatalf("GetOrCreate for other persona failed: %v", err)
	}
	if !created || other.ID == first.ID {
		t.Fatal("different persona should get its own thread")
	}
}

func TestThreadGetMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewThreadRepo(db, logger.NewNop())

	thread, err := repo.Get(context.Background(), nil, "+910000000000", "nobody")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if thread != nil {
		t.Fatalf("expected nil for missing thread, got %+v", thread)
	}
}

func TestMessagePagingAscending(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	threads := NewThreadRepo(db, log)
	messages := NewMessageRepo(db, log)
	ctx := context.Background()

	thread, _, err := threads.GetOrCreate(ctx, nil, "+911111111111", "riya")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	// Insert with controlled timestamps so ordering is unambiguous.
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		msg := types.Message{
			ThreadID:  thread.ID,
			Role:      types.RoleUser,
			Text:      fmt.Sprintf("msg-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if _, err := messages.Append(ctx, nil, thread.ID, msg.Role, msg.Text); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := db.Model(&types.Message{}).
			Where("thread_id = ? AND text = ?", thread.ID, msg.Text).
			Update("created_at", msg.CreatedAt).Error; err != nil {
			t.Fatalf("failed to backdate message: %v", err)
		}
	}

	page0, total, err := messages.ListPage(ctx, nil, thread.ID, 0, 3)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	if total != 7 {
		t.Fatalf("expected total 7, got %d", total)
	}
	if len(page0) != 3 || page0[0].Text != "msg-0" || page0[2].Text != "msg-2" {
		t.Fatalf("unexpected page 0: %v", texts(page0))
	}

	page2, _, err := messages.ListPage(ctx, nil, thread.ID, 2, 3)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	if len(page2) != 1 || page2[0].Text != "msg-6" {
		t.Fatalf("unexpected last page: %v", texts(page2))
	}
}

func TestClampPageSize(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: defaultPageSize},
		{in: -5, want: defaultPageSize},
		{in: 1, want: 1},
		{in: 50, want: 50},
		{in: maxPageSize, want: maxPageSize},
		{in: maxPageSize + 1, want: maxPageSize},
		{in: 1000000, want: maxPageSize},
	}
	for _, tt := range tests {
		if got := clampPageSize(tt.in); got != tt.want {
			t.Fatalf("clampPageSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMessageListRecentWindow(t *testing.T) {
	db := newTestDB(t)
	log := logger.NewNop()
	threads := NewThreadRepo(db, log)
	messages := NewMessageRepo(db, log)
	ctx := context.Background()

	thread, _, err := threads.GetOrCreate(ctx, nil, "+912222222222", "riya")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		text := fmt.Sprintf("m%d", i)
		if _, err := messages.Append(ctx, nil, thread.ID, types.RoleBot, text); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := db.Model(&types.Message{}).
			Where("thread_id = ? AND text = ?", thread.ID, text).
			Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error; err != nil {
			t.Fatalf("failed to backdate message: %v", err)
		}
	}

	recent, err := messages.ListRecent(ctx, nil, thread.ID, 3)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(recent))
	}
	// Newest 3, chronological order.
	want := []string{"m2", "m3", "m4"}
	for i, m := range recent {
		if m.Text != want[i] {
			t.Fatalf("position %d: got %s, want %s (%v)", i, m.Text, want[i], texts(recent))
		}
	}
}

func TestUserUpsertUpdatesExisting(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepo(db, logger.NewNop())
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, nil, &types.User{Phone: "+913333333333", FCMToken: "fcm-1", City: "Delhi"}); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	if _, err := repo.Upsert(ctx, nil, &types.User{Phone: "+913333333333", FCMToken: "fcm-2", City: "Mumbai"}); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, err := repo.GetByPhone(ctx, nil, "+913333333333")
	if err != nil {
		t.Fatalf("GetByPhone failed: %v", err)
	}
	if got == nil || got.FCMToken != "fcm-2" || got.City != "Mumbai" {
		t.Fatalf("upsert did not overwrite: %+v", got)
	}

	var count int64
	if err := db.Model(&types.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 user row, got %d", count)
	}
}

func texts(msgs []*types.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}
