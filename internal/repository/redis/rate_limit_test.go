package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRepository(t *testing.T) (*RateLimitRepository, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(server.Close)

	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "rl:download", TTL: time.Minute})
	return repo, server
}

func TestRateLimitRepository_CountsWithinWindow(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		if err := repo.RecordAttempt(ctx, "user-1", now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("record attempt %d: %v", i, err)
		}
	}

	count, err := repo.CountAttempts(ctx, "user-1", time.Minute, now.Add(3*time.Second))
	if err != nil {
		t.Fatalf("count attempts: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 attempts, got %d", count)
	}
}

func TestRateLimitRepository_TrimDropsOldAttempts(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	now := time.Now()

	if err := repo.RecordAttempt(ctx, "user-1", now.Add(-2*time.Minute)); err != nil {
		t.Fatalf("record old attempt: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "user-1", now); err != nil {
		t.Fatalf("record fresh attempt: %v", err)
	}

	if err := repo.TrimWindow(ctx, "user-1", time.Minute, now); err != nil {
		t.Fatalf("trim window: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "user-1", time.Hour, now)
	if err != nil {
		t.Fatalf("count attempts: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected the old attempt to be trimmed, got %d", count)
	}
}

func TestRateLimitRepository_OldestAttempt(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	now := time.Now()

	first := now.Add(-30 * time.Second)
	if err := repo.RecordAttempt(ctx, "user-1", first); err != nil {
		t.Fatalf("record attempt: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "user-1", now); err != nil {
		t.Fatalf("record attempt: %v", err)
	}

	oldest, found, err := repo.OldestAttempt(ctx, "user-1", time.Minute, now)
	if err != nil {
		t.Fatalf("oldest attempt: %v", err)
	}
	if !found {
		t.Fatal("expected an attempt inside the window")
	}
	if oldest.UnixNano() != first.UnixNano() {
		t.Fatalf("oldest = %v, want %v", oldest, first)
	}
}

func TestRateLimitRepository_OldestAttemptEmpty(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, found, err := repo.OldestAttempt(context.Background(), "nobody", time.Minute, time.Now())
	if err != nil {
		t.Fatalf("oldest attempt: %v", err)
	}
	if found {
		t.Fatal("expected no attempts for unknown identifier")
	}
}
