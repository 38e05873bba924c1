package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"taskboard/internal/config"
	"taskboard/internal/service"
	"taskboard/internal/store"
)

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("TASKBOARD_GOOGLE_CLIENT_ID", "")
	t.Setenv("TASKBOARD_REDIS_URL", "")
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	return cfg
}

func TestNew_LocalWorkflow(t *testing.T) {
	cfg := newConfig(t)
	ctx := context.Background()

	a, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Tokens.Configured() {
		t.Error("expected no oauth client")
	}
	if a.LocalSession().Authenticated() {
		t.Error("expected no local user yet")
	}

	u, err := a.EnsureLocalUser(ctx)
	if err != nil {
		t.Fatalf("EnsureLocalUser: %v", err)
	}
	if got := a.LocalSession().UserID; got != u.ID {
		t.Errorf("expected local session %q, got %q", u.ID, got)
	}
	again, err := a.EnsureLocalUser(ctx)
	if err != nil || again.ID != u.ID {
		t.Errorf("expected same user, got %q (%v)", again.ID, err)
	}

	b, err := a.Boards.CreateBoard(ctx, a.LocalSession(), "Home", "")
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	// Without calendar credentials a synced task degrades but is still created.
	due := b.CreatedAt.Add(48 * time.Hour)
	b, err = a.Boards.CreateTask(ctx, a.LocalSession(), b.ID, service.TaskForm{Name: "Pay rent", DueDate: &due, IsCalendarSynced: true})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	last := b.Tasks[len(b.Tasks)-1]
	if last.Name != "Pay rent" || last.IsCalendarSynced {
		t.Errorf("unexpected task %+v", last)
	}
}

func TestNew_WithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := newConfig(t)
	cfg.RedisURL = "redis://" + mr.Addr()
	ctx := context.Background()

	a, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if _, ok := a.Store.(*store.Cache); !ok {
		t.Fatalf("expected cached store, got %T", a.Store)
	}
	b, err := a.Boards.CreateBoard(ctx, service.Session{}, "Shared", "")
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	if _, err := a.Boards.GetBoard(ctx, b.ID); err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if !mr.Exists("board:" + b.ID) {
		t.Error("expected board cached in redis")
	}
}

func TestNew_InvalidRedisURL(t *testing.T) {
	cfg := newConfig(t)
	cfg.RedisURL = "://nope"

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected error for invalid redis url")
	}
}
