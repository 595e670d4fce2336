package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"cftrigger/internal/config"
	"cftrigger/internal/storage/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(config.DatabaseConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCloseNil(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Errorf("Expected nil error for nil store, got %v", err)
	}
}

func TestOpen_Drivers(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Driver: "none"}); !errors.Is(err, ErrDisabled) {
		t.Errorf("Expected ErrDisabled, got %v", err)
	}
	if _, err := Open(config.DatabaseConfig{Driver: "mysql"}); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestInsertAndGetInvocation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 10, 0, 0, 123456000, time.UTC)
	inv := models.Invocation{
		ID:         "inv-1",
		StartedAt:  started,
		FinishedAt: started.Add(15 * time.Second),
		Source:     models.SourceAPI,
		APIKey:     "key-1",
		Mode:       models.ModeGit,
		Target:     "/acme/widgets.git",
		ServiceID:  "svc-1",
		Branch:     "main",
		BuildID:    "b-1",
		ProgressID: "p-1",
		Status:     "success",
		Passed:     true,
		URL:        "https://g.codefresh.io/build/b-1",
		Polls:      4,
	}
	if err := store.InsertInvocation(ctx, inv); err != nil {
		t.Fatalf("InsertInvocation failed: %v", err)
	}

	got, err := store.GetInvocation(ctx, "inv-1")
	if err != nil {
		t.Fatalf("GetInvocation failed: %v", err)
	}
	if !got.StartedAt.Equal(inv.StartedAt) {
		t.Errorf("Expected started_at %v, got %v", inv.StartedAt, got.StartedAt)
	}
	if got.Duration() != 15*time.Second {
		t.Errorf("Expected duration 15s, got %v", got.Duration())
	}
	if !got.Passed || got.Polls != 4 || got.ServiceID != "svc-1" || got.APIKey != "key-1" {
		t.Errorf("Unexpected invocation: %+v", got)
	}
}

func TestGetInvocation_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetInvocation(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetInvocations_Pagination(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		inv := models.Invocation{
			ID:        fmt.Sprintf("inv-%d", i),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Source:    models.SourceCLI,
			Mode:      models.ModeExplicit,
			Target:    "widgets",
			Error:     "boom",
		}
		if err := store.InsertInvocation(ctx, inv); err != nil {
			t.Fatalf("InsertInvocation failed: %v", err)
		}
	}

	page, err := store.GetInvocations(ctx, 2, 0)
	if err != nil {
		t.Fatalf("GetInvocations failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("Expected 2 invocations, got %d", len(page))
	}
	if page[0].ID != "inv-4" || page[1].ID != "inv-3" {
		t.Errorf("Expected newest first, got %s, %s", page[0].ID, page[1].ID)
	}
	if page[0].Passed {
		t.Error("Expected failed invocation")
	}
	if !page[0].FinishedAt.IsZero() || page[0].Duration() != 0 {
		t.Errorf("Expected unset finish time, got %v", page[0].FinishedAt)
	}

	rest, err := store.GetInvocations(ctx, 10, 4)
	if err != nil {
		t.Fatalf("GetInvocations failed: %v", err)
	}
	if len(rest) != 1 || rest[0].ID != "inv-0" {
		t.Errorf("Expected oldest invocation on last page, got %+v", rest)
	}
}

func TestGetInvocations_Empty(t *testing.T) {
	store := openTestStore(t)

	invocations, err := store.GetInvocations(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("GetInvocations failed: %v", err)
	}
	if invocations == nil || len(invocations) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", invocations)
	}
}

func TestPing(t *testing.T) {
	store := openTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: "postgres"}
	if got := pg.rebind("SELECT ? , ?"); got != "SELECT $1 , $2" {
		t.Errorf("Unexpected postgres query: %s", got)
	}
	lite := &Store{driver: "sqlite3"}
	if got := lite.rebind("SELECT ?"); got != "SELECT ?" {
		t.Errorf("Unexpected sqlite query: %s", got)
	}
}

func TestParseTime(t *testing.T) {
	if !parseTime("").IsZero() {
		t.Error("Expected zero time for empty string")
	}
	if got := parseTime("2026-03-01 10:00:00"); got.Hour() != 10 {
		t.Errorf("Expected legacy layout to parse, got %v", got)
	}
	if !parseTime("garbage").IsZero() {
		t.Error("Expected zero time for unparseable value")
	}
}
