package store_test

import (
	"context"
	"errors"
	"testing"

	"ceoboard/internal/db"
	"ceoboard/internal/migrate"
	"ceoboard/internal/store"
)

func newSQLiteStore(t *testing.T) *store.SQLite {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.NewSQLite(conn)
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get missing: %v", err)
	}
	if err := s.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || got != "v2" {
		t.Fatalf("get after upsert: %q, %v", got, err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get after delete: %v", err)
	}
	// Deleting an absent key is not an error.
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("double delete: %v", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := store.SetJSON(ctx, mem, "rec", record{Name: "a", Count: 3}); err != nil {
		t.Fatalf("set json: %v", err)
	}
	var got record
	if err := store.GetJSON(ctx, mem, "rec", &got); err != nil {
		t.Fatalf("get json: %v", err)
	}
	if got.Name != "a" || got.Count != 3 {
		t.Fatalf("round trip: %+v", got)
	}

	mem.Set(ctx, "bad", "{not json")
	if err := store.GetJSON(ctx, mem, "bad", &got); err == nil {
		t.Fatal("expected decode error")
	}
	if err := store.GetJSON(ctx, mem, "absent", &got); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("absent key: %v", err)
	}
}

func TestFlags(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	on, err := store.Flag(ctx, mem, store.KeyLoggedIn)
	if err != nil || on {
		t.Fatalf("unset flag: %v, %v", on, err)
	}
	if err := store.SetFlag(ctx, mem, store.KeyLoggedIn, true); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if on, _ = store.Flag(ctx, mem, store.KeyLoggedIn); !on {
		t.Fatal("flag should be on")
	}
	if err := store.SetFlag(ctx, mem, store.KeyLoggedIn, false); err != nil {
		t.Fatalf("clear flag: %v", err)
	}
	if on, _ = store.Flag(ctx, mem, store.KeyLoggedIn); on {
		t.Fatal("flag should be off")
	}
	if _, err := mem.Get(ctx, store.KeyLoggedIn); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cleared flag should delete the key: %v", err)
	}
}
