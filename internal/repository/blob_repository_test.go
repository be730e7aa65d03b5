package repository

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"todo-tabs/internal/model"
)

func TestBlobRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "nested", "primary.db")

	backend, err := OpenPrimary(dsn)(ctx)
	if err != nil {
		t.Fatalf("OpenPrimary() error = %v", err)
	}
	repo := backend.(*BlobRepository)
	defer repo.Close()

	if _, ok, err := repo.Get(ctx, "categories"); err != nil || ok {
		t.Fatalf("Get() on empty table = %v, %v; want absent", ok, err)
	}

	if err := repo.Set(ctx, "categories", []byte(`["a"]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(ctx, "categories", []byte(`["a","b"]`)); err != nil {
		t.Fatalf("Set() second write error = %v", err)
	}

	data, ok, err := repo.Get(ctx, "categories")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if string(data) != `["a","b"]` {
		t.Errorf("Get() = %q, want latest value", data)
	}

	var count int64
	if err := repo.db.Table("blobs").Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("rows = %d, want 1 after upsert", count)
	}
}

func TestAdapterWithRealBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fallback, err := NewFileStore(filepath.Join(dir, "fallback"))
	if err != nil {
		t.Fatal(err)
	}
	a := NewAdapter(OpenPrimary(filepath.Join(dir, "primary.db")), fallback)

	if err := a.Set(ctx, "todos", []byte(`[]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if a.Mode() != ModePrimary {
		t.Fatalf("Mode() = %v, want primary", a.Mode())
	}
	defer a.Primary().(*BlobRepository).Close()

	data, ok, err := fallback.Get(ctx, "todos")
	if err != nil || !ok || string(data) != `[]` {
		t.Errorf("fallback mirror = %q, %v, %v", data, ok, err)
	}
}

func TestNewDBTunesSQLite(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "tuned.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	defer closeDB(db)

	var mode string
	if err := db.Raw("PRAGMA journal_mode").Scan(&mode).Error; err != nil {
		t.Fatal(err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var timeout int64
	if err := db.Raw("PRAGMA busy_timeout").Scan(&timeout).Error; err != nil {
		t.Fatal(err)
	}
	if timeout != busyTimeout.Milliseconds() {
		t.Errorf("busy_timeout = %d, want %d", timeout, busyTimeout.Milliseconds())
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	if n := sqlDB.Stats().MaxOpenConnections; n != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", n)
	}
}

func TestNewDBInMemory(t *testing.T) {
	db, err := NewDB("file::memory:")
	if err != nil {
		t.Fatalf("NewDB(memory) error = %v", err)
	}
	defer closeDB(db)
	if !db.Migrator().HasTable(&model.Blob{}) {
		t.Error("blobs table not migrated")
	}
}
