package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStorageRoundTrip(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	if err := s.Set(ctx, StorageKeyToken, "tok-1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := s.Get(ctx, StorageKeyToken)
	if err != nil || got != "tok-1" {
		t.Errorf("get = %q, %v", got, err)
	}

	if err := s.Delete(ctx, StorageKeyToken); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	got, _ = s.Get(ctx, StorageKeyToken)
	if got != "" {
		t.Errorf("expected empty after delete, got %q", got)
	}
}

func TestFileStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	ctx := context.Background()

	if err := s.Set(ctx, StorageKeyToken, "tok-1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := s.Set(ctx, StorageKeyUser, `{"id":"u1"}`); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	// A fresh instance over the same dir sees persisted state
	reopened, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("failed to reopen storage: %v", err)
	}
	got, err := reopened.Get(ctx, StorageKeyToken)
	if err != nil || got != "tok-1" {
		t.Errorf("get = %q, %v", got, err)
	}

	if err := reopened.Delete(ctx, StorageKeyToken); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	got, _ = reopened.Get(ctx, StorageKeyToken)
	if got != "" {
		t.Errorf("expected empty after delete, got %q", got)
	}
	got, _ = reopened.Get(ctx, StorageKeyUser)
	if got != `{"id":"u1"}` {
		t.Errorf("unrelated key lost on delete, got %q", got)
	}
}

func TestFileStorageMissingFileFailsOpen(t *testing.T) {
	s, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	got, err := s.Get(context.Background(), StorageKeyToken)
	if err != nil || got != "" {
		t.Errorf("missing file should yield empty value, got %q, %v", got, err)
	}
}

func TestFileStorageCorruptFileFailsOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "state.json"), []byte("not json"), 0o600); err != nil {
		t.Fatalf("failed to corrupt state file: %v", err)
	}

	got, err := s.Get(context.Background(), StorageKeyToken)
	if err != nil || got != "" {
		t.Errorf("corrupt file should fail open, got %q, %v", got, err)
	}

	// Writing after corruption recovers the file
	if err := s.Set(context.Background(), StorageKeyToken, "fresh"); err != nil {
		t.Fatalf("set after corruption failed: %v", err)
	}
	got, _ = s.Get(context.Background(), StorageKeyToken)
	if got != "fresh" {
		t.Errorf("expected recovered value, got %q", got)
	}
}

func TestFileStorageDeleteAbsentKeyIsNoOp(t *testing.T) {
	s, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	if err := s.Delete(context.Background(), "missing"); err != nil {
		t.Errorf("delete of absent key errored: %v", err)
	}
}
