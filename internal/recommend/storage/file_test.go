// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFileStore(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return s, dir
}

func TestFileStoreLayout(t *testing.T) {
	t.Parallel()

	s, dir := newTestFileStore(t)

	raw, err := os.ReadFile(filepath.Join(dir, RegistryFile))
	if err != nil {
		t.Fatalf("registry not created: %v", err)
	}
	var initial map[string]interface{}
	if err := json.Unmarshal(raw, &initial); err != nil {
		t.Fatalf("registry is not JSON: %v", err)
	}
	if initial["current_version"] != "0.0" {
		t.Errorf("initial current_version = %v, want 0.0", initial["current_version"])
	}

	info, err := s.SaveNext(context.Background(), testModel(1))
	if err != nil {
		t.Fatalf("SaveNext() error = %v", err)
	}
	wantPath := filepath.Join(dir, "association_rules_v1.0.json.gz")
	if info.Path != wantPath {
		t.Errorf("Path = %s, want %s", info.Path, wantPath)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Errorf("payload not written: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".gz" && e.Name() != RegistryFile && e.Name() != lockFile {
			t.Errorf("unexpected file %s left in store", e.Name())
		}
	}
}

func TestFileStoreCorruptPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		damage func(path string) error
	}{
		{"truncated", func(path string) error { return os.WriteFile(path, []byte{0x1f}, 0o600) }},
		{"missing", os.Remove},
		{"tampered", func(path string) error {
			payload, _, err := encodePayload(testModel(9))
			if err != nil {
				return err
			}
			return os.WriteFile(path, payload, 0o600)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, _ := newTestFileStore(t)
			ctx := context.Background()

			info, err := s.SaveNext(ctx, testModel(1))
			if err != nil {
				t.Fatalf("SaveNext() error = %v", err)
			}
			if err := tt.damage(info.Path); err != nil {
				t.Fatalf("damage payload: %v", err)
			}
			if _, err := s.Load(ctx, info.Version); !errors.Is(err, ErrModelNotFound) {
				t.Errorf("Load() error = %v, want ErrModelNotFound", err)
			}
		})
	}
}

func TestFileStoreReopen(t *testing.T) {
	t.Parallel()

	s, dir := newTestFileStore(t)
	ctx := context.Background()
	if _, err := s.SaveNext(ctx, testModel(2)); err != nil {
		t.Fatalf("SaveNext() error = %v", err)
	}

	// Simulate a crash mid-write.
	stale := filepath.Join(dir, RegistryFile+tempMarker+"123")
	if err := os.WriteFile(stale, []byte("{"), 0o600); err != nil {
		t.Fatalf("write stale temp: %v", err)
	}

	reopened, err := NewFileStore(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore() reopen error = %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale temp file not removed: %v", err)
	}

	cur, err := reopened.CurrentModelInfo(ctx)
	if err != nil {
		t.Fatalf("CurrentModelInfo() error = %v", err)
	}
	if cur.Version != "1.0" || cur.NumRules != 2 {
		t.Errorf("reopened current = %+v", cur)
	}
	next, _ := reopened.NextVersion(ctx)
	if next != "2.0" {
		t.Errorf("NextVersion() = %s, want 2.0", next)
	}
}

func TestFileStoreCorruptRegistry(t *testing.T) {
	t.Parallel()

	s, dir := newTestFileStore(t)
	if err := os.WriteFile(filepath.Join(dir, RegistryFile), []byte("not json"), 0o600); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	if _, err := s.CurrentModelInfo(context.Background()); !errors.Is(err, ErrRegistryCorrupt) {
		t.Errorf("CurrentModelInfo() error = %v, want ErrRegistryCorrupt", err)
	}
}

func TestFileStoreRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := NewFileStore("", zerolog.Nop()); err == nil {
		t.Error("NewFileStore(\"\") should fail")
	}
}

func TestFileStoreSharedDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stores := make([]*FileStore, 2)
	for i := range stores {
		s, err := NewFileStore(dir, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewFileStore() error = %v", err)
		}
		stores[i] = s
	}

	ctx := context.Background()
	const perStore = 10

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		assigned = make(map[string]int)
	)
	for _, s := range stores {
		for i := 0; i < perStore; i++ {
			wg.Add(1)
			go func(s *FileStore, n int) {
				defer wg.Done()
				info, err := s.SaveNext(ctx, testModel(n))
				if err != nil {
					t.Errorf("SaveNext() error = %v", err)
					return
				}
				mu.Lock()
				assigned[info.Version]++
				mu.Unlock()
			}(s, i+1)
		}
	}
	wg.Wait()

	for v, n := range assigned {
		if n > 1 {
			t.Errorf("version %s assigned %d times", v, n)
		}
	}
	if len(assigned) != 2*perStore {
		t.Errorf("got %d distinct versions, want %d", len(assigned), 2*perStore)
	}

	reg, err := stores[0].Registry(ctx)
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}
	if reg.CurrentVersion != "20.0" {
		t.Errorf("current version = %s, want 20.0", reg.CurrentVersion)
	}
	for v, entry := range reg.Models {
		model, err := stores[1].Load(ctx, v)
		if err != nil {
			t.Errorf("Load(%s) error = %v", v, err)
			continue
		}
		if model.NumRules != entry.NumRules {
			t.Errorf("version %s: payload has %d rules, registry says %d", v, model.NumRules, entry.NumRules)
		}
	}
}

func TestFileStoreReplacesOrphanedPayload(t *testing.T) {
	t.Parallel()

	s, dir := newTestFileStore(t)
	ctx := context.Background()

	// An interrupted save left a payload the registry never named.
	orphan := filepath.Join(dir, "association_rules_v1.0.json.gz")
	if err := os.WriteFile(orphan, []byte("partial"), 0o600); err != nil {
		t.Fatalf("write orphan: %v", err)
	}

	info, err := s.SaveNext(ctx, testModel(3))
	if err != nil {
		t.Fatalf("SaveNext() error = %v", err)
	}
	if info.Version != "1.0" {
		t.Fatalf("Version = %s, want 1.0", info.Version)
	}
	model, err := s.Load(ctx, "1.0")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if model.NumRules != 3 {
		t.Errorf("NumRules = %d, want 3", model.NumRules)
	}
}

func TestWriteFileExclusive(t *testing.T) {
	t.Parallel()

	s, dir := newTestFileStore(t)
	path := filepath.Join(dir, "payload")

	if err := s.writeFileExclusive(path, []byte("first")); err != nil {
		t.Fatalf("writeFileExclusive() error = %v", err)
	}
	if err := s.writeFileExclusive(path, []byte("second")); !errors.Is(err, fs.ErrExist) {
		t.Errorf("second write error = %v, want fs.ErrExist", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "first" {
		t.Errorf("content = %q, want first", got)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "*"+tempMarker+"*"))
	if len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}

// failSyncOn makes the nth directory sync from now on fail.
func failSyncOn(s *FileStore, n int) {
	var mu sync.Mutex
	calls := 0
	s.fsyncDir = func(dir string) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == n {
			return errors.New("input/output error")
		}
		return syncDirectory(dir)
	}
}

func TestFileStoreDirSyncFailure(t *testing.T) {
	t.Parallel()

	t.Run("after registry rename keeps the payload", func(t *testing.T) {
		t.Parallel()
		s, _ := newTestFileStore(t)
		ctx := context.Background()

		// The payload sync is the first call and the registry sync the second.
		failSyncOn(s, 2)
		info, err := s.SaveNext(ctx, testModel(2))
		if err != nil {
			t.Fatalf("SaveNext() error = %v, want success once the registry is live", err)
		}

		cur, err := s.CurrentModelInfo(ctx)
		if err != nil || cur.Version != info.Version {
			t.Fatalf("CurrentModelInfo() = %+v, %v; want %s", cur, err, info.Version)
		}
		if _, err := s.Load(ctx, info.Version); err != nil {
			t.Errorf("Load(current) error = %v", err)
		}
	})

	t.Run("after payload link removes the payload", func(t *testing.T) {
		t.Parallel()
		s, dir := newTestFileStore(t)
		ctx := context.Background()

		failSyncOn(s, 1)
		if _, err := s.SaveNext(ctx, testModel(2)); err == nil {
			t.Fatal("SaveNext() should fail when the payload cannot be synced")
		}
		if _, err := s.CurrentModelInfo(ctx); !errors.Is(err, ErrNoModel) {
			t.Errorf("CurrentModelInfo() error = %v, want ErrNoModel", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "association_rules_v1.0.json.gz")); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("unregistered payload left behind: %v", err)
		}
	})

	t.Run("during prune keeps dropped payloads", func(t *testing.T) {
		t.Parallel()
		s, dir := newTestFileStore(t)
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			if _, err := s.SaveNext(ctx, testModel(1)); err != nil {
				t.Fatalf("SaveNext() error = %v", err)
			}
		}

		failSyncOn(s, 1)
		removed, err := s.Prune(ctx, 1)
		if err != nil || removed != 2 {
			t.Fatalf("Prune() = %d, %v; want 2, nil", removed, err)
		}
		reg, _ := s.Registry(ctx)
		if len(reg.Models) != 1 {
			t.Errorf("registry has %d models, want 1", len(reg.Models))
		}
		if _, err := os.Stat(filepath.Join(dir, "association_rules_v1.0.json.gz")); err != nil {
			t.Errorf("pruned payload removed before the registry was durable: %v", err)
		}
	})
}
