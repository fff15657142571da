// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"path/filepath"
	"testing"

	"github.com/just-be-dev/versionedfs/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"VFS_DATA_DIR", "VFS_ACTOR_ID", "VFS_STORAGE_DRIVER", "VFS_MAX_WALK_ENTRIES"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StorageDriver != config.DriverSQLite {
		t.Fatalf("got driver %q, want %q", cfg.StorageDriver, config.DriverSQLite)
	}
	if cfg.ActorID == "" {
		t.Fatalf("expected a generated ActorID")
	}
	if !filepath.IsAbs(cfg.DataDir) {
		t.Fatalf("expected DataDir to be absolute, got %q", cfg.DataDir)
	}
	if cfg.BlobDir != filepath.Join(cfg.DataDir, "blobs") {
		t.Fatalf("got BlobDir %q", cfg.BlobDir)
	}
	if cfg.DatabasePath != filepath.Join(cfg.DataDir, "vfs.db") {
		t.Fatalf("got DatabasePath %q", cfg.DatabasePath)
	}
}

func TestLoadExplicitActorIDPreserved(t *testing.T) {
	clearEnv(t)
	t.Setenv("VFS_ACTOR_ID", "actor-1")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ActorID != "actor-1" {
		t.Fatalf("got %q, want actor-1", cfg.ActorID)
	}
}

func TestLoadMemoryDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("VFS_STORAGE_DRIVER", "memory")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StorageDriver != config.DriverMemory {
		t.Fatalf("got %q, want memory", cfg.StorageDriver)
	}
}

func TestLoadInvalidDriverRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("VFS_STORAGE_DRIVER", "postgres")
	if _, err := config.Load(); err == nil {
		t.Fatalf("expected an error for an unknown storage driver")
	}
}

func TestLoadInvalidMaxWalkEntriesRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("VFS_MAX_WALK_ENTRIES", "not-a-number")
	if _, err := config.Load(); err == nil {
		t.Fatalf("expected an error for a malformed VFS_MAX_WALK_ENTRIES")
	}
}

func TestLoadDataDirRespected(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("VFS_DATA_DIR", dir)
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	resolved, _ := filepath.Abs(dir)
	if cfg.DataDir != resolved {
		t.Fatalf("got %q, want %q", cfg.DataDir, resolved)
	}
}
