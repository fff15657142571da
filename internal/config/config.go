// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package config loads engine startup configuration from the
// environment, the way the teacher's gateway loads its own.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// StorageDriver selects the persistence backend behind docrepo.Repo.
type StorageDriver string

const (
	DriverMemory StorageDriver = "memory"
	DriverSQLite StorageDriver = "sqlite"
)

// Config captures the engine's runtime configuration. Values are
// sourced from environment variables so they can be injected locally
// via a .env file or via platform secrets.
type Config struct {
	// DataDir is the base directory under which the blob store and the
	// SQLite document database live.
	DataDir string

	// ActorID identifies this process's writes in every CRDT change it
	// commits. Generated once if not supplied, since unlike the
	// gateway's session secret there is no reason to require an
	// operator to pick one.
	ActorID string

	StorageDriver StorageDriver
	DatabasePath  string
	BlobDir       string

	// MaxWalkEntries is the configured entry budget for recursive
	// walks; 0 means unlimited. Load only reads and validates it: no
	// code in this module applies it, and Mkdir/Rm/Cp take their
	// limits per call as a *vfs.WalkLimits.
	MaxWalkEntries int
}

const (
	defaultDataDir        = "./data"
	defaultStorageDriver  = DriverSQLite
	defaultMaxWalkEntries = 0
)

// Load reads configuration from environment variables and validates
// it. Missing or malformed settings are returned as an error so
// startup fails fast rather than producing confusing runtime errors.
func Load() (Config, error) {
	// Best-effort load from common .env locations so `make run` and
	// direct `go run` inside subdirs both work without manual `source`.
	_ = godotenv.Load(".env", "../.env", "../../.env")

	cfg := Config{
		DataDir:       firstNonEmpty(os.Getenv("VFS_DATA_DIR"), defaultDataDir),
		ActorID:       strings.TrimSpace(os.Getenv("VFS_ACTOR_ID")),
		StorageDriver: StorageDriver(strings.ToLower(firstNonEmpty(os.Getenv("VFS_STORAGE_DRIVER"), string(defaultStorageDriver)))),
	}

	if cfg.ActorID == "" {
		cfg.ActorID = uuid.New().String()
	}

	if raw := strings.TrimSpace(os.Getenv("VFS_MAX_WALK_ENTRIES")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid VFS_MAX_WALK_ENTRIES: %q", raw)
		}
		cfg.MaxWalkEntries = n
	} else {
		cfg.MaxWalkEntries = defaultMaxWalkEntries
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	abs, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve VFS_DATA_DIR: %w", err)
	}
	cfg.DataDir = abs
	cfg.BlobDir = filepath.Join(cfg.DataDir, "blobs")
	cfg.DatabasePath = filepath.Join(cfg.DataDir, "vfs.db")

	return cfg, nil
}

func (c Config) validate() error {
	switch c.StorageDriver {
	case DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("invalid VFS_STORAGE_DRIVER %q: must be %q or %q", c.StorageDriver, DriverMemory, DriverSQLite)
	}
	if c.DataDir == "" {
		return errors.New("VFS_DATA_DIR must not be empty")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
