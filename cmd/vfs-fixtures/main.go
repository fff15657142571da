// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Command vfs-fixtures exercises a versionedfs engine against a
// synthetic workload and writes a JSON summary, the way cxdb-fstree-
// fixtures exercises fstree.Capture against a synthetic workspace.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/just-be-dev/versionedfs/blobstore"
	"github.com/just-be-dev/versionedfs/docrepo"
	"github.com/just-be-dev/versionedfs/internal/config"
	"github.com/just-be-dev/versionedfs/storage"
	"github.com/just-be-dev/versionedfs/vfs"
)

// Fixture summarizes one exercised engine for downstream consumers
// (interop tests in other languages, manual inspection).
type Fixture struct {
	Name       string   `json:"name"`
	RootHeads  []string `json:"root_heads"`
	Paths      []string `json:"paths"`
	GreetHeads []string `json:"greet_heads"`
	GreetDiff  int      `json:"greet_diff_patch_count"`
	Stats      vfs.Stats `json:"stats"`
	Notes      string   `json:"notes,omitempty"`
}

func main() {
	outDir := flag.String("out", "./fixtures", "output directory for the generated fixture")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	fixture, err := run(cfg)
	if err != nil {
		slog.Error("run", "err", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}
	path := filepath.Join(*outDir, fixture.Name+".json")
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal %s: %v\n", fixture.Name, err)
		os.Exit(1)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
		os.Exit(1)
	}
	slog.Info("wrote fixture", "path", path)
}

func run(cfg config.Config) (Fixture, error) {
	backend, blobs, err := openBackends(cfg)
	if err != nil {
		return Fixture{}, err
	}
	defer backend.Close()

	repo := docrepo.NewRepo(backend, cfg.ActorID)
	defer repo.Close()

	engine, err := vfs.OpenNew(repo, blobs)
	if err != nil {
		return Fixture{}, fmt.Errorf("open engine: %w", err)
	}
	defer engine.Close()

	if err := seedWorkspace(engine); err != nil {
		return Fixture{}, fmt.Errorf("seed workspace: %w", err)
	}

	greetHeads := engine.FileHeads("/greeting.txt")
	if err := engine.Write("/greeting.txt", []byte("hello world, revised")); err != nil {
		return Fixture{}, fmt.Errorf("revise greeting: %w", err)
	}
	diff := engine.Diff("/greeting.txt", greetHeads, engine.FileHeads("/greeting.txt"))

	paths, err := listAll(engine)
	if err != nil {
		return Fixture{}, err
	}

	snap, err := engine.Snapshot("vfs-fixtures run")
	if err != nil {
		return Fixture{}, fmt.Errorf("snapshot: %w", err)
	}

	return Fixture{
		Name:       "vfs_basic",
		RootHeads:  headsToHex(engine.RootHeads()),
		Paths:      paths,
		GreetHeads: headsToHex(engine.FileHeads("/greeting.txt")),
		GreetDiff:  len(diff),
		Stats:      snap.Stats,
		Notes:      "Generated from a deterministic synthetic workload.",
	}, nil
}

func openBackends(cfg config.Config) (storage.Backend, *blobstore.Store, error) {
	var backend storage.Backend
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("mkdir data dir: %w", err)
		}
		sqliteBackend, err := storage.OpenSQLite(cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		backend = sqliteBackend
	default:
		backend = storage.NewMemoryBackend()
	}

	blobs, err := blobstore.Open(cfg.BlobDir)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("open blobstore: %w", err)
	}
	return backend, blobs, nil
}

func seedWorkspace(e *vfs.Engine) error {
	if err := e.Write("/greeting.txt", []byte("hello world")); err != nil {
		return err
	}
	if err := e.Mkdir("/src", true, nil); err != nil {
		return err
	}
	if err := e.Write("/src/main.go", []byte("package main\n")); err != nil {
		return err
	}
	if err := e.Write("/src/lib.bin", []byte{0x00, 0x01, 0x02, 0xff}); err != nil {
		return err
	}
	return e.Mv("/src/lib.bin", "/src/lib.dat")
}

func listAll(e *vfs.Engine) ([]string, error) {
	var out []string
	var walk func(path string) error
	walk = func(path string) error {
		entries, err := e.Readdir(path)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			child := path
			if child == "/" {
				child += entry.Name
			} else {
				child += "/" + entry.Name
			}
			out = append(out, child)
			if entry.IsDir {
				if err := walk(child); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk("/"); err != nil {
		return nil, err
	}
	return out, nil
}

func headsToHex(heads []docrepo.ChangeID) []string {
	out := make([]string, len(heads))
	for i, h := range heads {
		out[i] = string(h)
	}
	return out
}
