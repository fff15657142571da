// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"path/filepath"
	"testing"
)

func testBackends(t *testing.T) map[string]Backend {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sq.Close() })

	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"sqlite": sq,
	}
}

func TestBackendSaveLoad(t *testing.T) {
	for name, b := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := b.Save([]Block{
				{DocumentID: "doc1", BlockID: "b1", Data: []byte("one")},
				{DocumentID: "doc1", BlockID: "b2", Data: []byte("two")},
			}); err != nil {
				t.Fatalf("Save: %v", err)
			}

			blocks, err := b.Load("doc1")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(blocks) != 2 {
				t.Fatalf("Load returned %d blocks, want 2", len(blocks))
			}
			if string(blocks[0].Data) != "one" || string(blocks[1].Data) != "two" {
				t.Fatalf("Load returned blocks out of order: %+v", blocks)
			}
		})
	}
}

func TestBackendLoadUnknown(t *testing.T) {
	for name, b := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := b.Load("nope"); err != ErrNotFound {
				t.Fatalf("Load(unknown) = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestBackendDelete(t *testing.T) {
	for name, b := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			_ = b.Save([]Block{{DocumentID: "doc1", BlockID: "b1", Data: []byte("x")}})
			if err := b.Delete("doc1"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := b.Load("doc1"); err != ErrNotFound {
				t.Fatalf("Load after Delete = %v, want ErrNotFound", err)
			}
			if err := b.Delete("doc1"); err != nil {
				t.Fatalf("Delete of unknown id should be a no-op: %v", err)
			}
		})
	}
}

func TestBackendListDocuments(t *testing.T) {
	for name, b := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			_ = b.Save([]Block{{DocumentID: "d1", BlockID: "b1", Data: []byte("x")}})
			_ = b.Save([]Block{{DocumentID: "d2", BlockID: "b1", Data: []byte("y")}})

			ids, err := b.ListDocuments()
			if err != nil {
				t.Fatalf("ListDocuments: %v", err)
			}
			if len(ids) != 2 {
				t.Fatalf("ListDocuments returned %d ids, want 2: %v", len(ids), ids)
			}
		})
	}
}
