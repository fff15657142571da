// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/blake3"

	"github.com/just-be-dev/versionedfs/docrepo"
)

// fieldPath is the mapPath under which every tree entry lives in the
// root document: tree[path] = msgpack(Entry).
var fieldPath = []string{"tree"}

// Model is a view over a root document's tree field. It holds no
// state of its own; every method reads or writes through the
// docrepo.Doc handed to it, which the caller obtains from inside a
// docrepo.Repo.Change callback.
type Model struct {
	doc docrepo.Doc
}

// New wraps doc for tree operations.
func New(doc docrepo.Doc) *Model {
	return &Model{doc: doc}
}

// NewReadOnly wraps a historical view (as returned by docrepo.Repo.View)
// for read-only tree queries. Any attempted mutation panics, since a
// view is never a valid mutation target.
func NewReadOnly(ro docrepo.ReadOnly) *Model {
	return &Model{doc: readOnlyDoc{ro}}
}

// readOnlyDoc adapts docrepo.ReadOnly to docrepo.Doc so Model needs
// only one code path for both live documents and historical views.
type readOnlyDoc struct {
	ro docrepo.ReadOnly
}

func (r readOnlyDoc) MapSet([]string, string, []byte) error {
	panic("tree: cannot mutate a read-only view")
}
func (r readOnlyDoc) MapGet(mapPath []string, key string) ([]byte, bool, error) {
	return r.ro.MapGet(mapPath, key)
}
func (r readOnlyDoc) MapDelete([]string, string) error {
	panic("tree: cannot mutate a read-only view")
}
func (r readOnlyDoc) MapKeys(mapPath []string) ([]string, error) {
	return r.ro.MapKeys(mapPath)
}
func (r readOnlyDoc) TextInit(string, string) error {
	panic("tree: cannot mutate a read-only view")
}
func (r readOnlyDoc) TextValue(key string) (string, error) {
	return r.ro.TextValue(key)
}
func (r readOnlyDoc) TextSplice(string, int, int, string) error {
	panic("tree: cannot mutate a read-only view")
}

// Get returns the entry at path, or ok=false if none exists.
func (m *Model) Get(path string) (Entry, bool, error) {
	raw, ok, err := m.doc.MapGet(fieldPath, path)
	if err != nil {
		return Entry{}, false, fmt.Errorf("tree: get %s: %w", path, err)
	}
	if !ok {
		return Entry{}, false, nil
	}
	var e Entry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("tree: decode entry %s: %w", path, err)
	}
	return e, true, nil
}

// Put inserts or replaces the entry at path. The caller is
// responsible for invariants 1-6 (root existence, parent existence,
// basename/parent agreement, exclusive body field, referenced
// documents/blobs existing).
func (m *Model) Put(path string, entry Entry) error {
	entry.Fingerprint = fingerprint(entry)
	raw, err := msgpack.Marshal(entry)
	if err != nil {
		return fmt.Errorf("tree: encode entry %s: %w", path, err)
	}
	if err := m.doc.MapSet(fieldPath, path, raw); err != nil {
		return fmt.Errorf("tree: put %s: %w", path, err)
	}
	return nil
}

// fingerprint hashes entry's identity fields, excluding Fingerprint
// itself and the mutable Metadata block (mtime/ctime churn on every
// touch and would defeat the point of a change-detection digest).
func fingerprint(e Entry) [32]byte {
	h := blake3.New()
	h.Write([]byte(e.Kind))
	h.Write([]byte{0})
	h.Write([]byte(e.Parent))
	h.Write([]byte{0})
	h.Write([]byte(e.Name))
	h.Write([]byte{0})
	h.Write([]byte(e.TextDocID))
	h.Write([]byte{0})
	h.Write([]byte(e.BlobHash))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Remove deletes the entry at path only; recursive removal is a
// caller concern (vfs.Engine walks children itself).
func (m *Model) Remove(path string) error {
	if err := m.doc.MapDelete(fieldPath, path); err != nil {
		return fmt.Errorf("tree: remove %s: %w", path, err)
	}
	return nil
}

// Children returns every entry whose parent equals path, sorted by
// path for stable iteration within one snapshot (spec.md leaves order
// unspecified; a deterministic order makes tests and listings
// reproducible).
func (m *Model) Children(path string) ([]PathEntry, error) {
	paths, err := m.AllPaths()
	if err != nil {
		return nil, err
	}
	var out []PathEntry
	for _, p := range paths {
		e, ok, err := m.Get(p)
		if err != nil {
			return nil, err
		}
		if ok && e.Parent == path && p != path {
			out = append(out, PathEntry{Path: p, Entry: e})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// AllPaths returns every key in the tree map.
func (m *Model) AllPaths() ([]string, error) {
	keys, err := m.doc.MapKeys(fieldPath)
	if err != nil {
		return nil, fmt.Errorf("tree: list paths: %w", err)
	}
	return keys, nil
}

// PathEntry pairs a normalized path with the entry stored at it.
type PathEntry struct {
	Path  string
	Entry Entry
}
