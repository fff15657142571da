// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package tree implements the invariants and operations over the flat
// path-to-entry mapping stored in the root document's "tree" field.
// Every exported operation is meant to be invoked from inside a single
// docrepo.Repo.Change call on the root document, so its post-
// conditions are atomic with respect to readers.
package tree

// Kind discriminates a tree entry's type.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
)

// Metadata carries the POSIX-flavored attributes spec.md stores but
// does not enforce.
type Metadata struct {
	Size  uint64 `msgpack:"size"`
	Mode  uint16 `msgpack:"mode"`
	Mtime int64  `msgpack:"mtime"`
	Ctime int64  `msgpack:"ctime"`
}

// Entry is the record stored at each path in the root document's
// tree map. Exactly one of TextDocID/BlobHash is set for a file entry;
// neither is set for a directory entry.
type Entry struct {
	Kind     Kind     `msgpack:"kind"`
	Parent   string   `msgpack:"parent"`
	Name     string   `msgpack:"name"`
	Metadata Metadata `msgpack:"metadata"`

	TextDocID string `msgpack:"text_doc_id,omitempty"`
	BlobHash  string `msgpack:"blob_hash,omitempty"`

	// Fingerprint is a BLAKE3 digest over the entry's identity fields
	// (kind, parent, name, body pointer), maintained by Put. It lets a
	// caller cheaply detect whether an entry actually changed without
	// comparing every field, the way fstree.TreeEntry.Hash lets a
	// directory walk skip unchanged subtrees.
	Fingerprint [32]byte `msgpack:"fingerprint"`
}

// IsDir reports whether e is a directory entry.
func (e Entry) IsDir() bool { return e.Kind == KindDirectory }

// HasText reports whether e is a file routed through a CRDT text document.
func (e Entry) HasText() bool { return e.TextDocID != "" }

// HasBlob reports whether e is a file routed through the blob store.
func (e Entry) HasBlob() bool { return e.BlobHash != "" }
