// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package fsrouter decides whether a file body is text or binary and
// routes it to the matching storage tier: a per-file CRDT text
// document for text, the content-addressed blob store for binary.
package fsrouter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/just-be-dev/versionedfs/blobstore"
	"github.com/just-be-dev/versionedfs/docrepo"
	"github.com/just-be-dev/versionedfs/tree"
)

// Kind discriminates how a body is classified.
type Kind string

const (
	KindText   Kind = "text"
	KindBinary Kind = "binary"
)

// Classify inspects raw bytes as spec.md's "caller passed bytes" case:
// strict UTF-8 decoding determines text vs binary.
func Classify(content []byte) (Kind, string) {
	if utf8.Valid(content) {
		return KindText, string(content)
	}
	return KindBinary, ""
}

// Result is the outcome of routing one body write: the body pointer
// to store on the tree entry, the observed size, and any follow-up
// actions the caller (vfs.Engine) must perform once its own tree
// commit succeeds.
type Result struct {
	TextDocID string
	BlobHash  string
	Size      uint64

	// EvictTextHandle is set when a prior text document is no longer
	// referenced by the entry being written (binary transition); the
	// CRDT document itself is not deleted, only its cached handle.
	EvictTextHandle bool

	// DeleteBlobHash is set to a prior blob hash that should be
	// deleted once the tree commit referencing the new body succeeds
	// (text transition). Left empty when there is nothing to delete.
	DeleteBlobHash string
}

// Router routes bodies between BlobStore and per-file CRDT text
// documents.
type Router struct {
	blobs *blobstore.Store
	docs  *docrepo.Repo
}

// New builds a Router over blobs and docs.
func New(blobs *blobstore.Store, docs *docrepo.Repo) *Router {
	return &Router{blobs: blobs, docs: docs}
}

// WriteBinary routes raw bytes to the blob store, per the `kind ==
// binary` branch of spec.md §4.6's Write algorithm.
func (r *Router) WriteBinary(raw []byte, existing *tree.Entry) (Result, error) {
	hash := sha256Hex(raw)
	if err := r.blobs.Set(hash, raw); err != nil {
		return Result{}, fmt.Errorf("fsrouter: write binary body: %w", err)
	}

	res := Result{BlobHash: hash, Size: uint64(len(raw))}
	if existing != nil && existing.HasText() {
		res.EvictTextHandle = true
	}
	return res, nil
}

// WriteText routes decoded text to a per-file CRDT text document,
// per the `kind == text` branch of spec.md §4.6's Write algorithm:
// merging character-level splices into an existing document, or
// allocating a fresh one. t is the target content after this write.
func (r *Router) WriteText(t string, existing *tree.Entry) (Result, error) {
	var docID docrepo.Handle

	if existing != nil && existing.HasText() {
		docID = docrepo.Handle(existing.TextDocID)
		if _, err := r.docs.Find(docID); err != nil {
			return Result{}, fmt.Errorf("fsrouter: load text document %s: %w", docID, err)
		}
		if err := r.docs.Change(docID, "update content", func(d docrepo.Doc) error {
			return mergeText(d, t)
		}); err != nil {
			return Result{}, fmt.Errorf("fsrouter: merge text body: %w", err)
		}
	} else {
		id, err := r.docs.Create()
		if err != nil {
			return Result{}, fmt.Errorf("fsrouter: allocate text document: %w", err)
		}
		docID = id
		if err := r.docs.Change(docID, "initial content", func(d docrepo.Doc) error {
			return d.TextInit("content", t)
		}); err != nil {
			return Result{}, fmt.Errorf("fsrouter: initialize text body: %w", err)
		}
	}

	res := Result{TextDocID: string(docID), Size: uint64(len(t))}
	if existing != nil && existing.HasBlob() {
		res.DeleteBlobHash = existing.BlobHash
	}
	return res, nil
}

// mergeText splices the CRDT text field at "content" so it reads t,
// without replacing the whole value — see diff.go for the Myers-diff
// minimal edit script this computes.
func mergeText(d docrepo.Doc, t string) error {
	current, err := d.TextValue("content")
	if err != nil {
		// Field missing (shouldn't happen for an existing text doc,
		// but treat it as starting from empty rather than failing).
		current = ""
	}
	for _, sp := range diffSplices(current, t) {
		if err := d.TextSplice("content", sp.Pos, sp.DeleteCount, sp.Insert); err != nil {
			return err
		}
	}
	return nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
