// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package docrepo

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/just-be-dev/versionedfs/storage"
)

// Doc is the read/write surface Repo.Change hands to a mutator, and
// that tree.Model and fsrouter.Router use to read and edit document
// state. It is the map and text subset of the crdtDoc interface,
// exported under the name callers outside this package are meant to
// use.
type Doc interface {
	MapSet(mapPath []string, key string, value []byte) error
	MapGet(mapPath []string, key string) ([]byte, bool, error)
	MapDelete(mapPath []string, key string) error
	MapKeys(mapPath []string) ([]string, error)

	TextInit(key string, initial string) error
	TextValue(key string) (string, error)
	TextSplice(key string, pos, deleteCount int, insert string) error
}

// ReadOnly is the read surface of a historical view returned by View.
type ReadOnly interface {
	MapGet(mapPath []string, key string) ([]byte, bool, error)
	MapKeys(mapPath []string) ([]string, error)
	TextValue(key string) (string, error)
}

// Repo owns CRDT documents: it creates new ones, loads existing ones
// by handle, applies mutations atomically, and persists them through
// a storage.Backend. It is the implementation of spec.md's
// DocumentRepo.
type Repo struct {
	backend storage.Backend
	factory crdtFactory
	actor   string

	mu   sync.Mutex
	docs map[Handle]crdtDoc
}

// NewRepo returns a Repo backed by automerge-go documents, persisted
// through backend. actor identifies this process in every change's
// provenance metadata.
func NewRepo(backend storage.Backend, actor string) *Repo {
	return newRepo(backend, actor, automergeFactory{})
}

// NewInProcessRepo returns a Repo backed by the dependency-free
// in-memory document implementation, for callers (and this package's
// own tests) that don't want automerge-go's cgo dependency and don't
// need cross-process durability.
func NewInProcessRepo(backend storage.Backend, actor string) *Repo {
	return newRepo(backend, actor, memoryFactory{})
}

func newRepo(backend storage.Backend, actor string, factory crdtFactory) *Repo {
	if actor == "" {
		actor = uuid.NewString()
	}
	return &Repo{
		backend: backend,
		factory: factory,
		actor:   actor,
		docs:    make(map[Handle]crdtDoc),
	}
}

// Create allocates a fresh, empty document and returns its handle.
// The document is not persisted until the first Save (Change calls
// Save automatically).
func (r *Repo) Create() (Handle, error) {
	id := Handle(uuid.NewString())

	r.mu.Lock()
	r.docs[id] = r.factory.New(r.actor)
	r.mu.Unlock()

	slog.Debug("[docrepo] created document", "handle", id)
	return id, nil
}

// Find loads id from cache or, failing that, from the backend. It
// returns docrepo.ErrDocumentNotFound if id is unknown to both.
func (r *Repo) Find(id Handle) (Handle, error) {
	r.mu.Lock()
	_, cached := r.docs[id]
	r.mu.Unlock()
	if cached {
		return id, nil
	}

	blocks, err := r.backend.Load(string(id))
	if err != nil {
		if err == storage.ErrNotFound {
			return "", ErrDocumentNotFound
		}
		return "", fmt.Errorf("docrepo: load %s: %w", id, err)
	}

	// Blocks are saved as a single compacted snapshot per Save call;
	// the most recent block is authoritative.
	data := blocks[len(blocks)-1].Data

	doc, err := r.factory.Load(r.actor, data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDocumentNotFound, id, err)
	}

	r.mu.Lock()
	r.docs[id] = doc
	r.mu.Unlock()

	return id, nil
}

func (r *Repo) doc(id Handle) (crdtDoc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return d, nil
}

// Change applies mutate atomically: either every edit it makes is
// committed and persisted, or (on error) the document is left
// unchanged from the caller's perspective.
func (r *Repo) Change(id Handle, message string, mutate func(Doc) error) error {
	d, err := r.doc(id)
	if err != nil {
		return err
	}

	// The mutator edits a copy taken at the current heads; the copy
	// replaces the cached document only once it has committed, so a
	// failed mutator leaves the cached document as it was.
	work, ok := d.ForkAtHeads(d.Heads())
	if !ok {
		return fmt.Errorf("docrepo: copy %s at its heads", id)
	}

	if err := mutate(work); err != nil {
		return &MutateError{Err: err}
	}

	if _, _, err := work.Commit(r.actor, message); err != nil {
		return fmt.Errorf("docrepo: commit %s: %w", id, err)
	}

	r.mu.Lock()
	r.docs[id] = work
	r.mu.Unlock()

	return r.Save(id)
}

// Peek returns the live document at id as a read-only view, without
// forking and without any commit — used for plain reads (vfs.Read,
// vfs.Stat, and friends) that must not advance the document's heads.
func (r *Repo) Peek(id Handle) (ReadOnly, error) {
	d, err := r.doc(id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Heads returns the current frontier for id.
func (r *Repo) Heads(id Handle) []ChangeID {
	d, err := r.doc(id)
	if err != nil {
		return nil
	}
	return d.Heads()
}

// History returns every committed change for id in causal order.
func (r *Repo) History(id Handle) []ChangeMeta {
	d, err := r.doc(id)
	if err != nil {
		return nil
	}
	return d.History()
}

// View returns a read-only projection of id at heads. Per spec.md
// §7, an unknown head set returns an empty (nil) view rather than an
// error, so a history browser can probe freely.
func (r *Repo) View(id Handle, heads []ChangeID) (ReadOnly, bool) {
	d, err := r.doc(id)
	if err != nil {
		return nil, false
	}
	fork, ok := d.ForkAtHeads(heads)
	if !ok {
		return nil, false
	}
	return fork, true
}

// Diff computes structural patches between two version points of id.
// Unknown heads on either side yield an empty diff, not an error.
func (r *Repo) Diff(id Handle, from, to []ChangeID) []Patch {
	d, err := r.doc(id)
	if err != nil {
		return nil
	}

	fromDoc, ok := d.ForkAtHeads(from)
	if !ok {
		return nil
	}
	toDoc, ok := d.ForkAtHeads(to)
	if !ok {
		return nil
	}

	return diffDocs(fromDoc, toDoc)
}

// Save persists id's complete current state through the backend. The
// engine always saves a single compacted block per document; this
// keeps Load trivial (take the latest block) at the cost of rewriting
// the whole document on every change, an acceptable trade-off at the
// single-agent-workspace scale this engine targets.
func (r *Repo) Save(id Handle) error {
	d, err := r.doc(id)
	if err != nil {
		return err
	}

	if err := r.backend.Save([]storage.Block{{
		DocumentID: string(id),
		BlockID:    "snapshot",
		Data:       d.Save(),
	}}); err != nil {
		return fmt.Errorf("docrepo: save %s: %w", id, err)
	}
	return nil
}

// Forget evicts id's handle cache entry without touching the backend,
// used when a text document is orphaned by rm/unlink (spec.md §3: the
// document itself is not destroyed, only the cached handle is
// dropped).
func (r *Repo) Forget(id Handle) {
	r.mu.Lock()
	delete(r.docs, id)
	r.mu.Unlock()
}

// Close releases the underlying storage.Backend.
func (r *Repo) Close() error {
	return r.backend.Close()
}
