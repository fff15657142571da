// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package vfs implements VersionedFs: the public engine that answers
// filesystem requests (read/write/stat/list/mkdir/rm/mv/cp/chmod/
// utimes) and history requests (snapshot/heads/history/view-at/diff)
// over a CRDT-backed root document, per-file text documents, and a
// content-addressed blob store.
package vfs

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/just-be-dev/versionedfs/blobstore"
	"github.com/just-be-dev/versionedfs/docrepo"
	"github.com/just-be-dev/versionedfs/fsrouter"
	"github.com/just-be-dev/versionedfs/pathutil"
	"github.com/just-be-dev/versionedfs/tree"
)

const (
	defaultDirMode  uint16 = 0o755
	defaultFileMode uint16 = 0o644
)

type engineState int

const (
	stateFresh engineState = iota
	stateOpen
	stateClosed
)

// Engine is the implementation of VersionedFs. It owns the root
// document handle and routes bodies through fsrouter to either
// DocumentRepo (text) or BlobStore (binary). It is not safe for
// concurrent use by more than one task, per spec.md §5's single-
// writer scheduling model.
type Engine struct {
	repo   *docrepo.Repo
	blobs  *blobstore.Store
	router *fsrouter.Router
	root   docrepo.Handle
	state  engineState
}

// OpenNew allocates a fresh root document, initializes "/" as a
// directory, and returns an Engine in the Open state.
func OpenNew(repo *docrepo.Repo, blobs *blobstore.Store) (*Engine, error) {
	root, err := repo.Create()
	if err != nil {
		return nil, newErr(KindStorageFault, "open_new", "/", err)
	}

	now := time.Now().Unix()
	err = repo.Change(root, "init filesystem", func(d docrepo.Doc) error {
		return tree.New(d).Put(pathutil.Root, tree.Entry{
			Kind: tree.KindDirectory,
			Metadata: tree.Metadata{
				Mode:  defaultDirMode,
				Mtime: now,
				Ctime: now,
			},
		})
	})
	if err != nil {
		return nil, newErr(KindStorageFault, "open_new", "/", err)
	}

	slog.Info("[vfs] opened new filesystem", "handle", root)
	return &Engine{
		repo:   repo,
		blobs:  blobs,
		router: fsrouter.New(blobs, repo),
		root:   root,
		state:  stateOpen,
	}, nil
}

// OpenExisting loads an existing root document by handle, without any
// tree mutation.
func OpenExisting(repo *docrepo.Repo, blobs *blobstore.Store, root docrepo.Handle) (*Engine, error) {
	if _, err := repo.Find(root); err != nil {
		return nil, newErr(KindDocumentNotFound, "open_existing", "/", err)
	}

	slog.Info("[vfs] reopened filesystem", "handle", root)
	return &Engine{
		repo:   repo,
		blobs:  blobs,
		router: fsrouter.New(blobs, repo),
		root:   root,
		state:  stateOpen,
	}, nil
}

// RootHandle returns the durable identifier callers should persist
// externally to reopen this filesystem later.
func (e *Engine) RootHandle() docrepo.Handle { return e.root }

// Close transitions the engine to Closed; all subsequent operations
// fail with ErrEngineClosed. Close does not close the underlying
// DocumentRepo or BlobStore — those are owned by the caller, which may
// share them across engines.
func (e *Engine) Close() error {
	e.state = stateClosed
	return nil
}

func (e *Engine) checkOpen(op, path string) error {
	if e.state != stateOpen {
		return newErr(KindEngineClosed, op, path, nil)
	}
	return nil
}

// readTree returns a read-only tree.Model over the root document's
// current live state, without advancing its heads.
func (e *Engine) readTree() (*tree.Model, error) {
	view, err := e.repo.Peek(e.root)
	if err != nil {
		return nil, err
	}
	return tree.NewReadOnly(view), nil
}

// Read returns the current bytes stored at path: raw blob bytes for a
// binary body, or the UTF-8 encoding of the current text for a text
// body.
func (e *Engine) Read(path string) ([]byte, error) {
	if err := e.checkOpen("read", path); err != nil {
		return nil, err
	}
	path = pathutil.Normalize(path)

	m, err := e.readTree()
	if err != nil {
		return nil, newErr(KindStorageFault, "read", path, err)
	}
	entry, ok, err := m.Get(path)
	if err != nil {
		return nil, newErr(KindStorageFault, "read", path, err)
	}
	if !ok {
		return nil, newErr(KindFileNotFound, "read", path, nil)
	}
	if entry.IsDir() {
		return nil, newErr(KindIsADirectory, "read", path, nil)
	}

	if entry.HasBlob() {
		data, found, err := e.blobs.Get(entry.BlobHash)
		if err != nil {
			return nil, newErr(KindStorageFault, "read", path, err)
		}
		if !found {
			return nil, newErr(KindStorageFault, "read", path, fmt.Errorf("blob %s missing", entry.BlobHash))
		}
		return data, nil
	}

	handle := docrepo.Handle(entry.TextDocID)
	if _, err := e.repo.Find(handle); err != nil {
		return nil, newErr(KindDocumentNotFound, "read", path, err)
	}
	view, err := e.repo.Peek(handle)
	if err != nil {
		return nil, newErr(KindDocumentNotFound, "read", path, err)
	}
	content, err := view.TextValue("content")
	if err != nil {
		return nil, newErr(KindDocumentNotFound, "read", path, err)
	}
	return []byte(content), nil
}

// ReadText is a convenience wrapper over Read for callers that know
// the file is text.
func (e *Engine) ReadText(path string) (string, error) {
	b, err := e.Read(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Write stores content at path, routing it through fsrouter per
// spec.md §4.6. content's UTF-8 validity decides text vs binary, per
// the "caller passed bytes" classification rule.
func (e *Engine) Write(path string, content []byte) error {
	kind, text := fsrouter.Classify(content)
	return e.write(path, kind, text, content)
}

// WriteText stores content as text unconditionally, per spec.md
// §4.6's "caller passed a string" classification rule — useful for
// callers that already know they have text and want to bypass UTF-8
// sniffing (e.g. a string literal that happens to be valid binary in
// some encoding but is semantically text).
func (e *Engine) WriteText(path string, content string) error {
	return e.write(path, fsrouter.KindText, content, nil)
}

func (e *Engine) write(path string, kind fsrouter.Kind, text string, raw []byte) error {
	if err := e.checkOpen("write", path); err != nil {
		return err
	}
	path = pathutil.Normalize(path)

	if pathutil.IsRoot(path) {
		return newErr(KindIsADirectory, "write", path, nil)
	}

	parent := pathutil.Parent(path)
	now := time.Now().Unix()

	// route and existingPtr are filled in by the mutator and read again
	// below, after Change has committed and saved — applyRouteFollowUps
	// must never run from inside the mutator itself, since a mutator
	// failure must leave the document (and anything concurrently Peek-ing
	// it) completely unchanged, and the blob/handle side effects it
	// performs are not part of that document.
	var (
		route       fsrouter.Result
		existingPtr *tree.Entry
	)

	err := e.repo.Change(e.root, "write "+path, func(d docrepo.Doc) error {
		m := tree.New(d)

		parentEntry, ok, err := m.Get(parent)
		if err != nil {
			return err
		}
		if !ok {
			return newErr(KindFileNotFound, "write", path, nil)
		}
		if !parentEntry.IsDir() {
			return newErr(KindNotADirectory, "write", path, nil)
		}

		existing, hadEntry, err := m.Get(path)
		if err != nil {
			return err
		}
		if hadEntry && existing.IsDir() {
			return newErr(KindIsADirectory, "write", path, nil)
		}
		if hadEntry {
			existingPtr = &existing
		}

		var err2 error
		switch kind {
		case fsrouter.KindBinary:
			route, err2 = e.router.WriteBinary(raw, existingPtr)
		default:
			route, err2 = e.router.WriteText(text, existingPtr)
		}
		if err2 != nil {
			return newErr(KindStorageFault, "write", path, err2)
		}

		mode := defaultFileMode
		ctime := now
		if hadEntry {
			mode = existing.Metadata.Mode
			ctime = existing.Metadata.Ctime
		}

		return m.Put(path, tree.Entry{
			Kind:      tree.KindFile,
			Parent:    parent,
			Name:      pathutil.Basename(path),
			TextDocID: route.TextDocID,
			BlobHash:  route.BlobHash,
			Metadata: tree.Metadata{
				Size:  route.Size,
				Mode:  mode,
				Mtime: now,
				Ctime: ctime,
			},
		})
	})
	if err != nil {
		return err
	}

	return e.applyRouteFollowUps(path, route, existingPtr)
}

// applyRouteFollowUps performs the side effects fsrouter.Result
// describes once the referencing tree commit has succeeded: evicting
// an orphaned text-document handle from the cache, or deleting a blob
// that the write just replaced. old is the entry being overwritten
// (nil for a fresh path). Called only after Change has returned
// successfully, so these side effects never run against a change that
// didn't actually commit.
func (e *Engine) applyRouteFollowUps(path string, route fsrouter.Result, old *tree.Entry) error {
	if route.EvictTextHandle && old != nil && old.HasText() {
		e.repo.Forget(docrepo.Handle(old.TextDocID))
	}
	if route.DeleteBlobHash != "" {
		if err := e.blobs.Delete(route.DeleteBlobHash); err != nil {
			return newErr(KindStorageFault, "write", path, err)
		}
	}
	return nil
}

// Append concatenates text onto the current content of path, using
// the character-level merge so only the appended suffix becomes a
// real CRDT insertion.
func (e *Engine) Append(path string, text string) error {
	if err := e.checkOpen("append", path); err != nil {
		return err
	}
	path = pathutil.Normalize(path)

	current := ""
	if b, err := e.Read(path); err == nil {
		current = string(b)
	} else if !IsKind(err, KindFileNotFound) {
		return err
	}

	return e.WriteText(path, current+text)
}

// Stat returns metadata for path.
func (e *Engine) Stat(path string) (FileStat, error) {
	if err := e.checkOpen("stat", path); err != nil {
		return FileStat{}, err
	}
	path = pathutil.Normalize(path)

	m, err := e.readTree()
	if err != nil {
		return FileStat{}, newErr(KindStorageFault, "stat", path, err)
	}
	entry, ok, err := m.Get(path)
	if err != nil {
		return FileStat{}, newErr(KindStorageFault, "stat", path, err)
	}
	if !ok {
		return FileStat{}, newErr(KindFileNotFound, "stat", path, nil)
	}
	return statFromEntry(path, entry), nil
}

// Exists reports whether path has an entry. It never fails.
func (e *Engine) Exists(path string) bool {
	if e.checkOpen("exists", path) != nil {
		return false
	}
	path = pathutil.Normalize(path)
	m, err := e.readTree()
	if err != nil {
		return false
	}
	_, ok, _ := m.Get(path)
	return ok
}

// Readdir lists the direct children of path.
func (e *Engine) Readdir(path string) ([]DirEntry, error) {
	if err := e.checkOpen("readdir", path); err != nil {
		return nil, err
	}
	path = pathutil.Normalize(path)

	m, err := e.readTree()
	if err != nil {
		return nil, newErr(KindStorageFault, "readdir", path, err)
	}
	entry, ok, err := m.Get(path)
	if err != nil {
		return nil, newErr(KindStorageFault, "readdir", path, err)
	}
	if !ok {
		return nil, newErr(KindFileNotFound, "readdir", path, nil)
	}
	if !entry.IsDir() {
		return nil, newErr(KindNotADirectory, "readdir", path, nil)
	}

	children, err := m.Children(path)
	if err != nil {
		return nil, newErr(KindStorageFault, "readdir", path, err)
	}
	out := make([]DirEntry, len(children))
	for i, c := range children {
		out[i] = DirEntry{Name: c.Entry.Name, IsDir: c.Entry.IsDir()}
	}
	return out, nil
}

// Mkdir creates a directory at path. With recursive=true, missing
// ancestors are created too, atomically with the target; limits bounds
// that ancestor walk the same way it bounds Rm/Cp (nil means
// unlimited).
func (e *Engine) Mkdir(path string, recursive bool, limits *WalkLimits) error {
	if err := e.checkOpen("mkdir", path); err != nil {
		return err
	}
	path = pathutil.Normalize(path)
	now := time.Now().Unix()

	return e.repo.Change(e.root, "mkdir "+path, func(d docrepo.Doc) error {
		m := tree.New(d)
		if recursive {
			return mkdirAll(m, path, now, limits)
		}
		return mkdirOne(m, path, now)
	})
}

func mkdirOne(m *tree.Model, path string, now int64) error {
	if pathutil.IsRoot(path) {
		return nil
	}
	parent := pathutil.Parent(path)
	parentEntry, ok, err := m.Get(parent)
	if err != nil {
		return err
	}
	if !ok {
		return newErr(KindFileNotFound, "mkdir", path, nil)
	}
	if !parentEntry.IsDir() {
		return newErr(KindNotADirectory, "mkdir", path, nil)
	}

	existing, ok, err := m.Get(path)
	if err != nil {
		return err
	}
	if ok {
		if existing.IsDir() {
			return nil // idempotent
		}
		return newErr(KindAlreadyExists, "mkdir", path, nil)
	}

	return m.Put(path, tree.Entry{
		Kind:   tree.KindDirectory,
		Parent: parent,
		Name:   pathutil.Basename(path),
		Metadata: tree.Metadata{
			Mode:  defaultDirMode,
			Mtime: now,
			Ctime: now,
		},
	})
}

func mkdirAll(m *tree.Model, path string, now int64, limits *WalkLimits) error {
	if pathutil.IsRoot(path) {
		return nil
	}
	if limits.excluded(path) {
		return nil
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	cur := ""
	for i, seg := range segments {
		cur = pathutil.Join(cur, seg)
		if err := limits.checkBudget(i + 1); err != nil {
			return err
		}
		if err := mkdirOne(m, cur, now); err != nil {
			return err
		}
	}
	return nil
}
