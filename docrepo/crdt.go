// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package docrepo

import "time"

// crdtDoc is the minimal CRDT surface Repo needs from a document
// implementation. It exists so Repo never imports automerge-go
// directly — mirroring the teacher's DialFunc injection point in
// reconnect.go, which exists for exactly the same reason: let tests
// swap the real backend for a lightweight fake.
type crdtDoc interface {
	// MapSet/MapGet/MapDelete/MapKeys address a (possibly nested) map
	// field by path. An empty mapPath addresses the document's root
	// map directly; []string{"tree"} addresses RootDocument's tree
	// field. Nested maps are created on first MapSet.
	MapSet(mapPath []string, key string, value []byte) error
	MapGet(mapPath []string, key string) ([]byte, bool, error)
	MapDelete(mapPath []string, key string) error
	MapKeys(mapPath []string) ([]string, error)

	// TextValue/TextSplice/TextInit address TextDocument's sole
	// "content" field.
	TextInit(key string, initial string) error
	TextValue(key string) (string, error)
	TextSplice(key string, pos, deleteCount int, insert string) error

	// Commit finalizes the mutations applied since the last Commit
	// (or since the document was created/loaded) as one atomic
	// change, tagged with actor and message.
	Commit(actor, message string) (ChangeID, time.Time, error)

	// Heads returns the current frontier.
	Heads() []ChangeID

	// History returns every committed change in causal order.
	History() []ChangeMeta

	// ForkAtHeads returns a copy of the document as of heads (Repo.View
	// exposes it read-only; Repo.Change edits it before swapping it
	// in), or (nil, false) if any head is unknown — callers
	// translate that into the "forgiving empty result" policy of
	// spec.md §7.
	ForkAtHeads(heads []ChangeID) (crdtDoc, bool)

	// Save serializes the complete document state for persistence
	// through a storage.Backend.
	Save() []byte
}

// crdtFactory creates or loads crdtDoc instances. automergeFactory is
// the production implementation; memoryFactory is a dependency-free
// fake used by package tests (automerge-go is a cgo binding around
// automerge-rs and pulling it into every unit test would make the
// suite dependent on a native toolchain it doesn't need).
type crdtFactory interface {
	New(actor string) crdtDoc
	Load(actor string, data []byte) (crdtDoc, error)
}
