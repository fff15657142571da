// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"sync"

	"github.com/just-be-dev/versionedfs/docrepo"
)

// Tracker wraps RootHeads to let a caller cheaply ask "has anything
// changed since I last looked" without diffing the whole tree,
// adapted from fstree.Tracker's SnapshotIfChanged pattern.
type Tracker struct {
	engine *Engine

	mu        sync.Mutex
	lastHeads []docrepo.ChangeID
}

// NewTracker returns a Tracker polling engine's root heads.
func NewTracker(engine *Engine) *Tracker {
	return &Tracker{engine: engine}
}

// Poll returns the current root heads and whether they differ from
// the heads observed at the previous Poll call (always true on the
// first call if the root has any committed change).
func (t *Tracker) Poll() ([]docrepo.ChangeID, bool) {
	heads := t.engine.RootHeads()

	t.mu.Lock()
	defer t.mu.Unlock()
	changed := !headsEqual(t.lastHeads, heads)
	t.lastHeads = heads
	return heads, changed
}

// LastHeads returns the heads observed at the most recent Poll, or
// nil if Poll has not been called yet.
func (t *Tracker) LastHeads() []docrepo.ChangeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastHeads
}

func headsEqual(a, b []docrepo.ChangeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
