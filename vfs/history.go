// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"time"

	"github.com/just-be-dev/versionedfs/docrepo"
	"github.com/just-be-dev/versionedfs/pathutil"
)

// RootHeads returns the root document's current frontier.
func (e *Engine) RootHeads() []docrepo.ChangeID {
	return e.repo.Heads(e.root)
}

// FileHeads returns path's text document's current frontier, or nil
// if path is absent or binary, per spec.md §4.7's forgiving policy.
func (e *Engine) FileHeads(path string) []docrepo.ChangeID {
	textDocID, ok := e.textDocID(path)
	if !ok {
		return nil
	}
	return e.repo.Heads(textDocID)
}

// FileHistory returns path's text document's committed changes in
// causal order, or nil if path is absent or binary.
func (e *Engine) FileHistory(path string) []HistoryEntry {
	textDocID, ok := e.textDocID(path)
	if !ok {
		return nil
	}
	return historyFromMeta(e.repo.History(textDocID))
}

// ViewAt returns path's text content as of heads, or "" if path is
// binary, absent, or heads are unknown.
func (e *Engine) ViewAt(path string, heads []docrepo.ChangeID) string {
	textDocID, ok := e.textDocID(path)
	if !ok {
		return ""
	}
	view, ok := e.repo.View(textDocID, heads)
	if !ok {
		return ""
	}
	content, err := view.TextValue("content")
	if err != nil {
		return ""
	}
	return content
}

// Diff returns structural patches between two version points of
// path's text document, or nil if path is binary, absent, or either
// head set is unknown.
func (e *Engine) Diff(path string, from, to []docrepo.ChangeID) []Patch {
	textDocID, ok := e.textDocID(path)
	if !ok {
		return nil
	}
	return e.repo.Diff(textDocID, from, to)
}

// textDocID resolves path to its text document handle, reporting
// ok=false if path is absent, a directory, or a binary file.
func (e *Engine) textDocID(path string) (docrepo.Handle, bool) {
	if e.checkOpen("history", path) != nil {
		return "", false
	}
	path = pathutil.Normalize(path)

	m, err := e.readTree()
	if err != nil {
		return "", false
	}
	entry, ok, err := m.Get(path)
	if err != nil || !ok || !entry.HasText() {
		return "", false
	}
	handle := docrepo.Handle(entry.TextDocID)
	if _, err := e.repo.Find(handle); err != nil {
		return "", false
	}
	return handle, true
}

// Snapshot reports the current root heads and a tree walk's
// aggregate statistics, under an externally-meaningful label the
// engine does not interpret or persist.
func (e *Engine) Snapshot(label string) (SnapshotResult, error) {
	if err := e.checkOpen("snapshot", "/"); err != nil {
		return SnapshotResult{}, err
	}

	start := time.Now()
	stats, err := e.computeStats()
	if err != nil {
		return SnapshotResult{}, newErr(KindStorageFault, "snapshot", "/", err)
	}
	stats.Duration = time.Since(start)

	return SnapshotResult{
		Heads:     e.RootHeads(),
		Label:     label,
		Timestamp: time.Now(),
		Stats:     stats,
	}, nil
}

func (e *Engine) computeStats() (Stats, error) {
	m, err := e.readTree()
	if err != nil {
		return Stats{}, err
	}
	paths, err := m.AllPaths()
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, p := range paths {
		entry, ok, err := m.Get(p)
		if err != nil {
			return Stats{}, err
		}
		if !ok {
			continue
		}
		if entry.IsDir() {
			stats.DirCount++
		} else {
			stats.FileCount++
			stats.TotalBytes += entry.Metadata.Size
		}
	}
	return stats, nil
}
