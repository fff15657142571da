// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"time"

	"github.com/just-be-dev/versionedfs/docrepo"
	"github.com/just-be-dev/versionedfs/tree"
)

// FileStat is the result of Stat.
type FileStat struct {
	Path  string
	IsDir bool
	Size  uint64
	Mode  uint16
	Mtime int64
	Ctime int64
}

// DirEntry is one entry returned by Readdir.
type DirEntry struct {
	Name  string
	IsDir bool
}

// HistoryEntry mirrors docrepo.ChangeMeta for callers that should not
// need to import docrepo directly.
type HistoryEntry struct {
	Hash      docrepo.ChangeID
	Actor     string
	Seq       uint64
	Timestamp time.Time
	Message   string
}

// Patch mirrors docrepo.Patch for the same reason.
type Patch = docrepo.Patch

// SnapshotResult is the result of Snapshot: the current root heads
// plus an externally-meaningful label the engine does not interpret
// or persist.
type SnapshotResult struct {
	Heads     []docrepo.ChangeID
	Label     string
	Timestamp time.Time
	Stats     Stats
}

// Stats reports aggregate tree statistics at the time of a Snapshot
// call, adapted from fstree.SnapshotStats. It is computed on demand
// from a tree walk, never persisted.
type Stats struct {
	FileCount  int
	DirCount   int
	TotalBytes uint64
	Duration   time.Duration
}

func statFromEntry(path string, e tree.Entry) FileStat {
	return FileStat{
		Path:  path,
		IsDir: e.IsDir(),
		Size:  e.Metadata.Size,
		Mode:  e.Metadata.Mode,
		Mtime: e.Metadata.Mtime,
		Ctime: e.Metadata.Ctime,
	}
}

func historyFromMeta(in []docrepo.ChangeMeta) []HistoryEntry {
	out := make([]HistoryEntry, len(in))
	for i, c := range in {
		out[i] = HistoryEntry{Hash: c.Hash, Actor: c.Actor, Seq: c.Seq, Timestamp: c.Timestamp, Message: c.Message}
	}
	return out
}
