// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"strings"
	"time"

	"github.com/just-be-dev/versionedfs/docrepo"
	"github.com/just-be-dev/versionedfs/pathutil"
	"github.com/just-be-dev/versionedfs/tree"
)

// Rm removes path. A directory requires recursive=true; a file always
// deletes its body (blob if present) and evicts its text handle from
// the cache, per spec.md §4.7's rm contract.
func (e *Engine) Rm(path string, recursive bool, limits *WalkLimits) error {
	if err := e.checkOpen("rm", path); err != nil {
		return err
	}
	path = pathutil.Normalize(path)

	type cleanup struct {
		blobHash    string
		textDocID   string
		evictHandle bool
	}
	var toClean []cleanup

	err := e.repo.Change(e.root, "rm "+path, func(d docrepo.Doc) error {
		m := tree.New(d)
		entry, ok, err := m.Get(path)
		if err != nil {
			return err
		}
		if !ok {
			return newErr(KindFileNotFound, "rm", path, nil)
		}

		if entry.IsDir() {
			if !recursive {
				return newErr(KindIsADirectory, "rm", path, nil)
			}
			descendants, err := descendantsOf(m, path)
			if err != nil {
				return err
			}
			if err := limits.checkBudget(len(descendants) + 1); err != nil {
				return err
			}
			for _, pe := range descendants {
				if limits.excluded(pe.Path) {
					continue
				}
				if !pe.Entry.IsDir() {
					toClean = append(toClean, cleanup{blobHash: pe.Entry.BlobHash, textDocID: pe.Entry.TextDocID})
				}
				if err := m.Remove(pe.Path); err != nil {
					return err
				}
			}
			return m.Remove(path)
		}

		toClean = append(toClean, cleanup{blobHash: entry.BlobHash, textDocID: entry.TextDocID})
		return m.Remove(path)
	})
	if err != nil {
		return err
	}

	for _, c := range toClean {
		if c.blobHash != "" {
			if err := e.blobs.Delete(c.blobHash); err != nil {
				return newErr(KindStorageFault, "rm", path, err)
			}
		}
		if c.textDocID != "" {
			e.repo.Forget(docrepo.Handle(c.textDocID))
		}
	}
	return nil
}

// descendantsOf returns every entry strictly beneath path, in no
// particular order (the caller removes them before removing path
// itself, so depth-first-vs-breadth-first doesn't matter — the whole
// batch commits atomically).
func descendantsOf(m *tree.Model, path string) ([]tree.PathEntry, error) {
	paths, err := m.AllPaths()
	if err != nil {
		return nil, err
	}
	prefix := path
	if !pathutil.IsRoot(path) {
		prefix = path + "/"
	} else {
		prefix = "/"
	}

	var out []tree.PathEntry
	for _, p := range paths {
		if p == path {
			continue
		}
		if pathutil.IsRoot(path) || strings.HasPrefix(p, prefix) {
			entry, ok, err := m.Get(p)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, tree.PathEntry{Path: p, Entry: entry})
			}
		}
	}
	return out, nil
}

// Mv renames a file, preserving its body pointer so its CRDT history
// survives. Directory moves are not supported in this core.
func (e *Engine) Mv(src, dst string) error {
	if err := e.checkOpen("mv", src); err != nil {
		return err
	}
	src = pathutil.Normalize(src)
	dst = pathutil.Normalize(dst)
	now := time.Now().Unix()

	return e.repo.Change(e.root, "mv "+src+" "+dst, func(d docrepo.Doc) error {
		m := tree.New(d)

		entry, ok, err := m.Get(src)
		if err != nil {
			return err
		}
		if !ok {
			return newErr(KindFileNotFound, "mv", src, nil)
		}
		if entry.IsDir() {
			return newErr(KindNotSupported, "mv", src, nil)
		}

		dstParent := pathutil.Parent(dst)
		parentEntry, ok, err := m.Get(dstParent)
		if err != nil {
			return err
		}
		if !ok {
			return newErr(KindFileNotFound, "mv", dst, nil)
		}
		if !parentEntry.IsDir() {
			return newErr(KindNotADirectory, "mv", dst, nil)
		}

		if existingDst, ok, err := m.Get(dst); err != nil {
			return err
		} else if ok && existingDst.IsDir() {
			return newErr(KindIsADirectory, "mv", dst, nil)
		}

		entry.Parent = dstParent
		entry.Name = pathutil.Basename(dst)
		entry.Metadata.Mtime = now

		if err := m.Remove(src); err != nil {
			return err
		}
		return m.Put(dst, entry)
	})
}

// Cp copies src to dst. Files get a new body (new text document or new
// blob reference — history does not carry over). Directories require
// recursive=true.
func (e *Engine) Cp(src, dst string, recursive bool, limits *WalkLimits) error {
	if err := e.checkOpen("cp", src); err != nil {
		return err
	}
	src = pathutil.Normalize(src)
	dst = pathutil.Normalize(dst)

	srcStat, err := e.Stat(src)
	if err != nil {
		return err
	}

	if !srcStat.IsDir {
		content, err := e.Read(src)
		if err != nil {
			return err
		}
		return e.Write(dst, content)
	}

	if !recursive {
		return newErr(KindIsADirectory, "cp", src, nil)
	}
	// Check the whole source subtree against the budget before copying
	// anything, so an over-budget copy leaves nothing behind.
	if limits != nil && limits.MaxEntries > 0 {
		m, err := e.readTree()
		if err != nil {
			return newErr(KindStorageFault, "cp", src, err)
		}
		descendants, err := descendantsOf(m, src)
		if err != nil {
			return newErr(KindStorageFault, "cp", src, err)
		}
		if err := limits.checkBudget(len(descendants) + 1); err != nil {
			return err
		}
	}
	return e.copyDir(src, dst, limits, 0)
}

func (e *Engine) copyDir(src, dst string, limits *WalkLimits, count int) error {
	if limits.excluded(src) {
		return nil
	}
	if err := limits.checkBudget(count + 1); err != nil {
		return err
	}

	if err := e.Mkdir(dst, true, limits); err != nil {
		return err
	}

	children, err := e.Readdir(src)
	if err != nil {
		return err
	}
	for _, c := range children {
		childSrc := pathutil.Join(src, c.Name)
		childDst := pathutil.Join(dst, c.Name)
		if limits.excluded(childSrc) {
			continue
		}
		count++
		if err := limits.checkBudget(count); err != nil {
			return err
		}
		if c.IsDir {
			if err := e.copyDir(childSrc, childDst, limits, count); err != nil {
				return err
			}
			continue
		}
		content, err := e.Read(childSrc)
		if err != nil {
			return err
		}
		if err := e.Write(childDst, content); err != nil {
			return err
		}
	}
	return nil
}

// Chmod updates only the mode bits of path's metadata.
func (e *Engine) Chmod(path string, mode uint16) error {
	if err := e.checkOpen("chmod", path); err != nil {
		return err
	}
	path = pathutil.Normalize(path)

	return e.repo.Change(e.root, "chmod "+path, func(d docrepo.Doc) error {
		m := tree.New(d)
		entry, ok, err := m.Get(path)
		if err != nil {
			return err
		}
		if !ok {
			return newErr(KindFileNotFound, "chmod", path, nil)
		}
		entry.Metadata.Mode = mode
		return m.Put(path, entry)
	})
}

// Utimes updates path's mtime. atime is accepted for interface
// symmetry with POSIX utimes but is not persisted, per spec.md §4.7.
func (e *Engine) Utimes(path string, atime, mtime int64) error {
	if err := e.checkOpen("utimes", path); err != nil {
		return err
	}
	path = pathutil.Normalize(path)
	_ = atime

	return e.repo.Change(e.root, "utimes "+path, func(d docrepo.Doc) error {
		m := tree.New(d)
		entry, ok, err := m.Get(path)
		if err != nil {
			return err
		}
		if !ok {
			return newErr(KindFileNotFound, "utimes", path, nil)
		}
		entry.Metadata.Mtime = mtime
		return m.Put(path, entry)
	})
}
