// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

// Package fsfacade implements FsFacade: a thin, stateless projection
// of vfs.Engine exposing the synchronous-style operation set an
// external bash interpreter expects. The facade owns no state of its
// own — it is a translation layer only, per spec.md §4.8.
package fsfacade

import (
	"github.com/just-be-dev/versionedfs/pathutil"
	"github.com/just-be-dev/versionedfs/vfs"
)

// Facade adapts a vfs.Engine to the bash-interpreter-facing surface.
type Facade struct {
	engine *vfs.Engine
}

// New wraps engine for bash-interpreter consumption.
func New(engine *vfs.Engine) *Facade {
	return &Facade{engine: engine}
}

// ReadText returns path's content decoded as UTF-8 text.
func (f *Facade) ReadText(path string) (string, error) {
	b, err := f.engine.Read(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadBytes returns path's raw content.
func (f *Facade) ReadBytes(path string) ([]byte, error) {
	return f.engine.Read(path)
}

// Write stores content at path, classifying text vs binary.
func (f *Facade) Write(path string, content []byte) error {
	return f.engine.Write(path, content)
}

// Append concatenates text onto path's current content.
func (f *Facade) Append(path string, text string) error {
	return f.engine.Append(path, text)
}

// Exists reports whether path has an entry.
func (f *Facade) Exists(path string) bool {
	return f.engine.Exists(path)
}

// Stat returns metadata for path.
func (f *Facade) Stat(path string) (vfs.FileStat, error) {
	return f.engine.Stat(path)
}

// Lstat is identical to Stat: this engine has no symlinks to
// distinguish, per spec.md §4.8.
func (f *Facade) Lstat(path string) (vfs.FileStat, error) {
	return f.engine.Stat(path)
}

// Mkdir creates a directory at path.
func (f *Facade) Mkdir(path string, recursive bool) error {
	return f.engine.Mkdir(path, recursive, nil)
}

// Readdir lists path's direct children.
func (f *Facade) Readdir(path string) ([]vfs.DirEntry, error) {
	return f.engine.Readdir(path)
}

// Rm removes path.
func (f *Facade) Rm(path string, recursive bool) error {
	return f.engine.Rm(path, recursive, nil)
}

// Cp copies src to dst.
func (f *Facade) Cp(src, dst string, recursive bool) error {
	return f.engine.Cp(src, dst, recursive, nil)
}

// Mv renames src to dst.
func (f *Facade) Mv(src, dst string) error {
	return f.engine.Mv(src, dst)
}

// Chmod updates path's mode bits.
func (f *Facade) Chmod(path string, mode uint16) error {
	return f.engine.Chmod(path, mode)
}

// Utimes updates path's mtime.
func (f *Facade) Utimes(path string, atime, mtime int64) error {
	return f.engine.Utimes(path, atime, mtime)
}

// ResolvePath joins rel onto base the way a shell resolves a relative
// path against a working directory, without checking existence.
func (f *Facade) ResolvePath(base, rel string) string {
	return pathutil.Join(base, rel)
}

// Realpath normalizes path without probing existence, per spec.md
// §9's resolved Open Question: the source returns the normalized
// input regardless of whether the path exists, and this engine
// inherits that behavior.
func (f *Facade) Realpath(path string) string {
	return pathutil.Normalize(path)
}

// Symlink, Link, and Readlink are out of scope: spec.md's Non-goals
// exclude symbolic/hard link semantics beyond storing a target string,
// and this core does not implement even that much.
func (f *Facade) Symlink(target, linkPath string) error {
	return notSupported("symlink", linkPath)
}

func (f *Facade) Link(oldPath, newPath string) error {
	return notSupported("link", newPath)
}

func (f *Facade) Readlink(path string) (string, error) {
	return "", notSupported("readlink", path)
}

func notSupported(op, path string) error {
	return vfs.NewError(vfs.KindNotSupported, op, path)
}
