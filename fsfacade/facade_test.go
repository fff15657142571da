// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package fsfacade_test

import (
	"testing"

	"github.com/just-be-dev/versionedfs/blobstore"
	"github.com/just-be-dev/versionedfs/docrepo"
	"github.com/just-be-dev/versionedfs/fsfacade"
	"github.com/just-be-dev/versionedfs/storage"
	"github.com/just-be-dev/versionedfs/vfs"
)

func newFacade(t *testing.T) *fsfacade.Facade {
	t.Helper()
	repo := docrepo.NewInProcessRepo(storage.NewMemoryBackend(), "test-actor")
	blobs, err := blobstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("blobstore.Open: %v", err)
	}
	e, err := vfs.OpenNew(repo, blobs)
	if err != nil {
		t.Fatalf("OpenNew: %v", err)
	}
	return fsfacade.New(e)
}

func TestFacadeWriteReadText(t *testing.T) {
	f := newFacade(t)
	if err := f.Write("/a.txt", []byte("hi")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := f.ReadText("/a.txt")
	if err != nil || got != "hi" {
		t.Fatalf("ReadText = %q, %v", got, err)
	}
	if !f.Exists("/a.txt") {
		t.Fatalf("expected /a.txt to exist")
	}
}

func TestFacadeMkdirReaddir(t *testing.T) {
	f := newFacade(t)
	if err := f.Mkdir("/d", true); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := f.Write("/d/x.txt", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := f.Readdir("/d")
	if err != nil {
		t.Fatalf("Readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "x.txt" {
		t.Fatalf("got %v, want one entry x.txt", entries)
	}
}

func TestFacadeLstatMatchesStat(t *testing.T) {
	f := newFacade(t)
	_ = f.Write("/a.txt", []byte("x"))
	st, err := f.Stat("/a.txt")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	lst, err := f.Lstat("/a.txt")
	if err != nil {
		t.Fatalf("Lstat: %v", err)
	}
	if st != lst {
		t.Fatalf("Lstat %v != Stat %v", lst, st)
	}
}

func TestFacadeLinkFamilyNotSupported(t *testing.T) {
	f := newFacade(t)
	if err := f.Symlink("/a.txt", "/link"); !vfs.IsKind(err, vfs.KindNotSupported) {
		t.Fatalf("Symlink: got %v, want NotSupported", err)
	}
	if err := f.Link("/a.txt", "/link"); !vfs.IsKind(err, vfs.KindNotSupported) {
		t.Fatalf("Link: got %v, want NotSupported", err)
	}
	if _, err := f.Readlink("/a.txt"); !vfs.IsKind(err, vfs.KindNotSupported) {
		t.Fatalf("Readlink: got %v, want NotSupported", err)
	}
}

func TestFacadeResolvePathAndRealpath(t *testing.T) {
	f := newFacade(t)
	if got := f.ResolvePath("/a/b", "../c"); got != "/a/c" {
		t.Fatalf("ResolvePath = %q, want /a/c", got)
	}
	if got := f.Realpath("/a//b/./c"); got != "/a/b/c" {
		t.Fatalf("Realpath = %q, want /a/b/c", got)
	}
}

func TestFacadeMvCpRm(t *testing.T) {
	f := newFacade(t)
	_ = f.Write("/a.txt", []byte("x"))

	if err := f.Cp("/a.txt", "/b.txt", false); err != nil {
		t.Fatalf("Cp: %v", err)
	}
	if err := f.Mv("/a.txt", "/c.txt"); err != nil {
		t.Fatalf("Mv: %v", err)
	}
	if f.Exists("/a.txt") {
		t.Fatalf("expected /a.txt gone after Mv")
	}
	if err := f.Rm("/b.txt", false); err != nil {
		t.Fatalf("Rm: %v", err)
	}
	if f.Exists("/b.txt") {
		t.Fatalf("expected /b.txt gone after Rm")
	}
}

func TestFacadeChmodUtimes(t *testing.T) {
	f := newFacade(t)
	_ = f.Write("/a.txt", []byte("x"))
	if err := f.Chmod("/a.txt", 0o644); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := f.Utimes("/a.txt", 0, 1234); err != nil {
		t.Fatalf("Utimes: %v", err)
	}
	st, err := f.Stat("/a.txt")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if st.Mode != 0o644 || st.Mtime != 1234 {
		t.Fatalf("got %+v, want Mode=0644 Mtime=1234", st)
	}
}
