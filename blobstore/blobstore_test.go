// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package blobstore

import (
	"bytes"
	"testing"
)

func TestSetGetHas(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	hash := "abcdef0123456789"
	if has, _ := s.Has(hash); has {
		t.Fatalf("fresh store should not have %q", hash)
	}

	if err := s.Set(hash, []byte("hello")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	has, err := s.Has(hash)
	if err != nil || !has {
		t.Fatalf("Has after Set = %v, %v", has, err)
	}

	data, ok, err := s.Get(hash)
	if err != nil || !ok {
		t.Fatalf("Get after Set: %v, %v, %v", data, ok, err)
	}
	if !bytes.Equal(data, []byte("hello")) {
		t.Fatalf("Get returned %q, want %q", data, "hello")
	}
}

func TestGetAbsent(t *testing.T) {
	s, _ := Open(t.TempDir())
	data, ok, err := s.Get("deadbeef")
	if err != nil {
		t.Fatalf("Get on absent hash should not error: %v", err)
	}
	if ok || data != nil {
		t.Fatalf("Get on absent hash should report (nil, false)")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s, _ := Open(t.TempDir())
	if err := s.Delete("never-existed"); err != nil {
		t.Fatalf("deleting absent blob should be a no-op: %v", err)
	}

	if err := s.Set("aa11", []byte("x")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete("aa11"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete("aa11"); err != nil {
		t.Fatalf("second Delete should still be a no-op: %v", err)
	}
	if has, _ := s.Has("aa11"); has {
		t.Fatalf("hash should be gone after Delete")
	}
}

func TestOverwrite(t *testing.T) {
	s, _ := Open(t.TempDir())
	if err := s.Set("h1", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("h1", []byte("v2")); err != nil {
		t.Fatalf("overwrite Set: %v", err)
	}
	data, _, _ := s.Get("h1")
	if !bytes.Equal(data, []byte("v2")) {
		t.Fatalf("Get after overwrite = %q, want v2", data)
	}
}

func TestListEmptyStore(t *testing.T) {
	s, _ := Open(t.TempDir())
	hashes, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(hashes) != 0 {
		t.Fatalf("fresh store should list empty, got %v", hashes)
	}
}

func TestListAfterWrites(t *testing.T) {
	s, _ := Open(t.TempDir())
	want := []string{"0011223344", "aabbccddee", "ff"}
	for _, h := range want {
		if err := s.Set(h, []byte(h)); err != nil {
			t.Fatalf("Set(%q): %v", h, err)
		}
	}

	got, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("List returned %d hashes, want %d: %v", len(got), len(want), got)
	}
}

func TestShortHashUsesBucketZero(t *testing.T) {
	s, _ := Open(t.TempDir())
	if err := s.Set("a", []byte("short")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, ok, err := s.Get("a")
	if err != nil || !ok {
		t.Fatalf("Get short hash: %v, %v, %v", data, ok, err)
	}
	dir, file := s.bucketPath("a")
	if file != "a" {
		t.Fatalf("bucketPath(%q) file = %q, want %q", "a", file, "a")
	}
	if dir == "" {
		t.Fatalf("bucketPath should not return empty dir")
	}
}
