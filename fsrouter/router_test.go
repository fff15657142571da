// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package fsrouter_test

import (
	"testing"

	"github.com/just-be-dev/versionedfs/blobstore"
	"github.com/just-be-dev/versionedfs/docrepo"
	"github.com/just-be-dev/versionedfs/fsrouter"
	"github.com/just-be-dev/versionedfs/storage"
	"github.com/just-be-dev/versionedfs/tree"
)

func newRouter(t *testing.T) *fsrouter.Router {
	t.Helper()
	blobs, err := blobstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("blobstore.Open: %v", err)
	}
	docs := docrepo.NewInProcessRepo(storage.NewMemoryBackend(), "actor")
	return fsrouter.New(blobs, docs)
}

func TestClassifyTextAndBinary(t *testing.T) {
	kind, text := fsrouter.Classify([]byte("hello"))
	if kind != fsrouter.KindText || text != "hello" {
		t.Fatalf("got kind=%v text=%q", kind, text)
	}

	kind, _ = fsrouter.Classify([]byte{0x00, 0x01, 0x02, 0xff})
	if kind != fsrouter.KindBinary {
		t.Fatalf("got kind=%v, want binary", kind)
	}
}

func TestClassifyUnicodeIsText(t *testing.T) {
	kind, text := fsrouter.Classify([]byte("Hello 世界 🌍"))
	if kind != fsrouter.KindText {
		t.Fatalf("got kind=%v, want text", kind)
	}
	if text != "Hello 世界 🌍" {
		t.Fatalf("got text=%q", text)
	}
}

func TestWriteBinaryFreshFile(t *testing.T) {
	r := newRouter(t)
	raw := []byte{0x00, 0x01, 0x02, 0xff}

	res, err := r.WriteBinary(raw, nil)
	if err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}
	if res.BlobHash == "" || res.Size != uint64(len(raw)) {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.EvictTextHandle {
		t.Fatalf("fresh file should not request eviction")
	}
}

func TestWriteTextFreshFile(t *testing.T) {
	r := newRouter(t)

	res, err := r.WriteText("hello", nil)
	if err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if res.TextDocID == "" || res.Size != uint64(len("hello")) {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestWriteTextMergeIntoExistingDoc(t *testing.T) {
	r := newRouter(t)

	first, err := r.WriteText("hello", nil)
	if err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	existing := &tree.Entry{Kind: tree.KindFile, TextDocID: first.TextDocID}
	second, err := r.WriteText("hello world", existing)
	if err != nil {
		t.Fatalf("WriteText merge: %v", err)
	}
	if second.TextDocID != first.TextDocID {
		t.Fatalf("merge should preserve text doc id: got %s, want %s", second.TextDocID, first.TextDocID)
	}
	if second.Size != uint64(len("hello world")) {
		t.Fatalf("unexpected size: %d", second.Size)
	}
}

func TestWriteBinaryOverTextRequestsEviction(t *testing.T) {
	r := newRouter(t)

	textRes, _ := r.WriteText("hello", nil)
	existing := &tree.Entry{Kind: tree.KindFile, TextDocID: textRes.TextDocID}

	binRes, err := r.WriteBinary([]byte{0xff, 0xfe}, existing)
	if err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}
	if !binRes.EvictTextHandle {
		t.Fatalf("expected eviction request when transitioning text -> binary")
	}
	if binRes.BlobHash == "" {
		t.Fatalf("expected a blob hash")
	}
}

func TestWriteTextOverBinaryRequestsBlobDeletion(t *testing.T) {
	r := newRouter(t)

	binRes, _ := r.WriteBinary([]byte{0x00, 0xff}, nil)
	existing := &tree.Entry{Kind: tree.KindFile, BlobHash: binRes.BlobHash}

	textRes, err := r.WriteText("now text", existing)
	if err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if textRes.DeleteBlobHash != binRes.BlobHash {
		t.Fatalf("got DeleteBlobHash=%q, want %q", textRes.DeleteBlobHash, binRes.BlobHash)
	}
}
