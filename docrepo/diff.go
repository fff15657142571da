// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package docrepo

import "bytes"

// diffDocs produces a structural diff between two version points of a
// document. Every document this engine creates is shaped one of two
// ways — a root document with a "tree" map, or a text document with a
// "content" text field — so diffDocs only needs to know those two
// shapes rather than walk an arbitrary schema.
func diffDocs(from, to crdtDoc) []Patch {
	var patches []Patch
	patches = append(patches, diffTree(from, to)...)
	patches = append(patches, diffText(from, to)...)
	return patches
}

func diffTree(from, to crdtDoc) []Patch {
	fromKeys, _ := from.MapKeys([]string{"tree"})
	toKeys, _ := to.MapKeys([]string{"tree"})

	seen := make(map[string]bool, len(fromKeys)+len(toKeys))
	var patches []Patch

	for _, k := range toKeys {
		seen[k] = true
		toVal, _, _ := to.MapGet([]string{"tree"}, k)
		fromVal, fromOK, _ := from.MapGet([]string{"tree"}, k)
		if !fromOK || !bytes.Equal(fromVal, toVal) {
			patches = append(patches, Patch{Op: PatchPut, Path: []string{"tree", k}, Value: toVal})
		}
	}
	for _, k := range fromKeys {
		if seen[k] {
			continue
		}
		patches = append(patches, Patch{Op: PatchDelete, Path: []string{"tree", k}})
	}
	return patches
}

func diffText(from, to crdtDoc) []Patch {
	toVal, toErr := to.TextValue("content")
	fromVal, fromErr := from.TextValue("content")
	if toErr != nil {
		return nil // not a text document
	}
	if fromErr != nil || fromVal != toVal {
		return []Patch{{Op: PatchSplice, Path: []string{"content"}, Value: toVal}}
	}
	return nil
}
