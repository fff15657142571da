// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package pathutil

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/a//b/c/", "/a/b/c"},
		{"/a/b/c", "/a/b/c"},
		{"a/b", "/a/b"},
		{"///", "/"},
		{"/a///b", "/a/b"},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/", "/"},
		{"/a", "/"},
		{"/a/b", "/a"},
		{"/a/b/c", "/a/b"},
	}

	for _, tc := range cases {
		if got := Parent(tc.in); got != tc.want {
			t.Errorf("Parent(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBasename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/", "/"},
		{"/a", "a"},
		{"/a/b/c", "c"},
	}

	for _, tc := range cases {
		if got := Basename(tc.in); got != tc.want {
			t.Errorf("Basename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestJoin(t *testing.T) {
	cases := []struct {
		base, rel, want string
	}{
		{"/", "a", "/a"},
		{"/a", "b", "/a/b"},
		{"/a/b", "../c", "/a/c"},
		{"/a", "/b", "/b"},
	}

	for _, tc := range cases {
		if got := Join(tc.base, tc.rel); got != tc.want {
			t.Errorf("Join(%q, %q) = %q, want %q", tc.base, tc.rel, got, tc.want)
		}
	}
}

func TestDepth(t *testing.T) {
	if Depth("/") != 0 {
		t.Errorf("Depth(/) should be 0")
	}
	if Depth("/a/b/c") != 3 {
		t.Errorf("Depth(/a/b/c) should be 3, got %d", Depth("/a/b/c"))
	}
}
