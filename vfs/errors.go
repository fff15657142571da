// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"fmt"
)

// Kind is a semantic error classification, not a type hierarchy — the
// same Kind can be raised by several operations, matching the teacher's
// ServerError{Code}/IsServerError(err, code) pattern in clients/go/errors.go.
type Kind string

const (
	KindFileNotFound     Kind = "file_not_found"
	KindNotADirectory    Kind = "not_a_directory"
	KindIsADirectory     Kind = "is_a_directory"
	KindAlreadyExists    Kind = "already_exists"
	KindNotSupported     Kind = "not_supported"
	KindStorageFault     Kind = "storage_fault"
	KindDocumentNotFound Kind = "document_not_found"
	KindEngineClosed     Kind = "engine_closed"
	KindTooManyEntries   Kind = "too_many_entries"
)

// EngineError is the error type every vfs.Engine operation returns on
// failure: a semantic Kind plus the operation and path that triggered
// it, wrapping the underlying cause when there is one.
type EngineError struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vfs: %s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("vfs: %s %s: %s", e.Op, e.Path, e.Kind)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, vfs.ErrFileNotFound) work against the
// sentinel Kind markers below without requiring callers to type-assert
// *EngineError themselves.
func (e *EngineError) Is(target error) bool {
	sentinel, ok := target.(*sentinelError)
	return ok && sentinel.kind == e.Kind
}

type sentinelError struct{ kind Kind }

func (s *sentinelError) Error() string { return string(s.kind) }

// Sentinel markers for errors.Is comparisons, one per Kind in spec.md §7.
var (
	ErrFileNotFound     error = &sentinelError{KindFileNotFound}
	ErrNotADirectory    error = &sentinelError{KindNotADirectory}
	ErrIsADirectory     error = &sentinelError{KindIsADirectory}
	ErrAlreadyExists    error = &sentinelError{KindAlreadyExists}
	ErrNotSupported     error = &sentinelError{KindNotSupported}
	ErrStorageFault     error = &sentinelError{KindStorageFault}
	ErrDocumentNotFound error = &sentinelError{KindDocumentNotFound}
	ErrEngineClosed     error = &sentinelError{KindEngineClosed}
	ErrTooManyEntries   error = &sentinelError{KindTooManyEntries}
)

func newErr(kind Kind, op, path string, cause error) *EngineError {
	return &EngineError{Kind: kind, Op: op, Path: path, Err: cause}
}

// NewError builds an *EngineError for callers outside this package
// that need to report engine-shaped failures for operations the
// engine itself never performs, such as fsfacade's unsupported
// link-family calls.
func NewError(kind Kind, op, path string) *EngineError {
	return newErr(kind, op, path, nil)
}

// IsKind reports whether err is an *EngineError of the given kind,
// unwrapping through fmt.Errorf("%w") chains.
func IsKind(err error, kind Kind) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind == kind
	}
	return false
}
