package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain failures so external layers can map each
// rejected precondition to a precise message.
type ErrorKind string

// Error kinds surfaced by manager operations.
const (
	// ErrValidation reports malformed or missing input.
	ErrValidation ErrorKind = "validation"
	// ErrNotFound reports a lookup miss on the requested record.
	ErrNotFound ErrorKind = "not_found"
	// ErrParentNotFound reports a child referencing a missing parent.
	ErrParentNotFound ErrorKind = "parent_not_found"
	// ErrParentBlocked reports a parent whose status forbids new children.
	ErrParentBlocked ErrorKind = "parent_blocked"
	// ErrIncompleteSignoff reports a release order missing a sign-off.
	ErrIncompleteSignoff ErrorKind = "incomplete_signoff"
	// ErrAlreadySigned reports a sign-off already held by a different user.
	ErrAlreadySigned ErrorKind = "already_signed"
	// ErrIllegalTransition reports a status edge outside the kind's table.
	ErrIllegalTransition ErrorKind = "illegal_transition"
	// ErrAlreadyTerminal reports a status with no outgoing edges.
	ErrAlreadyTerminal ErrorKind = "already_terminal"
	// ErrNoReactorRecords reports a transfer before any reactor record.
	ErrNoReactorRecords ErrorKind = "no_reactor_records"
	// ErrNoTransferProcess reports an analysis before any transfer.
	ErrNoTransferProcess ErrorKind = "no_transfer_process"
	// ErrPreparationMissing reports a sub-record on a missing aggregate.
	ErrPreparationMissing ErrorKind = "preparation_missing"
	// ErrConflict reports an optimistic-concurrency collision; the caller
	// should retry with fresh data.
	ErrConflict ErrorKind = "conflict"
	// ErrForbidden reports an actor whose role does not permit the command.
	ErrForbidden ErrorKind = "forbidden"
	// ErrStorageUnavailable reports a persistence failure; fatal for the
	// current call, never retried by the core.
	ErrStorageUnavailable ErrorKind = "storage_unavailable"
)

// Error is the uniform typed error returned by all manager operations.
type Error struct {
	Kind    ErrorKind
	Entity  EntityType
	Key     string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	switch {
	case e.Entity != "" && e.Key != "":
		return fmt.Sprintf("%s %s: %s", e.Entity, e.Key, msg)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s", e.Entity, msg)
	default:
		return msg
	}
}

// Unwrap exposes a wrapped cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.Err }

// NewError constructs a domain error for the given kind and subject.
func NewError(kind ErrorKind, entity EntityType, key, format string, args ...any) *Error {
	return &Error{Kind: kind, Entity: entity, Key: key, Message: fmt.Sprintf(format, args...)}
}

// WrapStorage marks err as a storage failure while keeping the cause.
func WrapStorage(entity EntityType, key string, err error) *Error {
	return &Error{Kind: ErrStorageUnavailable, Entity: entity, Key: key, Message: "storage unavailable", Err: err}
}

// IsKind reports whether err (or anything it wraps) is a domain error of
// the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// KindOf returns the domain error kind carried by err, or the empty string.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
