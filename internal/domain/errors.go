package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Session errors
var (
	ErrSessionConflict = errors.New("a focus session is already running")
	ErrNoActiveSession = errors.New("no active focus session")
)

// Challenge errors
var (
	ErrSelfChallenge    = errors.New("cannot challenge yourself")
	ErrNoOpponent       = errors.New("no opponent assigned")
	ErrNotEnoughMembers = errors.New("not enough group members")
)

// Group errors
var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrAlreadyInGroup = errors.New("user is already in a group")
)

// StorageError wraps an I/O failure against the durable clock store or the
// remote data store. Read paths retry these; the write that failed is fatal
// to its caller.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PartialResolutionError reports that a challenge outcome was committed but
// one or more secondary effects (stat deltas, lifetime total, audit record)
// failed. It is logged rather than retried automatically and never blocks
// rotation.
type PartialResolutionError struct {
	UserID string
	Day    string
	Errs   []error
}

func (e *PartialResolutionError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("resolution for user %s on %s partially failed: %s",
		e.UserID, e.Day, strings.Join(msgs, "; "))
}

func (e *PartialResolutionError) Unwrap() []error { return e.Errs }
