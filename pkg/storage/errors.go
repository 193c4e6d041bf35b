package storage

import "errors"

// ErrNotFound is returned when the referenced request, trade, user or balance
// record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidStateTransition is returned when a request is not in the state the
// requested transition requires. The caller must re-read current state before
// deciding what to do; retrying the same call will fail again.
var ErrInvalidStateTransition = errors.New("invalid state transition")

// ErrAlreadySettled is returned when a trade's result has already been set.
var ErrAlreadySettled = errors.New("trade already settled")

// ErrInvalidAmount is returned for zero, negative or unparseable amounts.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrInsufficientBalance is returned when a debit or freeze exceeds the
// available balance. No partial mutation is applied.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrConcurrentModification is returned when a mutation lost the per-key race
// against another writer. Safe to retry after re-reading state.
var ErrConcurrentModification = errors.New("concurrent modification")

// ErrUnauthorized is returned when the admin credential is missing or expired.
var ErrUnauthorized = errors.New("unauthorized")
