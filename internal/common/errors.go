// Package common defines shared constants and sentinel errors used across
// client and server layers of GTDKeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Auth errors.
	ErrInvalidPin = errors.New("invalid pin")

	// Sync errors. The engine folds every transport-level failure into this
	// value; the caller only needs to know that the round-trip did not land.
	ErrSyncFailed = errors.New("sync failed")
)

// PinHeaderName is the HTTP header carrying the opaque bearer credential
// (the user's PIN) on every authenticated request.
const PinHeaderName = "X-Auth-Pin"
