// Package models defines server-side rows. Task and project rows are stored
// in their wire form (see internal/wire), so only the account row needs its
// own type.
package models

import "time"

// User is one account, identified solely by the digest of its PIN.
type User struct {
	ID        int64
	PinDigest string
	CreatedAt time.Time
}
