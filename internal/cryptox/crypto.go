// Package cryptox contains the credential derivation used to key accounts.
package cryptox

import (
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// PinDigest derives a deterministic argon2id digest of a PIN under the given
// server-wide salt. The same pin and salt always yield the same digest, which
// lets the digest act as a unique account lookup key without storing the PIN.
func PinDigest(pin string, salt []byte) string {
	sum := argon2.IDKey([]byte(pin), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(sum)
}
