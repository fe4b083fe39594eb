// Package digest provides content fingerprints and the Merkle accumulator
// used to anchor DCP bundles.
//
// A fingerprint is the lowercase-hex SHA-256 of a value's canonical byte
// encoding. Fingerprints are used for object identity, audit-chain links,
// the bundle hash, and Merkle leaves.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"dcp-ai.org/dcp/canonical"
)

// TagPrefix marks externally-surfaced digests. Absence of the prefix on an
// envelope field means "check not applicable", not "check failed".
const TagPrefix = "sha256:"

// Fingerprint returns the SHA-256 hex digest of v's canonical encoding.
func Fingerprint(v any) (string, error) {
	b, err := canonical.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// FingerprintRaw returns the fingerprint of already-serialized JSON,
// canonicalizing it first.
func FingerprintRaw(raw []byte) (string, error) {
	b, err := canonical.Transform(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Tag prefixes a hex digest with the external hash-tag convention.
func Tag(hexDigest string) string {
	return TagPrefix + hexDigest
}

// Untag strips the hash-tag prefix. ok is false when the prefix is absent,
// in which case the corresponding verification layer does not apply.
func Untag(tagged string) (hexDigest string, ok bool) {
	if !strings.HasPrefix(tagged, TagPrefix) {
		return "", false
	}
	return strings.TrimPrefix(tagged, TagPrefix), true
}
