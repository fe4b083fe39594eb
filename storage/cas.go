// Package storage defines the content-addressable envelope store used to
// archive signed citizenship bundles and its backend contract.
//
// Envelopes are stored by the CID of their canonical bytes, so the same
// signed bundle always lands at the same address no matter which peer
// serialized it. Backends hold opaque immutable blobs; they never interpret
// envelope contents, and verification stays with the verifier.
package storage

import (
	"github.com/ipfs/go-cid"

	"dcp-ai.org/dcp/canonical"
)

// CAS is the backend contract for content-addressable envelope storage.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written (callers are responsible for
//   supplying canonical bytes; see PutEnvelope).
// - Get MUST return ErrNotFound when the CID is absent.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// PutEnvelope canonicalizes a JSON envelope and stores the canonical bytes.
//
// Canonicalizing before the write is what makes envelope addresses portable:
// two peers holding the same signed bundle in different JSON renderings
// compute the same CID.
func PutEnvelope(cas CAS, raw []byte) (cid.Cid, error) {
	canon, err := canonical.Transform(raw)
	if err != nil {
		return cid.Undef, err
	}
	return cas.Put(canon)
}

// EnvelopeCID returns the address an envelope would be stored at, without
// writing it.
func EnvelopeCID(raw []byte) (cid.Cid, error) {
	canon, err := canonical.Transform(raw)
	if err != nil {
		return cid.Undef, err
	}
	return CIDForBytes(canon)
}
