package storage

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CID contract for the envelope store: CIDv1, "raw" multicodec, sha2-256
// multihash. Every backend and every transport enforces the same derivation.

// CIDForBytes derives the store address for a blob.
func CIDForBytes(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// DecodeCID parses a CID string, mapping any parse failure to ErrInvalidCID.
func DecodeCID(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil || !id.Defined() {
		return cid.Undef, ErrInvalidCID
	}
	return id, nil
}
