package bundle

import (
	"errors"
	"time"

	"dcp-ai.org/dcp/digest"
	"dcp-ai.org/dcp/keys"
)

// SignOptions control envelope metadata. Zero values select the defaults:
// signer type "human", signer id from the bundle's binding record, and the
// current time.
type SignOptions struct {
	SignerType string // human | organization
	SignerID   string
	CreatedAt  time.Time
}

// Sign wraps a bundle into a signed envelope.
//
// It computes the tagged bundle hash and Merkle root, derives the public key
// from the secret key, and signs the bundle's canonical bytes. Signing has no
// side effects and no hidden state; the envelope is a plain value.
func Sign(b *CitizenshipBundle, secretKeyB64 string, opts SignOptions) (*SignedBundle, error) {
	if b == nil {
		return nil, errors.New("bundle: nil bundle")
	}

	bundleHash, err := digest.Fingerprint(b)
	if err != nil {
		return nil, err
	}

	leaves := make([]string, 0, len(b.AuditEntries))
	for _, e := range b.AuditEntries {
		leaf, err := digest.Fingerprint(e)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, leaf)
	}
	root, err := digest.MerkleRoot(leaves)
	if err != nil {
		return nil, err
	}
	var merkleRoot *string
	if root != "" {
		tagged := digest.Tag(root)
		merkleRoot = &tagged
	}

	publicKeyB64, err := keys.PublicKeyFromSecret(secretKeyB64)
	if err != nil {
		return nil, err
	}
	sigB64, err := keys.SignValue(b, secretKeyB64)
	if err != nil {
		return nil, err
	}

	signerType := opts.SignerType
	if signerType == "" {
		signerType = "human"
	}
	signerID := opts.SignerID
	if signerID == "" {
		signerID = b.HumanBindingRecord.HumanID
	}
	createdAt := opts.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &SignedBundle{
		Bundle: *b,
		Signature: BundleSignature{
			Alg:       "ed25519",
			CreatedAt: createdAt.UTC().Format(time.RFC3339),
			Signer: Signer{
				Type:         signerType,
				ID:           signerID,
				PublicKeyB64: publicKeyB64,
			},
			BundleHash: digest.Tag(bundleHash),
			MerkleRoot: merkleRoot,
			SigB64:     sigB64,
		},
	}, nil
}
