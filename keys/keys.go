package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"dcp-ai.org/dcp/canonical"
)

// Keypair holds a base64-encoded Ed25519 keypair.
//
// SecretKeyB64 encodes the 32-byte seed concatenated with the 32-byte public
// key (the crypto/ed25519 private-key layout), which keeps secret material
// portable across encodings and implementations.
type Keypair struct {
	PublicKeyB64 string
	SecretKeyB64 string
}

// GenerateKeypair creates a new Ed25519 keypair from crypto/rand.
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Keypair{
		PublicKeyB64: base64.StdEncoding.EncodeToString(pub),
		SecretKeyB64: base64.StdEncoding.EncodeToString(priv),
	}, nil
}

// KeypairFromSeed derives the keypair for a 32-byte Ed25519 seed.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Keypair{
		PublicKeyB64: base64.StdEncoding.EncodeToString(pub),
		SecretKeyB64: base64.StdEncoding.EncodeToString(priv),
	}, nil
}

// PublicKeyFromSecret derives the base64 public key from a base64 secret key.
//
// Accepts both the 64-byte seed||pub layout and a bare 32-byte seed.
func PublicKeyFromSecret(secretKeyB64 string) (string, error) {
	priv, err := decodeSecret(secretKeyB64)
	if err != nil {
		return "", err
	}
	pub := priv.Public().(ed25519.PublicKey)
	return base64.StdEncoding.EncodeToString(pub), nil
}

// SignValue returns a detached base64 Ed25519 signature over v's canonical
// byte encoding.
func SignValue(v any, secretKeyB64 string) (string, error) {
	msg, err := canonical.Marshal(v)
	if err != nil {
		return "", err
	}
	priv, err := decodeSecret(secretKeyB64)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ed25519.Sign(priv, msg)), nil
}

// VerifyValue verifies a detached signature over v's canonical bytes.
//
// Malformed input (bad base64, wrong key or signature length, unencodable
// value) degrades to false; VerifyValue never panics and never returns an
// error. A signature that fails to verify is an ordinary outcome, not an
// exceptional one.
func VerifyValue(v any, signatureB64, publicKeyB64 string) bool {
	msg, err := canonical.Marshal(v)
	if err != nil {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	pub, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), msg, sig)
}

func decodeSecret(secretKeyB64 string) (ed25519.PrivateKey, error) {
	b, err := base64.StdEncoding.DecodeString(secretKeyB64)
	if err != nil {
		return nil, fmt.Errorf("invalid secret key encoding: %w", err)
	}
	switch len(b) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(b), nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(b), nil
	default:
		return nil, fmt.Errorf("secret key must be %d or %d bytes, got %d",
			ed25519.PrivateKeySize, ed25519.SeedSize, len(b))
	}
}
