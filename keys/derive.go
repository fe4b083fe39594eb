package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const deriveInfoPrefix = "dcp-keystore-v1:agent:"

// DeriveAgentSeed deterministically derives an agent-specific Ed25519 seed
// from a root human seed.
//
// The derivation is HKDF-SHA256 with a fixed, versioned info string, so the
// same (root seed, agent name) pair always yields the same agent key. Losing
// the root seed loses every derived agent key with it.
func DeriveAgentSeed(rootSeed []byte, agentName string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", ed25519.SeedSize)
	}
	if err := CheckKeyName(agentName); err != nil {
		return nil, err
	}

	r := hkdf.New(sha256.New, rootSeed, nil, []byte(deriveInfoPrefix+agentName))
	out := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, errors.New("kdf output too short")
	}
	return out, nil
}
