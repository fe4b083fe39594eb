package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// MerkleRoot computes the binary Merkle root over an ordered list of hex
// fingerprints.
//
// The input is the leaf layer. While more than one node remains, an
// odd-length layer duplicates its last node, then each adjacent pair is
// replaced by the SHA-256 of the pair's concatenated raw digest bytes (not
// the hex text), preserving order. A single leaf is its own root; an empty
// input returns "" (no root — the envelope field is omitted).
//
// The root is order-sensitive: swapping two leaves changes it.
func MerkleRoot(leaves []string) (string, error) {
	if len(leaves) == 0 {
		return "", nil
	}

	layer := make([][]byte, 0, len(leaves))
	for i, l := range leaves {
		b, err := hex.DecodeString(l)
		if err != nil {
			return "", fmt.Errorf("merkle: leaf %d is not hex: %w", i, err)
		}
		layer = append(layer, b)
	}

	for len(layer) > 1 {
		if len(layer)%2 == 1 {
			layer = append(layer, layer[len(layer)-1])
		}
		next := make([][]byte, 0, len(layer)/2)
		for i := 0; i < len(layer); i += 2 {
			sum := sha256.Sum256(append(append([]byte(nil), layer[i]...), layer[i+1]...))
			next = append(next, sum[:])
		}
		layer = next
	}
	return hex.EncodeToString(layer[0]), nil
}
