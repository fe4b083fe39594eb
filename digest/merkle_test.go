package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
)

func leaf(t *testing.T, s string) string {
	t.Helper()
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func pairHash(t *testing.T, a, b string) string {
	t.Helper()
	ab, err := hex.DecodeString(a)
	if err != nil {
		t.Fatalf("decode %q: %v", a, err)
	}
	bb, err := hex.DecodeString(b)
	if err != nil {
		t.Fatalf("decode %q: %v", b, err)
	}
	sum := sha256.Sum256(append(ab, bb...))
	return hex.EncodeToString(sum[:])
}

func TestMerkleRoot_Empty(t *testing.T) {
	root, err := MerkleRoot(nil)
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}
	if root != "" {
		t.Fatalf("empty input must yield no root, got %q", root)
	}
}

func TestMerkleRoot_SingleLeafIsItsOwnRoot(t *testing.T) {
	l := leaf(t, "only")
	root, err := MerkleRoot([]string{l})
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}
	if root != l {
		t.Fatalf("got %s want %s", root, l)
	}
}

func TestMerkleRoot_TwoLeaves(t *testing.T) {
	l1, l2 := leaf(t, "one"), leaf(t, "two")
	root, err := MerkleRoot([]string{l1, l2})
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}
	if want := pairHash(t, l1, l2); root != want {
		t.Fatalf("got %s want %s", root, want)
	}
}

func TestMerkleRoot_OddLayerDuplicatesLastLeaf(t *testing.T) {
	l1, l2, l3 := leaf(t, "one"), leaf(t, "two"), leaf(t, "three")
	root, err := MerkleRoot([]string{l1, l2, l3})
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}
	want := pairHash(t, pairHash(t, l1, l2), pairHash(t, l3, l3))
	if root != want {
		t.Fatalf("got %s want %s", root, want)
	}
}

func TestMerkleRoot_OrderSensitive(t *testing.T) {
	l1, l2 := leaf(t, "one"), leaf(t, "two")
	a, err := MerkleRoot([]string{l1, l2})
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}
	b, err := MerkleRoot([]string{l2, l1})
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}
	if a == b {
		t.Fatalf("swapped leaves must change the root")
	}
}

func TestMerkleRoot_Deterministic(t *testing.T) {
	leaves := make([]string, 7)
	for i := range leaves {
		leaves[i] = leaf(t, fmt.Sprintf("leaf-%d", i))
	}
	a, err := MerkleRoot(leaves)
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}
	b, err := MerkleRoot(leaves)
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}
	if a != b {
		t.Fatalf("nondeterministic root: %s vs %s", a, b)
	}
}

func TestMerkleRoot_RejectsNonHexLeaf(t *testing.T) {
	if _, err := MerkleRoot([]string{"not-hex"}); err == nil {
		t.Fatalf("expected error for non-hex leaf")
	}
}
