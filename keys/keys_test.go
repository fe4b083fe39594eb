package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"math"
	"strings"
	"testing"
)

// RFC 8032 test vector 1.
const (
	rfc8032Seed   = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"
	rfc8032PubB64 = "11qYAYKxCrfVS/7TyWQHOg7hcvPapiMlrwIaaPcHURo="
)

func TestKeypairFromSeed_KnownVector(t *testing.T) {
	seed, err := hex.DecodeString(rfc8032Seed)
	if err != nil {
		t.Fatalf("decode seed: %v", err)
	}
	kp, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeypairFromSeed: %v", err)
	}
	if kp.PublicKeyB64 != rfc8032PubB64 {
		t.Fatalf("public key: got %s want %s", kp.PublicKeyB64, rfc8032PubB64)
	}

	sec, err := base64.StdEncoding.DecodeString(kp.SecretKeyB64)
	if err != nil {
		t.Fatalf("decode secret: %v", err)
	}
	if len(sec) != ed25519.PrivateKeySize {
		t.Fatalf("secret key length: got %d want %d", len(sec), ed25519.PrivateKeySize)
	}
}

func TestKeypairFromSeed_RejectsBadLength(t *testing.T) {
	if _, err := KeypairFromSeed(make([]byte, 16)); err == nil {
		t.Fatalf("expected error for short seed")
	}
}

func TestGenerateKeypair_SignVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}

	value := map[string]any{"b": 2, "a": "payload"}
	sig, err := SignValue(value, kp.SecretKeyB64)
	if err != nil {
		t.Fatalf("SignValue: %v", err)
	}
	if !VerifyValue(value, sig, kp.PublicKeyB64) {
		t.Fatalf("signature did not verify")
	}

	// Different rendering of the same logical value still verifies.
	equivalent := map[string]any{"a": "payload", "b": 2.0}
	if !VerifyValue(equivalent, sig, kp.PublicKeyB64) {
		t.Fatalf("canonically equal value did not verify")
	}

	tampered := map[string]any{"a": "payload!", "b": 2}
	if VerifyValue(tampered, sig, kp.PublicKeyB64) {
		t.Fatalf("tampered value verified")
	}
}

func TestVerifyValue_DegradesToFalse(t *testing.T) {
	kp, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	value := map[string]any{"k": "v"}
	sig, err := SignValue(value, kp.SecretKeyB64)
	if err != nil {
		t.Fatalf("SignValue: %v", err)
	}

	cases := []struct {
		name string
		v    any
		sig  string
		pub  string
	}{
		{"bad signature base64", value, "%%%not-base64%%%", kp.PublicKeyB64},
		{"short signature", value, base64.StdEncoding.EncodeToString([]byte("short")), kp.PublicKeyB64},
		{"bad key base64", value, sig, "%%%not-base64%%%"},
		{"short key", value, sig, base64.StdEncoding.EncodeToString([]byte("short"))},
		{"unencodable value", map[string]any{"x": math.NaN()}, sig, kp.PublicKeyB64},
		{"wrong key", value, sig, mustOtherPub(t)},
	}
	for _, tc := range cases {
		if VerifyValue(tc.v, tc.sig, tc.pub) {
			t.Fatalf("%s: verified", tc.name)
		}
	}
}

func mustOtherPub(t *testing.T) string {
	t.Helper()
	kp, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	return kp.PublicKeyB64
}

func TestPublicKeyFromSecret_AcceptsBothLayouts(t *testing.T) {
	seed, err := hex.DecodeString(rfc8032Seed)
	if err != nil {
		t.Fatalf("decode seed: %v", err)
	}
	kp, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeypairFromSeed: %v", err)
	}

	fromFull, err := PublicKeyFromSecret(kp.SecretKeyB64)
	if err != nil {
		t.Fatalf("PublicKeyFromSecret full: %v", err)
	}
	fromSeed, err := PublicKeyFromSecret(base64.StdEncoding.EncodeToString(seed))
	if err != nil {
		t.Fatalf("PublicKeyFromSecret seed: %v", err)
	}
	if fromFull != rfc8032PubB64 || fromSeed != rfc8032PubB64 {
		t.Fatalf("derived keys diverge: %s / %s", fromFull, fromSeed)
	}

	if _, err := PublicKeyFromSecret(base64.StdEncoding.EncodeToString(make([]byte, 48))); err == nil {
		t.Fatalf("expected error for 48-byte secret")
	}
	if _, err := PublicKeyFromSecret("not base64 at all"); err == nil {
		t.Fatalf("expected error for invalid encoding")
	}
}

func TestDeriveAgentSeed(t *testing.T) {
	root, err := hex.DecodeString(rfc8032Seed)
	if err != nil {
		t.Fatalf("decode seed: %v", err)
	}

	a1, err := DeriveAgentSeed(root, "mailer")
	if err != nil {
		t.Fatalf("DeriveAgentSeed: %v", err)
	}
	a2, err := DeriveAgentSeed(root, "mailer")
	if err != nil {
		t.Fatalf("DeriveAgentSeed: %v", err)
	}
	if hex.EncodeToString(a1) != hex.EncodeToString(a2) {
		t.Fatalf("derivation is not deterministic")
	}
	if len(a1) != ed25519.SeedSize {
		t.Fatalf("derived seed length: %d", len(a1))
	}

	b, err := DeriveAgentSeed(root, "scheduler")
	if err != nil {
		t.Fatalf("DeriveAgentSeed: %v", err)
	}
	if hex.EncodeToString(a1) == hex.EncodeToString(b) {
		t.Fatalf("distinct agents share a seed")
	}

	if _, err := DeriveAgentSeed(make([]byte, 16), "mailer"); err == nil {
		t.Fatalf("expected error for short root seed")
	}
	if _, err := DeriveAgentSeed(root, "../escape"); err == nil {
		t.Fatalf("expected error for invalid agent name")
	}
}

func TestParseSeedHex(t *testing.T) {
	seed, err := ParseSeedHex("0x" + rfc8032Seed)
	if err != nil {
		t.Fatalf("ParseSeedHex with prefix: %v", err)
	}
	if hex.EncodeToString(seed) != rfc8032Seed {
		t.Fatalf("seed mismatch")
	}
	if _, err := ParseSeedHex("  " + rfc8032Seed + "\n"); err != nil {
		t.Fatalf("ParseSeedHex with whitespace: %v", err)
	}
	if _, err := ParseSeedHex(rfc8032Seed[:32]); err == nil {
		t.Fatalf("expected error for short seed")
	}
	if _, err := ParseSeedHex(strings.Repeat("zz", 32)); err == nil {
		t.Fatalf("expected error for non-hex seed")
	}
}

func TestCheckKeyName(t *testing.T) {
	for _, ok := range []string{"alice", "Alice-2", "agent_01"} {
		if err := CheckKeyName(ok); err != nil {
			t.Fatalf("CheckKeyName(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "a/b", "..", "a b", "a.b"} {
		if err := CheckKeyName(bad); err == nil {
			t.Fatalf("CheckKeyName(%q) accepted", bad)
		}
	}
}
