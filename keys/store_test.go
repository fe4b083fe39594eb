package keys

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testStore(t *testing.T) *KeyStore {
	t.Helper()
	ks, err := CreateKeyStore(t.TempDir())
	if err != nil {
		t.Fatalf("CreateKeyStore: %v", err)
	}
	return ks
}

func testSeed(t *testing.T) []byte {
	t.Helper()
	seed, err := hex.DecodeString(rfc8032Seed)
	if err != nil {
		t.Fatalf("decode seed: %v", err)
	}
	return seed
}

func TestKeyStore_InitializeRootKey(t *testing.T) {
	ks := testStore(t)
	seed := testSeed(t)

	kp, path, err := ks.InitializeRootKey("alice", seed, false)
	if err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}
	if kp.PublicKeyB64 != rfc8032PubB64 {
		t.Fatalf("public key: %s", kp.PublicKeyB64)
	}
	if filepath.Base(path) != "root.key" {
		t.Fatalf("unexpected key path %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("key file permissions: %o", perm)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.TrimSpace(string(raw)) != rfc8032Seed {
		t.Fatalf("stored seed mismatch")
	}

	// Overwrite only with explicit consent.
	if _, _, err := ks.InitializeRootKey("alice", seed, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if _, _, err := ks.InitializeRootKey("alice", seed, true); err != nil {
		t.Fatalf("overwrite with force: %v", err)
	}
}

func TestKeyStore_DeriveAgentKeyIsStable(t *testing.T) {
	seed := testSeed(t)

	ks1 := testStore(t)
	if _, _, err := ks1.InitializeRootKey("alice", seed, false); err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}
	kp1, path, err := ks1.DeriveAgentKey("alice", "mailer", false)
	if err != nil {
		t.Fatalf("DeriveAgentKey: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join("agents", "mailer.key")) {
		t.Fatalf("unexpected agent key path %s", path)
	}

	// Same root seed in a fresh store derives the same agent key.
	ks2 := testStore(t)
	if _, _, err := ks2.InitializeRootKey("alice", seed, false); err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}
	kp2, _, err := ks2.DeriveAgentKey("alice", "mailer", false)
	if err != nil {
		t.Fatalf("DeriveAgentKey: %v", err)
	}
	if kp1.PublicKeyB64 != kp2.PublicKeyB64 {
		t.Fatalf("agent derivation not stable across stores")
	}

	if _, _, err := ks1.DeriveAgentKey("nobody", "mailer", false); err == nil {
		t.Fatalf("expected error for unknown root identity")
	}
}

func TestKeyStore_ExportPublicKey(t *testing.T) {
	ks := testStore(t)
	seed := testSeed(t)
	if _, _, err := ks.InitializeRootKey("alice", seed, false); err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}
	agentKP, _, err := ks.DeriveAgentKey("alice", "mailer", false)
	if err != nil {
		t.Fatalf("DeriveAgentKey: %v", err)
	}

	pub, err := ks.ExportPublicKey("alice", "")
	if err != nil {
		t.Fatalf("ExportPublicKey root: %v", err)
	}
	if pub != rfc8032PubB64 {
		t.Fatalf("root public key: %s", pub)
	}

	pub, err = ks.ExportPublicKey("alice", "mailer")
	if err != nil {
		t.Fatalf("ExportPublicKey agent: %v", err)
	}
	if pub != agentKP.PublicKeyB64 {
		t.Fatalf("agent public key: %s", pub)
	}

	if _, err := ks.ExportPublicKey("alice", "missing"); err == nil {
		t.Fatalf("expected error for unknown agent")
	}
}

func TestKeyStore_LoadSecret(t *testing.T) {
	ks := testStore(t)
	seed := testSeed(t)
	if _, _, err := ks.InitializeRootKey("alice", seed, false); err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}
	agentKP, agentPath, err := ks.DeriveAgentKey("alice", "mailer", false)
	if err != nil {
		t.Fatalf("DeriveAgentKey: %v", err)
	}
	rootKP, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeypairFromSeed: %v", err)
	}

	cases := []struct {
		name                                 string
		seedHex, signer, agent, keyFile, want string
	}{
		{"inline seed", rfc8032Seed, "", "", "", rootKP.SecretKeyB64},
		{"stored root", "", "alice", "", "", rootKP.SecretKeyB64},
		{"stored agent", "", "alice", "mailer", "", agentKP.SecretKeyB64},
		{"key file", "", "", "", agentPath, agentKP.SecretKeyB64},
	}
	for _, tc := range cases {
		got, err := ks.LoadSecret(tc.seedHex, tc.signer, tc.agent, tc.keyFile)
		if err != nil {
			t.Fatalf("%s: LoadSecret: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: secret mismatch", tc.name)
		}
	}

	if _, err := ks.LoadSecret("", "", "", ""); err == nil {
		t.Fatalf("expected error when no signer source is given")
	}
}

func TestKeyStore_ListKeys(t *testing.T) {
	ks := testStore(t)
	seed := testSeed(t)

	entries, err := ks.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys empty: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %v", entries)
	}

	for _, id := range []string{"bob", "alice"} {
		if _, _, err := ks.InitializeRootKey(id, seed, false); err != nil {
			t.Fatalf("InitializeRootKey(%s): %v", id, err)
		}
	}
	for _, agent := range []string{"scheduler", "mailer"} {
		if _, _, err := ks.DeriveAgentKey("alice", agent, false); err != nil {
			t.Fatalf("DeriveAgentKey(%s): %v", agent, err)
		}
	}

	entries, err = ks.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries: %v", entries)
	}
	if entries[0].Identifier != "alice" || entries[1].Identifier != "bob" {
		t.Fatalf("identifiers not sorted: %v", entries)
	}
	if len(entries[0].Agents) != 2 || entries[0].Agents[0] != "mailer" || entries[0].Agents[1] != "scheduler" {
		t.Fatalf("agents not sorted: %v", entries[0].Agents)
	}
}
