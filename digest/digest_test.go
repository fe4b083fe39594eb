package digest

import (
	"strings"
	"testing"
)

func TestFingerprint_InsensitiveToRendering(t *testing.T) {
	fromValue, err := Fingerprint(map[string]any{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	fromRaw, err := FingerprintRaw([]byte(`{ "a": 1, "b": 2 }`))
	if err != nil {
		t.Fatalf("FingerprintRaw: %v", err)
	}
	if fromValue != fromRaw {
		t.Fatalf("value %s != raw %s", fromValue, fromRaw)
	}
	if len(fromValue) != 64 || strings.ToLower(fromValue) != fromValue {
		t.Fatalf("not lowercase 64-char hex: %q", fromValue)
	}
}

func TestFingerprint_SensitiveToContent(t *testing.T) {
	a, err := Fingerprint(map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	b, err := Fingerprint(map[string]any{"k": "w"})
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if a == b {
		t.Fatalf("distinct values share fingerprint %s", a)
	}
}

func TestFingerprintRaw_RejectsNonJSON(t *testing.T) {
	if _, err := FingerprintRaw([]byte("{broken")); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}

func TestTagUntag(t *testing.T) {
	hexDigest := strings.Repeat("ab", 32)
	tagged := Tag(hexDigest)
	if tagged != "sha256:"+hexDigest {
		t.Fatalf("Tag: %s", tagged)
	}
	got, ok := Untag(tagged)
	if !ok || got != hexDigest {
		t.Fatalf("Untag round trip: %q %v", got, ok)
	}
	if _, ok := Untag(hexDigest); ok {
		t.Fatalf("untagged digest must not parse as tagged")
	}
	if _, ok := Untag("md5:" + hexDigest); ok {
		t.Fatalf("foreign tag must not parse")
	}
}
