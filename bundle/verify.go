package bundle

import (
	"encoding/json"
	"fmt"

	"dcp-ai.org/dcp/digest"
	"dcp-ai.org/dcp/keys"
)

// Reason is a stable, machine-distinguishable verification failure category.
// Callers should branch on Reason rather than matching rendered strings.
type Reason string

const (
	MalformedEnvelope  Reason = "MalformedEnvelope"
	MissingPublicKey   Reason = "MissingPublicKey"
	SignatureInvalid   Reason = "SignatureInvalid"
	BundleHashMismatch Reason = "BundleHashMismatch"
	MerkleRootMismatch Reason = "MerkleRootMismatch"
	IntentHashMismatch Reason = "IntentHashMismatch"
	PrevHashMismatch   Reason = "PrevHashMismatch"
)

// Failure is one verification failure with enough context for diagnostics.
type Failure struct {
	Reason   Reason `json:"reason"`
	Index    int    `json:"index"` // audit-entry index, or -1 when not applicable
	Expected string `json:"expected,omitempty"`
	Got      string `json:"got,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (f Failure) String() string {
	s := string(f.Reason)
	if f.Index >= 0 {
		s = fmt.Sprintf("%s (entry %d)", s, f.Index)
	}
	switch {
	case f.Expected != "" || f.Got != "":
		return fmt.Sprintf("%s: expected %s, got %s", s, f.Expected, f.Got)
	case f.Message != "":
		return s + ": " + f.Message
	default:
		return s
	}
}

// Report is the outcome of verifying a signed envelope. A failed verification
// is an ordinary, expected result, never an error or a panic.
type Report struct {
	Verified bool      `json:"verified"`
	Failures []Failure `json:"errors,omitempty"`
}

// Errors renders the failure list for display surfaces (CLI, HTTP bodies).
func (r *Report) Errors() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.String())
	}
	return out
}

func failed(f Failure) *Report {
	return &Report{Verified: false, Failures: []Failure{f}}
}

func malformed(msg string) *Report {
	return failed(Failure{Reason: MalformedEnvelope, Index: -1, Message: msg})
}

// VerifySignedBundle verifies an in-process envelope value.
//
// publicKeyB64 overrides the envelope's embedded signer key when non-empty.
// The envelope is re-serialized and checked through the same path as wire
// input, so both paths derive identical anchors.
func VerifySignedBundle(sb *SignedBundle, publicKeyB64 string) *Report {
	if sb == nil {
		return malformed("nil signed bundle")
	}
	raw, err := json.Marshal(sb)
	if err != nil {
		return malformed("envelope is not serializable")
	}
	return VerifyJSON(raw, publicKeyB64)
}

// VerifyJSON verifies an untrusted wire envelope.
//
// Checks run most-upstream-trust first and stop at the first failing layer:
//
//  1. structural sanity (bundle present, signature.sig_b64 present)
//  2. key resolution (override, else signer.public_key_b64)
//  3. Ed25519 signature over the bundle's canonical bytes — nothing else is
//     inspected when this fails
//  4. bundle_hash recomputation (only when tagged "sha256:")
//  5. merkle_root recomputation over the audit entries (only when tagged)
//  6. chain walk: every entry's intent_hash against the bundle's intent, and
//     every prev_hash against the predecessor's fingerprint (GENESIS first)
//
// All hashes are derived from the decoded envelope itself, so unknown fields
// an intermediary added participate in every anchor. Malformed input is a
// verification failure, never a panic.
func VerifyJSON(raw []byte, publicKeyB64 string) *Report {
	var env map[string]any
	if err := json.Unmarshal(raw, &env); err != nil {
		return malformed("envelope is not a JSON object")
	}

	bundleVal, ok := env["bundle"].(map[string]any)
	if !ok {
		return malformed("missing bundle")
	}
	sigBlock, _ := env["signature"].(map[string]any)
	sigB64, _ := sigBlock["sig_b64"].(string)
	if sigB64 == "" {
		return malformed("missing signature.sig_b64")
	}

	pub := publicKeyB64
	if pub == "" {
		signer, _ := sigBlock["signer"].(map[string]any)
		pub, _ = signer["public_key_b64"].(string)
	}
	if pub == "" {
		return failed(Failure{Reason: MissingPublicKey, Index: -1,
			Message: "provide a public key or include signer.public_key_b64"})
	}

	if !keys.VerifyValue(bundleVal, sigB64, pub) {
		return failed(Failure{Reason: SignatureInvalid, Index: -1})
	}

	if claimed, _ := sigBlock["bundle_hash"].(string); claimed != "" {
		if want, tagged := digest.Untag(claimed); tagged {
			got, err := digest.Fingerprint(bundleVal)
			if err != nil {
				return malformed("bundle has no canonical form")
			}
			if got != want {
				return failed(Failure{Reason: BundleHashMismatch, Index: -1,
					Expected: digest.Tag(got), Got: claimed})
			}
		}
	}

	entries, _ := bundleVal["audit_entries"].([]any)

	if claimed, _ := sigBlock["merkle_root"].(string); claimed != "" {
		if want, tagged := digest.Untag(claimed); tagged {
			leaves := make([]string, 0, len(entries))
			for _, e := range entries {
				leaf, err := digest.Fingerprint(e)
				if err != nil {
					return malformed("audit entry has no canonical form")
				}
				leaves = append(leaves, leaf)
			}
			got, err := digest.MerkleRoot(leaves)
			if err != nil || got == "" || got != want {
				f := Failure{Reason: MerkleRootMismatch, Index: -1, Got: claimed}
				if got != "" {
					f.Expected = digest.Tag(got)
				}
				return failed(f)
			}
		}
	}

	expectedIntentHash, err := digest.Fingerprint(bundleVal["intent"])
	if err != nil {
		return malformed("intent has no canonical form")
	}
	prevExpected := GenesisPrevHash
	for i, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			return failed(Failure{Reason: MalformedEnvelope, Index: i,
				Message: "audit entry is not an object"})
		}
		gotIntentHash, _ := entry["intent_hash"].(string)
		if gotIntentHash != expectedIntentHash {
			return failed(Failure{Reason: IntentHashMismatch, Index: i,
				Expected: expectedIntentHash, Got: gotIntentHash})
		}
		gotPrevHash, _ := entry["prev_hash"].(string)
		if gotPrevHash != prevExpected {
			return failed(Failure{Reason: PrevHashMismatch, Index: i,
				Expected: prevExpected, Got: gotPrevHash})
		}
		prevExpected, err = digest.Fingerprint(entry)
		if err != nil {
			return failed(Failure{Reason: MalformedEnvelope, Index: i,
				Message: "audit entry has no canonical form"})
		}
	}

	return &Report{Verified: true}
}
