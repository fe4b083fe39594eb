// vectorgen emits a deterministic signed-bundle fixture for cross-SDK
// conformance checks: fixed seed, fixed timestamps, fixed ids. The printed
// envelope and anchors must be byte-stable across runs.
package main

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"time"

	"dcp-ai.org/dcp/bundle"
	"dcp-ai.org/dcp/digest"
	"dcp-ai.org/dcp/keys"
)

func mustKeypair(seedByte byte) *keys.Keypair {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = seedByte
	}
	kp, err := keys.KeypairFromSeed(seed)
	if err != nil {
		panic(err)
	}
	return kp
}

func strPtr(s string) *string { return &s }

func main() {
	kp := mustKeypair(0xD1)

	b := bundle.NewBuilder().
		HumanBindingRecord(bundle.HumanBindingRecord{
			DCPVersion:    bundle.Version,
			HumanID:       "human_vector",
			LegalName:     "Vector Human",
			EntityType:    "natural_person",
			Jurisdiction:  "US-CA",
			LiabilityMode: "owner_responsible",
			IssuedAt:      "2026-01-01T00:00:00Z",
		}).
		AgentPassport(bundle.AgentPassport{
			DCPVersion:            bundle.Version,
			AgentID:               "agent_vector",
			PublicKey:             kp.PublicKeyB64,
			HumanBindingReference: "human_vector",
			Capabilities:          []string{"send_email"},
			RiskTier:              "low",
			CreatedAt:             "2026-01-01T00:00:00Z",
			Status:                "active",
		}).
		Intent(bundle.Intent{
			DCPVersion: bundle.Version,
			IntentID:   "intent_vector",
			AgentID:    "agent_vector",
			HumanID:    "human_vector",
			Timestamp:  "2026-01-01T00:00:01Z",
			ActionType: "send_email",
			Target: bundle.IntentTarget{
				Channel: "email",
				To:      strPtr("counterparty@example.com"),
			},
			DataClasses:     []string{"contact"},
			EstimatedImpact: "low",
		}).
		PolicyDecision(bundle.PolicyDecision{
			DCPVersion: bundle.Version,
			IntentID:   "intent_vector",
			Decision:   "approve",
			RiskScore:  0.1,
			Reasons:    []string{"low impact email"},
		})

	for i, outcome := range []string{"success", "success"} {
		params := bundle.EntryParams{
			AuditID:        fmt.Sprintf("audit_vector_%d", i),
			Timestamp:      fmt.Sprintf("2026-01-01T00:00:0%dZ", i+2),
			AgentID:        "agent_vector",
			HumanID:        "human_vector",
			IntentID:       "intent_vector",
			PolicyDecision: "approved",
			Outcome:        outcome,
		}
		if i == 1 {
			params.Evidence = &bundle.AuditEvidence{
				Tool:  strPtr("smtp"),
				Extra: map[string]any{"message_id": "<vector@example.com>"},
			}
		}
		if _, err := b.CreateEntry(params); err != nil {
			panic(err)
		}
	}

	cb, err := b.Build()
	if err != nil {
		panic(err)
	}
	sb, err := bundle.Sign(cb, kp.SecretKeyB64, bundle.SignOptions{
		SignerType: "human",
		SignerID:   "human_vector",
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC),
	})
	if err != nil {
		panic(err)
	}

	report := bundle.VerifySignedBundle(sb, "")
	if !report.Verified {
		panic(fmt.Sprintf("fixture does not verify: %v", report.Errors()))
	}

	intentHash, err := digest.Fingerprint(sb.Bundle.Intent)
	if err != nil {
		panic(err)
	}

	envelope, err := json.MarshalIndent(sb, "", "  ")
	if err != nil {
		panic(err)
	}

	fmt.Printf("public_key_b64=%s\n", kp.PublicKeyB64)
	fmt.Printf("intent_hash=%s\n", intentHash)
	fmt.Printf("bundle_hash=%s\n", sb.Signature.BundleHash)
	if sb.Signature.MerkleRoot != nil {
		fmt.Printf("merkle_root=%s\n", *sb.Signature.MerkleRoot)
	}
	fmt.Printf("---BEGIN ENVELOPE---\n%s\n---END ENVELOPE---\n", envelope)
}
