package bundle

import "encoding/json"

// Version is the DCP protocol version stamped on every record.
const Version = "1.0"

// GenesisPrevHash is the sentinel prev_hash of the first audit entry.
const GenesisPrevHash = "GENESIS"

// HumanBindingRecord (DCP-01) identifies the accountable human or
// organization. Immutable once issued; passports reference it by id.
type HumanBindingRecord struct {
	DCPVersion     string  `json:"dcp_version"`
	HumanID        string  `json:"human_id"`
	LegalName      string  `json:"legal_name"`
	EntityType     string  `json:"entity_type"` // natural_person | organization
	Jurisdiction   string  `json:"jurisdiction"`
	LiabilityMode  string  `json:"liability_mode"` // owner_responsible
	OverrideRights bool    `json:"override_rights"`
	IssuedAt       string  `json:"issued_at"`
	ExpiresAt      *string `json:"expires_at"`
	Contact        *string `json:"contact,omitempty"`
	Signature      string  `json:"signature"`
}

// AgentPassport (DCP-01) identifies an agent and binds it to a human.
// Status is the only field that may change after issuance.
type AgentPassport struct {
	DCPVersion            string   `json:"dcp_version"`
	AgentID               string   `json:"agent_id"`
	PublicKey             string   `json:"public_key"`
	HumanBindingReference string   `json:"human_binding_reference"`
	Capabilities          []string `json:"capabilities,omitempty"`
	RiskTier              string   `json:"risk_tier,omitempty"` // low | medium | high
	CreatedAt             string   `json:"created_at"`
	Status                string   `json:"status"` // active | revoked | suspended
	Signature             string   `json:"signature"`
}

// IntentTarget describes the channel an action is aimed at.
//
// Channel-specific attributes beyond the known fields are carried in Extra
// and preserved verbatim through every re-serialization; dropping them would
// desynchronize hashes between parties.
type IntentTarget struct {
	Channel string  // web | api | email | calendar | payments | crm | filesystem | runtime
	To      *string
	Domain  *string
	URL     *string

	// Extra holds channel-specific attributes outside the known fields.
	Extra map[string]any
}

// Intent (DCP-02) declares a single action before it is taken.
// Created once per action, immutable afterward.
type Intent struct {
	DCPVersion      string       `json:"dcp_version"`
	IntentID        string       `json:"intent_id"`
	AgentID         string       `json:"agent_id"`
	HumanID         string       `json:"human_id"`
	Timestamp       string       `json:"timestamp"`
	ActionType      string       `json:"action_type"`
	Target          IntentTarget `json:"target"`
	DataClasses     []string     `json:"data_classes"`
	EstimatedImpact string       `json:"estimated_impact"` // low | medium | high
	RequiresConsent *bool        `json:"requires_consent,omitempty"`
}

// RequiredConfirmation names the human confirmation a decision demands.
type RequiredConfirmation struct {
	Type   string   `json:"type"` // human_approve
	Fields []string `json:"fields,omitempty"`
}

// PolicyDecision (DCP-02) is the gating verdict for an intent.
type PolicyDecision struct {
	DCPVersion           string                `json:"dcp_version"`
	IntentID             string                `json:"intent_id"`
	Decision             string                `json:"decision"` // approve | escalate | block
	RiskScore            float64               `json:"risk_score"`
	Reasons              []string              `json:"reasons"`
	RequiredConfirmation *RequiredConfirmation `json:"required_confirmation,omitempty"`
}

// AuditEvidence is the open-ended payload attached to an audit entry.
// Unknown keys survive round-trips via Extra.
type AuditEvidence struct {
	Tool      *string
	ResultRef *string

	Extra map[string]any
}

// AuditEntry (DCP-03) records one outcome in the append-only chain.
//
// PrevHash must equal the fingerprint of the entry immediately before it
// (GenesisPrevHash for the first entry), and IntentHash must equal the
// fingerprint of the bundle's single intent.
type AuditEntry struct {
	DCPVersion     string        `json:"dcp_version"`
	AuditID        string        `json:"audit_id"`
	PrevHash       string        `json:"prev_hash"`
	Timestamp      string        `json:"timestamp"`
	AgentID        string        `json:"agent_id"`
	HumanID        string        `json:"human_id"`
	IntentID       string        `json:"intent_id"`
	IntentHash     string        `json:"intent_hash"`
	PolicyDecision string        `json:"policy_decision"` // approved | escalated | blocked
	Outcome        string        `json:"outcome"`
	Evidence       AuditEvidence `json:"evidence"`
}

// CitizenshipBundle aggregates the five required artifacts. It owns its
// children by value; entries are never removed or reordered after assembly.
type CitizenshipBundle struct {
	HumanBindingRecord HumanBindingRecord `json:"human_binding_record"`
	AgentPassport      AgentPassport      `json:"agent_passport"`
	Intent             Intent             `json:"intent"`
	PolicyDecision     PolicyDecision     `json:"policy_decision"`
	AuditEntries       []AuditEntry       `json:"audit_entries"`
}

// Signer identifies who signed a bundle.
type Signer struct {
	Type         string `json:"type"` // human | organization
	ID           string `json:"id"`
	PublicKeyB64 string `json:"public_key_b64"`
}

// BundleSignature is the signature block of a signed envelope. BundleHash and
// MerkleRoot carry the "sha256:" tag; an untagged or absent anchor means the
// corresponding check does not apply.
type BundleSignature struct {
	Alg        string  `json:"alg"` // ed25519
	CreatedAt  string  `json:"created_at"`
	Signer     Signer  `json:"signer"`
	BundleHash string  `json:"bundle_hash"`
	MerkleRoot *string `json:"merkle_root"`
	SigB64     string  `json:"sig_b64"`
}

// SignedBundle is the envelope exchanged between parties.
type SignedBundle struct {
	Bundle    CitizenshipBundle `json:"bundle"`
	Signature BundleSignature   `json:"signature"`
}

// RevocationRecord is a signed statement that an agent's passport is revoked.
// Revocation records are data; enforcement is an external concern.
type RevocationRecord struct {
	DCPVersion string `json:"dcp_version"`
	AgentID    string `json:"agent_id"`
	HumanID    string `json:"human_id"`
	Timestamp  string `json:"timestamp"`
	Reason     string `json:"reason"`
	Signature  string `json:"signature"`
}

// HumanConfirmation is a signed human approve/deny for an escalated intent.
type HumanConfirmation struct {
	DCPVersion string `json:"dcp_version"`
	IntentID   string `json:"intent_id"`
	HumanID    string `json:"human_id"`
	Timestamp  string `json:"timestamp"`
	Decision   string `json:"decision"` // approve | deny
	Signature  string `json:"signature"`
}

// MarshalJSON emits the known target fields plus Extra as flat members.
func (t IntentTarget) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(t.Extra)+4)
	for k, v := range t.Extra {
		m[k] = v
	}
	m["channel"] = t.Channel
	if t.To != nil {
		m["to"] = *t.To
	}
	if t.Domain != nil {
		m["domain"] = *t.Domain
	}
	if t.URL != nil {
		m["url"] = *t.URL
	}
	return json.Marshal(m)
}

// UnmarshalJSON splits known fields from channel-specific extras.
func (t *IntentTarget) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*t = IntentTarget{}
	if v, ok := m["channel"].(string); ok {
		t.Channel = v
		delete(m, "channel")
	}
	t.To = takeString(m, "to")
	t.Domain = takeString(m, "domain")
	t.URL = takeString(m, "url")
	if len(m) > 0 {
		t.Extra = m
	}
	return nil
}

// MarshalJSON always emits tool and result_ref (null when unset) plus extras,
// matching the DCP-03 wire form.
func (e AuditEvidence) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Extra)+2)
	for k, v := range e.Extra {
		m[k] = v
	}
	m["tool"] = nullable(e.Tool)
	m["result_ref"] = nullable(e.ResultRef)
	return json.Marshal(m)
}

func (e *AuditEvidence) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*e = AuditEvidence{}
	e.Tool = takeString(m, "tool")
	e.ResultRef = takeString(m, "result_ref")
	delete(m, "tool")
	delete(m, "result_ref")
	if len(m) > 0 {
		e.Extra = m
	}
	return nil
}

func takeString(m map[string]any, key string) *string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	delete(m, key)
	return &s
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
