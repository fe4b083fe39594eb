package bundle

import (
	"time"

	"github.com/google/uuid"

	"dcp-ai.org/dcp/digest"
)

// Builder accumulates the five bundle artifacts and enforces audit-chain
// linkage while entries are added.
//
// A Builder is single-writer and single-bundle: one instance per logical
// bundle under construction, never shared across goroutines without external
// locking. Each artifact slot is set-once; Build finalizes the builder and
// returns a defensive copy, so later misuse cannot reach into a bundle that
// was already handed out.
type Builder struct {
	hbr     *HumanBindingRecord
	passport *AgentPassport
	intent  *Intent
	policy  *PolicyDecision
	entries []AuditEntry

	spent bool
	err   error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) setErr(msg string) {
	if b.err == nil {
		b.err = &BuildError{Message: msg}
	}
}

func (b *Builder) checkUsable() bool {
	if b.spent {
		b.setErr("bundle: builder already finalized")
		return false
	}
	return b.err == nil
}

// HumanBindingRecord sets the DCP-01 binding record slot.
func (b *Builder) HumanBindingRecord(h HumanBindingRecord) *Builder {
	if !b.checkUsable() {
		return b
	}
	if b.hbr != nil {
		b.setErr("bundle: human_binding_record already set")
		return b
	}
	c := cloneHBR(h)
	b.hbr = &c
	return b
}

// AgentPassport sets the DCP-01 passport slot.
func (b *Builder) AgentPassport(p AgentPassport) *Builder {
	if !b.checkUsable() {
		return b
	}
	if b.passport != nil {
		b.setErr("bundle: agent_passport already set")
		return b
	}
	c := clonePassport(p)
	b.passport = &c
	return b
}

// Intent sets the DCP-02 intent slot.
func (b *Builder) Intent(i Intent) *Builder {
	if !b.checkUsable() {
		return b
	}
	if b.intent != nil {
		b.setErr("bundle: intent already set")
		return b
	}
	c := cloneIntent(i)
	b.intent = &c
	return b
}

// PolicyDecision sets the DCP-02 decision slot.
func (b *Builder) PolicyDecision(p PolicyDecision) *Builder {
	if !b.checkUsable() {
		return b
	}
	if b.policy != nil {
		b.setErr("bundle: policy_decision already set")
		return b
	}
	c := clonePolicy(p)
	b.policy = &c
	return b
}

// AddEntry appends a pre-built audit entry as-is. The caller is responsible
// for the entry's prev_hash and intent_hash; prefer CreateEntry, which
// computes both.
func (b *Builder) AddEntry(e AuditEntry) *Builder {
	if !b.checkUsable() {
		return b
	}
	b.entries = append(b.entries, cloneEntry(e))
	return b
}

// EntryParams are the caller-supplied fields of a new audit entry.
// AuditID defaults to a fresh UUID and Timestamp to the current time.
type EntryParams struct {
	AuditID        string
	Timestamp      string
	AgentID        string
	HumanID        string
	IntentID       string
	PolicyDecision string // approved | escalated | blocked
	Outcome        string
	Evidence       *AuditEvidence
}

// CreateEntry builds and appends a new audit entry, computing intent_hash
// from the bundle's intent and prev_hash from the previous entry
// (GenesisPrevHash for the first). The intent slot must be set first.
func (b *Builder) CreateEntry(p EntryParams) (*AuditEntry, error) {
	if b.spent {
		return nil, &BuildError{Message: "bundle: builder already finalized"}
	}
	if b.err != nil {
		return nil, b.err
	}
	if b.intent == nil {
		return nil, missingArtifact("intent")
	}

	intentHash, err := digest.Fingerprint(b.intent)
	if err != nil {
		return nil, err
	}
	prevHash := GenesisPrevHash
	if n := len(b.entries); n > 0 {
		prevHash, err = digest.Fingerprint(b.entries[n-1])
		if err != nil {
			return nil, err
		}
	}

	entry := AuditEntry{
		DCPVersion:     Version,
		AuditID:        p.AuditID,
		PrevHash:       prevHash,
		Timestamp:      p.Timestamp,
		AgentID:        p.AgentID,
		HumanID:        p.HumanID,
		IntentID:       p.IntentID,
		IntentHash:     intentHash,
		PolicyDecision: p.PolicyDecision,
		Outcome:        p.Outcome,
	}
	if entry.AuditID == "" {
		entry.AuditID = "audit_" + uuid.NewString()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if p.Evidence != nil {
		entry.Evidence = cloneEvidence(*p.Evidence)
	}

	b.entries = append(b.entries, entry)
	out := cloneEntry(entry)
	return &out, nil
}

// Build finalizes the builder and returns an immutable bundle.
//
// It fails with a *BuildError naming the first absent slot, or reporting any
// earlier misuse (duplicate slot set, use after Build). The returned bundle
// is a deep copy: the builder cannot mutate it afterwards.
func (b *Builder) Build() (*CitizenshipBundle, error) {
	if b.spent {
		return nil, &BuildError{Message: "bundle: builder already finalized"}
	}
	if b.err != nil {
		return nil, b.err
	}
	switch {
	case b.hbr == nil:
		return nil, missingArtifact("human_binding_record")
	case b.passport == nil:
		return nil, missingArtifact("agent_passport")
	case b.intent == nil:
		return nil, missingArtifact("intent")
	case b.policy == nil:
		return nil, missingArtifact("policy_decision")
	case len(b.entries) == 0:
		return nil, missingArtifact("audit_entries")
	}

	out := &CitizenshipBundle{
		HumanBindingRecord: cloneHBR(*b.hbr),
		AgentPassport:      clonePassport(*b.passport),
		Intent:             cloneIntent(*b.intent),
		PolicyDecision:     clonePolicy(*b.policy),
		AuditEntries:       make([]AuditEntry, 0, len(b.entries)),
	}
	for _, e := range b.entries {
		out.AuditEntries = append(out.AuditEntries, cloneEntry(e))
	}
	b.spent = true
	return out, nil
}
