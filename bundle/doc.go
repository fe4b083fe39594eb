// Package bundle implements the DCP citizenship bundle: the record types,
// the assembler that enforces audit-chain linkage, the envelope signer, and
// the layered verifier.
//
// A bundle aggregates exactly one human binding record (DCP-01), one agent
// passport (DCP-01), one intent (DCP-02), one policy decision (DCP-02), and a
// non-empty ordered audit chain (DCP-03). Every hash and signature in the
// envelope is derived from canonical bytes (package canonical); consumers
// must never hand-construct prev_hash, intent_hash, bundle_hash, or
// merkle_root.
package bundle
