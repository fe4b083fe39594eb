// Package keys provides Ed25519 signing primitives and local key storage for
// the DCP reference implementation.
//
// API stability:
//
// Stable (SemVer-protected):
//   - Keypair generation, public-key derivation, and detached value
//     signing/verification over canonical bytes.
//
// Experimental:
//   - Filesystem-backed key storage and agent-seed derivation (KeyStore and
//     related functions). These are local-first utilities and are not part of
//     the long-term protocol contract.
package keys
