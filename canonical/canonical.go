// Package canonical implements the deterministic byte encoding every DCP hash
// and signature is computed over.
//
// The encoding is RFC 8785 (JSON Canonicalization Scheme): object members
// sorted by their literal key text, no insignificant whitespace, minimal
// string escaping, and ECMAScript shortest-round-trip number formatting.
// Two conforming implementations MUST produce byte-identical output for the
// same logical value; any divergence breaks every hash and signature check
// between them.
package canonical

import (
	"encoding/json"

	"github.com/gowebpki/jcs"
)

// EncodingError reports a value with no defined canonical form
// (NaN, non-finite floats, cyclic structures, non-JSON types).
type EncodingError struct {
	Message string
	Cause   error
}

func (e *EncodingError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *EncodingError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Marshal returns the canonical byte encoding of v.
//
// v may be any JSON-encodable value: the record structs in package bundle,
// generic map[string]any trees decoded from wire input, or plain scalars.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, &EncodingError{Message: "value has no canonical form", Cause: err}
	}
	return Transform(raw)
}

// Transform canonicalizes already-serialized JSON.
//
// This is the choke point for untrusted wire input: bytes received from a
// transport are canonicalized here before any digest or signature is derived
// from them, so unknown fields participate in every anchor.
func Transform(raw []byte) ([]byte, error) {
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, &EncodingError{Message: "input is not canonicalizable JSON", Cause: err}
	}
	return out, nil
}
