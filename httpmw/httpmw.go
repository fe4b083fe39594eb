// Package httpmw gates HTTP handlers on a verified citizenship bundle.
//
// Agents attach their signed bundle envelope to requests in a header
// (base64-encoded JSON). The middleware verifies the envelope against a
// configured signer key before the request reaches the handler; requests
// that fail verification are rejected with 403 and the verification report,
// so callers can machine-distinguish the failure.
package httpmw

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"dcp-ai.org/dcp/bundle"
)

// DefaultHeader is the request header carrying the base64-encoded envelope.
const DefaultHeader = "X-DCP-Bundle"

// DefaultMaxBytes bounds the decoded envelope size.
const DefaultMaxBytes = 1 << 20

// Options configures RequireSignedBundle.
type Options struct {
	// PublicKeyB64 is the base64 Ed25519 key envelopes must verify against.
	PublicKeyB64 string

	// Header overrides DefaultHeader when non-empty.
	Header string

	// RequireBundle rejects requests without the header. When false, requests
	// without a bundle pass through unverified and VerifiedBundle returns nil.
	RequireBundle bool

	// MaxBytes bounds the decoded envelope size; DefaultMaxBytes when zero.
	MaxBytes int
}

type contextKey struct{}

// VerifiedBundle returns the envelope that verified for this request, or nil
// when the request carried none.
func VerifiedBundle(ctx context.Context) *bundle.SignedBundle {
	sb, _ := ctx.Value(contextKey{}).(*bundle.SignedBundle)
	return sb
}

// RequireSignedBundle wraps next, admitting only requests whose attached
// envelope verifies. The verified envelope is available to next via
// VerifiedBundle.
func RequireSignedBundle(next http.Handler, opts Options) http.Handler {
	header := opts.Header
	if header == "" {
		header = DefaultHeader
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		encoded := r.Header.Get(header)
		if encoded == "" {
			if opts.RequireBundle {
				reject(w, http.StatusForbidden, []string{"missing " + header + " header"})
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			reject(w, http.StatusBadRequest, []string{"header is not valid base64"})
			return
		}
		if len(raw) > maxBytes {
			reject(w, http.StatusRequestEntityTooLarge, []string{"envelope exceeds size limit"})
			return
		}

		report := bundle.VerifyJSON(raw, opts.PublicKeyB64)
		if !report.Verified {
			reject(w, http.StatusForbidden, report.Errors())
			return
		}

		var sb bundle.SignedBundle
		if err := json.Unmarshal(raw, &sb); err != nil {
			// Verified envelopes are well-formed JSON objects; decoding into
			// the typed form cannot fail past this point.
			reject(w, http.StatusForbidden, []string{"malformed_envelope"})
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, &sb)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func reject(w http.ResponseWriter, code int, errs []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"verified": false,
		"errors":   errs,
	})
}
