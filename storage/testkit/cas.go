// Package testkit provides a conformance harness for envelope store
// implementations.
package testkit

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"

	"dcp-ai.org/dcp/storage"
)

// NewStore constructs a fresh, empty envelope store for a test.
// The returned store MUST be isolated from other tests.
type NewStore func(t *testing.T) storage.CAS

// RunStoreConformance exercises the storage.CAS contract against an
// implementation. Every backend must pass this harness.
func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		st := newStore(t)
		want := []byte(`{"bundle":{"intent":"demo"},"signature":{}}`)

		id, err := st.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := storage.CIDForBytes(want)
		if err != nil {
			t.Fatalf("CIDForBytes failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := st.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}

		gotID, err := storage.CIDForBytes(got)
		if err != nil {
			t.Fatalf("CIDForBytes(got) failed: %v", err)
		}
		if gotID != id {
			t.Fatalf("Get returned bytes not matching requested CID")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		st := newStore(t)
		b := []byte(`{"same":"envelope"}`)

		id1, err := st.Put(b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := st.Put(b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		st := newStore(t)
		b := []byte(`{"missing":true}`)
		id, err := storage.CIDForBytes(b)
		if err != nil {
			t.Fatalf("CIDForBytes failed: %v", err)
		}

		if st.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		if _, err := st.Get(id); !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if _, err := st.Put(b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !st.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		st := newStore(t)
		var undef cid.Cid
		if st.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := st.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})
}
