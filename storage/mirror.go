package storage

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
)

// Fallback provides deterministic, ordered read fallback across multiple
// envelope stores.
//
// Hydration order is the slice order in Stores; callers MUST supply a fixed
// order. This avoids map-iteration nondeterminism and makes the retrieval
// strategy explicit.
//
// Put writes only to the first store.
type Fallback struct {
	Stores []CAS
}

func (f Fallback) Put(bytes []byte) (cid.Cid, error) {
	if len(f.Stores) == 0 {
		return cid.Undef, errors.New("storage: Fallback has no stores")
	}
	return f.Stores[0].Put(bytes)
}

func (f Fallback) Get(id cid.Cid) ([]byte, error) {
	for _, s := range f.Stores {
		b, err := s.Get(id)
		if err == nil {
			return b, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (f Fallback) Has(id cid.Cid) bool {
	for _, s := range f.Stores {
		if s.Has(id) {
			return true
		}
	}
	return false
}

// Replica associates an envelope store with a stable backend name, used where
// callers need per-backend reporting (e.g. archival receipts).
type Replica struct {
	Name  string
	Store CAS
}

// Mirror writes every envelope to all replicas.
//
// Reads fall back in replica order. Writes go to all replicas and require all
// returned CIDs to match (otherwise ErrCIDMismatch is returned); a replica
// that disagrees about an envelope's address is corrupt or dishonest.
//
// Use PutAll when you need the per-replica CID mapping.
type Mirror struct {
	Replicas []Replica
}

var _ CAS = (*Mirror)(nil)

// PutAll writes the same bytes to all replicas.
//
// It returns the canonical CID (computed from bytes) and a map of replica
// name to returned CID. If any replica returns a different CID,
// ErrCIDMismatch is returned.
func (m Mirror) PutAll(bytes []byte) (cid.Cid, map[string]cid.Cid, error) {
	want, err := CIDForBytes(bytes)
	if err != nil {
		return cid.Undef, nil, err
	}
	if !want.Defined() {
		return cid.Undef, nil, ErrInvalidCID
	}
	if len(m.Replicas) == 0 {
		return cid.Undef, nil, fmt.Errorf("storage: Mirror has no replicas")
	}

	out := make(map[string]cid.Cid, len(m.Replicas))
	for _, r := range m.Replicas {
		if r.Store == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil store for replica %q", r.Name)
		}
		got, err := r.Store.Put(bytes)
		if err != nil {
			return cid.Undef, nil, err
		}
		out[r.Name] = got
		if got != want {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (m Mirror) Put(bytes []byte) (cid.Cid, error) {
	id, _, err := m.PutAll(bytes)
	return id, err
}

func (m Mirror) Get(id cid.Cid) ([]byte, error) {
	for _, r := range m.Replicas {
		if r.Store == nil {
			continue
		}
		out, err := r.Store.Get(id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (m Mirror) Has(id cid.Cid) bool {
	for _, r := range m.Replicas {
		if r.Store != nil && r.Store.Has(id) {
			return true
		}
	}
	return false
}
