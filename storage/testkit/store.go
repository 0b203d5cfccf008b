// Package testkit provides the shared conformance suite for journal stores.
package testkit

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/feereg/contentid"
	"xdao.co/feereg/storage"
)

// NewStore constructs a fresh, empty Store instance for a test.
// The returned Store MUST be isolated from other tests.
type NewStore func(t *testing.T) storage.Store

// RunStoreConformance exercises the storage.Store contract against an
// implementation. Every backend test file should call it.
func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		st := newStore(t)
		want := []byte("hello, feereg journal")

		id, err := st.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := contentid.ForBytes(want)
		if err != nil {
			t.Fatalf("contentid.ForBytes failed: %v", err)
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
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		st := newStore(t)
		b := []byte("same bytes")

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
		b := []byte("missing")
		id, err := contentid.ForBytes(b)
		if err != nil {
			t.Fatalf("contentid.ForBytes failed: %v", err)
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
