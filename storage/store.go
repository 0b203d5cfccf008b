// Package storage defines the object store backing the registry audit journal.
package storage

import (
	"errors"

	"github.com/ipfs/go-cid"
)

// Store is a minimal content-addressed object store for audit records.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable; a Put that would change the bytes
//   behind an existing CID MUST fail with ErrImmutable.
// - CIDs MUST be derived from the bytes written (callers supply canonical
//   record bytes; the store re-derives and checks).
// - Get MUST return ErrNotFound when the CID is absent.
type Store interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrInvalidCID  = errors.New("storage: invalid cid")
	ErrCIDMismatch = errors.New("storage: cid mismatch")
	ErrImmutable   = errors.New("storage: immutable object mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
