// Package token implements the ownership token ledger and the per-token fee
// balance ledger.
//
// A token is a unique, transferable identifier. Whoever holds it controls the
// signer directory of the recipient record bound to it, and owns the fee
// balance accumulated under it. Tokens are recipient-independent once minted:
// a token can carry a balance with no recipient record bound to it.
package token

import (
	"errors"
	"math"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownToken = errors.New("token: unknown token id")
	ErrZeroOwner    = errors.New("token: zero owner address")
	ErrNotOwner     = errors.New("token: caller does not own token")
	ErrInsufficient = errors.New("token: insufficient balance")
	ErrAmountTooBig = errors.New("token: balance overflow")
)

// Ledger is the in-process token ledger.
//
// Every mutating operation is atomic: it either fully applies or fails with
// no state change.
type Ledger struct {
	mu       sync.RWMutex
	minted   uint64
	owners   map[uint64]common.Address
	balances map[uint64]uint64
}

func NewLedger() *Ledger {
	return &Ledger{
		owners:   make(map[uint64]common.Address),
		balances: make(map[uint64]uint64),
	}
}

// Mint creates a new token owned by owner and returns its id.
// Token ids are assigned sequentially starting at 1; 0 is never a valid id.
func (l *Ledger) Mint(owner common.Address) (uint64, error) {
	if owner == (common.Address{}) {
		return 0, ErrZeroOwner
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minted++
	id := l.minted
	l.owners[id] = owner
	return id, nil
}

// OwnerOf returns the current owner of id.
func (l *Ledger) OwnerOf(id uint64) (common.Address, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	owner, ok := l.owners[id]
	if !ok {
		return common.Address{}, ErrUnknownToken
	}
	return owner, nil
}

// Exists reports whether id has been minted.
func (l *Ledger) Exists(id uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.owners[id]
	return ok
}

// Counter returns the number of tokens minted so far, which is also the
// highest assigned token id.
func (l *Ledger) Counter() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.minted
}

// Transfer moves token ownership from caller to to.
//
// Transferring a token moves control of the bound recipient's signer
// directory along with it; the fee balance stays attached to the token.
func (l *Ledger) Transfer(caller, to common.Address, id uint64) error {
	if to == (common.Address{}) {
		return ErrZeroOwner
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	owner, ok := l.owners[id]
	if !ok {
		return ErrUnknownToken
	}
	if owner != caller {
		return ErrNotOwner
	}
	l.owners[id] = to
	return nil
}

// Credit adds amount to the token's fee balance. The balance entry is created
// implicitly on first credit. Credit is called by the fee-accrual module.
func (l *Ledger) Credit(id uint64, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.owners[id]; !ok {
		return ErrUnknownToken
	}
	cur := l.balances[id]
	if amount > math.MaxUint64-cur {
		return ErrAmountTooBig
	}
	l.balances[id] = cur + amount
	return nil
}

// Debit subtracts amount from the token's fee balance.
//
// The withdrawal/payout flow that calls Debit is an external module; the
// ledger only enforces that balances never go negative.
func (l *Ledger) Debit(id uint64, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.owners[id]; !ok {
		return ErrUnknownToken
	}
	cur := l.balances[id]
	if amount > cur {
		return ErrInsufficient
	}
	l.balances[id] = cur - amount
	return nil
}

// Balance returns the accumulated fee balance for id. Unknown ids report 0.
func (l *Ledger) Balance(id uint64) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[id]
}
