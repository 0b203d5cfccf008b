package token

import (
	"errors"
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func TestMintAssignsSequentialIDs(t *testing.T) {
	l := NewLedger()
	for want := uint64(1); want <= 3; want++ {
		id, err := l.Mint(alice)
		if err != nil {
			t.Fatalf("Mint: %v", err)
		}
		if id != want {
			t.Fatalf("Mint id = %d, want %d", id, want)
		}
	}
	if got := l.Counter(); got != 3 {
		t.Fatalf("Counter = %d, want 3", got)
	}
}

func TestMintRejectsZeroOwner(t *testing.T) {
	l := NewLedger()
	if _, err := l.Mint(common.Address{}); !errors.Is(err, ErrZeroOwner) {
		t.Fatalf("Mint(zero) err = %v, want ErrZeroOwner", err)
	}
	if got := l.Counter(); got != 0 {
		t.Fatalf("Counter advanced on failed mint: %d", got)
	}
}

func TestOwnerOf(t *testing.T) {
	l := NewLedger()
	id, _ := l.Mint(alice)

	owner, err := l.OwnerOf(id)
	if err != nil {
		t.Fatalf("OwnerOf: %v", err)
	}
	if owner != alice {
		t.Fatalf("OwnerOf = %s, want %s", owner, alice)
	}
	if _, err := l.OwnerOf(99); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("OwnerOf(unknown) err = %v, want ErrUnknownToken", err)
	}
	if l.Exists(0) {
		t.Fatalf("Exists(0) = true; 0 is never a valid id")
	}
}

func TestTransfer(t *testing.T) {
	l := NewLedger()
	id, _ := l.Mint(alice)

	if err := l.Transfer(bob, alice, id); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("Transfer by non-owner err = %v, want ErrNotOwner", err)
	}
	if err := l.Transfer(alice, common.Address{}, id); !errors.Is(err, ErrZeroOwner) {
		t.Fatalf("Transfer to zero err = %v, want ErrZeroOwner", err)
	}
	if err := l.Transfer(alice, bob, 42); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("Transfer unknown err = %v, want ErrUnknownToken", err)
	}

	if err := l.Transfer(alice, bob, id); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	owner, _ := l.OwnerOf(id)
	if owner != bob {
		t.Fatalf("owner after transfer = %s, want %s", owner, bob)
	}
	// Old owner lost control.
	if err := l.Transfer(alice, alice, id); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("Transfer by previous owner err = %v, want ErrNotOwner", err)
	}
}

func TestCreditDebitBalance(t *testing.T) {
	l := NewLedger()
	id, _ := l.Mint(alice)

	if got := l.Balance(id); got != 0 {
		t.Fatalf("fresh Balance = %d, want 0", got)
	}
	if err := l.Credit(7, 10); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("Credit unknown err = %v, want ErrUnknownToken", err)
	}
	if err := l.Credit(id, 100); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := l.Credit(id, 50); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if got := l.Balance(id); got != 150 {
		t.Fatalf("Balance = %d, want 150", got)
	}

	if err := l.Debit(id, 200); !errors.Is(err, ErrInsufficient) {
		t.Fatalf("Debit overdraw err = %v, want ErrInsufficient", err)
	}
	if got := l.Balance(id); got != 150 {
		t.Fatalf("Balance changed on failed debit: %d", got)
	}
	if err := l.Debit(id, 150); err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if got := l.Balance(id); got != 0 {
		t.Fatalf("Balance = %d, want 0", got)
	}
}

func TestCreditOverflow(t *testing.T) {
	l := NewLedger()
	id, _ := l.Mint(alice)
	if err := l.Credit(id, math.MaxUint64); err != nil {
		t.Fatalf("Credit max: %v", err)
	}
	if err := l.Credit(id, 1); !errors.Is(err, ErrAmountTooBig) {
		t.Fatalf("Credit overflow err = %v, want ErrAmountTooBig", err)
	}
	if got := l.Balance(id); got != math.MaxUint64 {
		t.Fatalf("Balance changed on failed credit")
	}
}

func TestBalanceSurvivesTransfer(t *testing.T) {
	l := NewLedger()
	id, _ := l.Mint(alice)
	_ = l.Credit(id, 40)
	if err := l.Transfer(alice, bob, id); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got := l.Balance(id); got != 40 {
		t.Fatalf("balance after transfer = %d, want 40", got)
	}
}

func TestBalanceUnknownTokenIsZero(t *testing.T) {
	l := NewLedger()
	if got := l.Balance(12345); got != 0 {
		t.Fatalf("Balance(unknown) = %d, want 0", got)
	}
}
