package registry_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"xdao.co/feereg/registry"
	"xdao.co/feereg/token"
)

var (
	recipientA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	recipientB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	ownerA     = common.HexToAddress("0x0000000000000000000000000000000000000011")
	ownerB     = common.HexToAddress("0x0000000000000000000000000000000000000022")
	signerX    = common.HexToAddress("0x00000000000000000000000000000000000000ee")
)

func newRegistry(t *testing.T, opts ...registry.Option) *registry.Registry {
	t.Helper()
	return registry.New(token.NewLedger(), opts...)
}

func wantRule(t *testing.T, err error, ruleID string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with rule %s, got nil", ruleID)
	}
	if got := registry.RuleID(err); got != ruleID {
		t.Fatalf("rule = %q (%v), want %q", got, err, ruleID)
	}
}

func TestRegisterMintsAndBinds(t *testing.T) {
	r := newRegistry(t)

	id, err := r.Register(recipientA, ownerA)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id != 1 {
		t.Fatalf("token id = %d, want 1", id)
	}
	if !r.IsRegistered(recipientA) {
		t.Fatalf("IsRegistered = false after Register")
	}
	got, err := r.TokenID(recipientA)
	if err != nil || got != id {
		t.Fatalf("TokenID = (%d, %v), want (%d, nil)", got, err, id)
	}
	owner, err := r.Tokens().OwnerOf(id)
	if err != nil || owner != ownerA {
		t.Fatalf("token owner = (%s, %v), want %s", owner, err, ownerA)
	}
}

func TestRegisterIsPermanent(t *testing.T) {
	r := newRegistry(t)
	if _, err := r.Register(recipientA, ownerA); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := r.Register(recipientA, ownerB)
	wantRule(t, err, registry.RuleAlreadyRegistered)

	// The double-register check fires before identity validation: a
	// registered recipient re-registering with a null owner still reports
	// AlreadyRegistered.
	_, err = r.Register(recipientA, common.Address{})
	wantRule(t, err, registry.RuleAlreadyRegistered)
}

func TestRegisterRejectsNullIdentities(t *testing.T) {
	r := newRegistry(t)
	_, err := r.Register(common.Address{}, ownerA)
	wantRule(t, err, registry.RuleInvalidIdentity)
	_, err = r.Register(recipientA, common.Address{})
	wantRule(t, err, registry.RuleInvalidIdentity)
	if r.Counter() != 0 {
		t.Fatalf("counter advanced on failed register")
	}
}

func TestAssignBindsExistingToken(t *testing.T) {
	r := newRegistry(t)
	id, err := r.Tokens().Mint(ownerA)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := r.Tokens().Credit(id, 75); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	if err := r.Assign(recipientA, id); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	got, err := r.TokenID(recipientA)
	if err != nil || got != id {
		t.Fatalf("TokenID = (%d, %v), want (%d, nil)", got, err, id)
	}
	// Fees accrued before assignment stay with the token.
	if bal := r.Balance(id); bal != 75 {
		t.Fatalf("Balance = %d, want 75", bal)
	}
}

func TestAssignValidationOrder(t *testing.T) {
	r := newRegistry(t)
	id, _ := r.Tokens().Mint(ownerA)
	if _, err := r.Register(recipientA, ownerA); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Unknown token is reported before anything else.
	err := r.Assign(recipientB, 999)
	wantRule(t, err, registry.RuleInvalidTokenID)

	// Registered recipient cannot be re-bound.
	err = r.Assign(recipientA, id)
	wantRule(t, err, registry.RuleAlreadyRegistered)

	// Null recipient rejected.
	err = r.Assign(common.Address{}, id)
	wantRule(t, err, registry.RuleInvalidIdentity)

	// A token already bound to a recipient cannot be bound twice.
	if err := r.Assign(recipientB, id); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	other := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	err = r.Assign(other, id)
	wantRule(t, err, registry.RuleTokenAlreadyBound)
}

func TestTokenIDUnregistered(t *testing.T) {
	r := newRegistry(t)
	_, err := r.TokenID(recipientA)
	wantRule(t, err, registry.RuleUnregistered)
}

func TestDeclareCapabilities(t *testing.T) {
	r := newRegistry(t)

	sel1 := registry.SelectorOf("withdraw(uint256)")
	sel2 := registry.SelectorOf("setFeeRecipient(address)")

	err := r.DeclareCapabilities(recipientA, sel1)
	wantRule(t, err, registry.RuleUnregistered)

	if _, err := r.Register(recipientA, ownerA); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.DeclareCapabilities(recipientA, sel1, sel2); err != nil {
		t.Fatalf("DeclareCapabilities: %v", err)
	}
	// Redeclaring is a no-op; duplicates collapse.
	if err := r.DeclareCapabilities(recipientA, sel1, sel1); err != nil {
		t.Fatalf("DeclareCapabilities(dup): %v", err)
	}

	got, err := r.Capabilities(recipientA)
	if err != nil {
		t.Fatalf("Capabilities: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Capabilities len = %d, want 2", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].String() >= got[i].String() {
			t.Fatalf("Capabilities not sorted: %v", got)
		}
	}
}

func TestSignerManagementFollowsToken(t *testing.T) {
	r := newRegistry(t)
	id, err := r.Register(recipientA, ownerA)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Only the token holder may manage signers.
	err = r.SetSigner(ownerB, signerX, id)
	wantRule(t, err, registry.RuleNotAnOwner)
	err = r.SetSigner(ownerA, signerX, 999)
	wantRule(t, err, registry.RuleInvalidTokenID)
	err = r.SetSigner(ownerA, common.Address{}, id)
	wantRule(t, err, registry.RuleInvalidIdentity)

	if err := r.SetSigner(ownerA, signerX, id); err != nil {
		t.Fatalf("SetSigner: %v", err)
	}
	if !r.IsSigner(recipientA, signerX) {
		t.Fatalf("IsSigner = false after SetSigner")
	}

	// Transferring the token moves signer control with it.
	if err := r.Tokens().Transfer(ownerA, ownerB, id); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	err = r.RemoveSigner(ownerA, signerX, id)
	wantRule(t, err, registry.RuleNotAnOwner)
	if err := r.RemoveSigner(ownerB, signerX, id); err != nil {
		t.Fatalf("RemoveSigner: %v", err)
	}
	if r.IsSigner(recipientA, signerX) {
		t.Fatalf("IsSigner = true after RemoveSigner")
	}
}

func TestSignerManagementUnboundToken(t *testing.T) {
	r := newRegistry(t)
	id, _ := r.Tokens().Mint(ownerA)
	err := r.SetSigner(ownerA, signerX, id)
	wantRule(t, err, registry.RuleUnregistered)
}

func TestIsSignerUnknownRecipient(t *testing.T) {
	r := newRegistry(t)
	if r.IsSigner(recipientA, signerX) {
		t.Fatalf("IsSigner = true for unknown recipient")
	}
}

func TestEventsEmittedAfterCommit(t *testing.T) {
	var events []registry.Event
	r := registry.New(token.NewLedger(),
		registry.WithClock(func() time.Time { return time.Unix(1_000, 0) }),
		registry.WithEmitter(registry.EmitterFunc(func(e registry.Event) {
			events = append(events, e)
		})),
	)

	id, err := r.Register(recipientA, ownerA)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	id2, _ := r.Tokens().Mint(ownerB)
	if err := r.Assign(recipientB, id2); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Type != registry.EventRegister || events[0].Recipient != recipientA ||
		events[0].Owner != ownerA || events[0].TokenID != id {
		t.Fatalf("register event = %+v", events[0])
	}
	if events[1].Type != registry.EventAssign || events[1].Recipient != recipientB ||
		events[1].TokenID != id2 {
		t.Fatalf("assign event = %+v", events[1])
	}
}

func TestEmitterMayCallBackIntoRegistry(t *testing.T) {
	var r *registry.Registry
	var sawRegistered bool
	r = registry.New(token.NewLedger(),
		registry.WithEmitter(registry.EmitterFunc(func(e registry.Event) {
			// Emit runs outside the registry lock; a re-entrant read
			// must not deadlock.
			sawRegistered = r.IsRegistered(e.Recipient)
		})),
	)
	if _, err := r.Register(recipientA, ownerA); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !sawRegistered {
		t.Fatalf("emitter observed unregistered recipient after commit")
	}
}

func TestFailedOperationsEmitNothing(t *testing.T) {
	var events int
	r := registry.New(token.NewLedger(),
		registry.WithEmitter(registry.EmitterFunc(func(registry.Event) { events++ })),
	)
	_, _ = r.Register(common.Address{}, ownerA)
	_ = r.Assign(recipientA, 7)
	if events != 0 {
		t.Fatalf("failed operations emitted %d events", events)
	}
}
