// Package registry implements the fee-ownership registry: the fee-recipient
// directory, the per-recipient signer directory, and the authorization engine
// that validates delegated, signature-based function call rights.
//
// A recipient contract registers once and is bound to an ownership token.
// Whoever holds that token controls the recipient's signer directory. A
// signer produces off-chain signatures over (selector, deadline, chain id,
// caller) digests; the engine validates them with replay protection and
// strict expiry.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"xdao.co/feereg/token"
)

// AuthorizationRequest is a signed, deadline-bound claim permitting one
// specific caller to invoke one specific gated function once. It is
// constructed off-chain by whoever controls the signer's key and presented
// by the caller.
type AuthorizationRequest struct {
	Deadline  int64 // unix seconds, strict expiry
	Signer    common.Address
	Caller    common.Address
	Selector  Selector
	Signature []byte // 65-byte [R || S || V]
}

// record is one recipient's registration state. The signer sub-map is
// exclusively owned by its record and never shared by reference.
type record struct {
	tokenID   uint64
	selectors map[Selector]struct{}
	signers   map[common.Address]common.Hash
}

// Registry is the in-process registration and authorization engine.
//
// One mutex serializes every mutating operation: no operation observes a
// partially-applied update, and a failed operation leaves state unchanged.
type Registry struct {
	mu      sync.Mutex
	tokens  *token.Ledger
	chainID uint64
	now     func() time.Time
	emitter Emitter

	records map[common.Address]*record
	byToken map[uint64]common.Address
}

// New constructs a Registry over the given token ledger.
func New(tokens *token.Ledger, opts ...Option) *Registry {
	r := &Registry{
		tokens:  tokens,
		chainID: 1,
		now:     time.Now,
		records: make(map[common.Address]*record),
		byToken: make(map[uint64]common.Address),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ChainID returns the network identifier mixed into authorization digests.
func (r *Registry) ChainID() uint64 { return r.chainID }

// Tokens returns the underlying ownership token ledger.
func (r *Registry) Tokens() *token.Ledger { return r.tokens }

// Register mints a fresh ownership token for recipientOwner and creates the
// recipient's record bound to it. A recipient identity registers at most
// once; there is no unregister.
func (r *Registry) Register(recipient, recipientOwner common.Address) (uint64, error) {
	r.mu.Lock()
	if _, exists := r.records[recipient]; exists {
		r.mu.Unlock()
		return 0, newError(KindRegistration, RuleAlreadyRegistered,
			fmt.Sprintf("recipient %s already registered", recipient))
	}
	if recipient == (common.Address{}) || recipientOwner == (common.Address{}) {
		r.mu.Unlock()
		return 0, newError(KindRegistration, RuleInvalidIdentity, "null identity")
	}

	id, err := r.tokens.Mint(recipientOwner)
	if err != nil {
		r.mu.Unlock()
		return 0, wrapError(KindInternal, RuleInvalidIdentity, "mint failed", err)
	}
	r.records[recipient] = newRecord(id)
	r.byToken[id] = recipient
	r.mu.Unlock()

	r.emit(Event{Type: EventRegister, Recipient: recipient, Owner: recipientOwner, TokenID: id})
	return id, nil
}

// Assign binds the recipient to an already-minted token instead of minting a
// new one (proxy-pattern contracts migrating fee rights). Fees accrued to the
// token before assignment stay with the token; fees attributed before any
// registration are lost, a documented trade-off.
func (r *Registry) Assign(recipient common.Address, tokenID uint64) error {
	r.mu.Lock()
	if !r.tokens.Exists(tokenID) {
		r.mu.Unlock()
		return newError(KindToken, RuleInvalidTokenID,
			fmt.Sprintf("token %d does not exist", tokenID))
	}
	if _, exists := r.records[recipient]; exists {
		r.mu.Unlock()
		return newError(KindRegistration, RuleAlreadyRegistered,
			fmt.Sprintf("recipient %s already registered", recipient))
	}
	if recipient == (common.Address{}) {
		r.mu.Unlock()
		return newError(KindRegistration, RuleInvalidIdentity, "null identity")
	}
	if bound, ok := r.byToken[tokenID]; ok {
		r.mu.Unlock()
		return newError(KindToken, RuleTokenAlreadyBound,
			fmt.Sprintf("token %d already bound to %s", tokenID, bound))
	}

	r.records[recipient] = newRecord(tokenID)
	r.byToken[tokenID] = recipient
	r.mu.Unlock()

	r.emit(Event{Type: EventAssign, Recipient: recipient, TokenID: tokenID})
	return nil
}

// TokenID returns the token bound to recipient.
func (r *Registry) TokenID(recipient common.Address) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recipient]
	if !ok {
		return 0, newError(KindRegistration, RuleUnregistered,
			fmt.Sprintf("recipient %s not registered", recipient))
	}
	return rec.tokenID, nil
}

// IsRegistered is a pure lookup; it never fails.
func (r *Registry) IsRegistered(recipient common.Address) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[recipient]
	return ok
}

// DeclareCapabilities adds selectors to the recipient's declared-capability
// set. Duplicates collapse; redeclaring is a no-op.
func (r *Registry) DeclareCapabilities(recipient common.Address, selectors ...Selector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recipient]
	if !ok {
		return newError(KindRegistration, RuleUnregistered,
			fmt.Sprintf("recipient %s not registered", recipient))
	}
	for _, sel := range selectors {
		rec.selectors[sel] = struct{}{}
	}
	return nil
}

// Capabilities returns the recipient's declared selectors in sorted order.
func (r *Registry) Capabilities(recipient common.Address) ([]Selector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recipient]
	if !ok {
		return nil, newError(KindRegistration, RuleUnregistered,
			fmt.Sprintf("recipient %s not registered", recipient))
	}
	out := make([]Selector, 0, len(rec.selectors))
	for sel := range rec.selectors {
		out = append(out, sel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// SetSigner authorizes signer for the recipient bound to tokenID, installing
// the non-zero initial freshness hash. Only the current token holder may
// manage signers: control follows the token, not the recipient identity.
func (r *Registry) SetSigner(caller, signer common.Address, tokenID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, recipient, err := r.boundRecord(caller, tokenID)
	if err != nil {
		return err
	}
	if signer == (common.Address{}) {
		return newError(KindRegistration, RuleInvalidIdentity, "null identity")
	}
	rec.signers[signer] = InitialFreshness(recipient, signer)
	return nil
}

// RemoveSigner clears the signer's freshness hash back to the zero sentinel,
// revoking it until re-added. Only the current token holder may call.
func (r *Registry) RemoveSigner(caller, signer common.Address, tokenID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, _, err := r.boundRecord(caller, tokenID)
	if err != nil {
		return err
	}
	delete(rec.signers, signer)
	return nil
}

// IsSigner reports whether signer currently holds a non-zero freshness hash
// under recipient.
func (r *Registry) IsSigner(recipient, signer common.Address) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recipient]
	if !ok {
		return false
	}
	return rec.signers[signer] != (common.Hash{})
}

// Authorize validates a signed authorization request in the context of the
// invoking recipient.
//
// Validation order is fixed: signer lookup, digest construction, replay
// check, strict expiry check, signature recovery. On success the stored
// freshness hash advances to the accepted digest, so presenting the same
// signed request again is rejected as a replay while a new request with a
// fresh deadline derives a different digest and can succeed.
func (r *Registry) Authorize(recipient common.Address, req AuthorizationRequest) error {
	r.mu.Lock()

	var fresh common.Hash
	rec, ok := r.records[recipient]
	if ok {
		fresh = rec.signers[req.Signer]
	}
	if fresh == (common.Hash{}) {
		r.mu.Unlock()
		return newError(KindAuthorization, RuleNotASigner,
			fmt.Sprintf("%s is not a signer for %s", req.Signer, recipient))
	}

	digest := AuthorizationDigest(req.Selector, req.Deadline, r.chainID, req.Caller)
	if digest == fresh {
		r.mu.Unlock()
		return newError(KindAuthorization, RuleReplayedRequest, "authorization request already consumed")
	}

	if req.Deadline <= r.now().Unix() {
		r.mu.Unlock()
		return newError(KindAuthorization, RuleDeadlineExpired,
			fmt.Sprintf("deadline %d has passed", req.Deadline))
	}

	recovered, err := RecoverSigner(digest, req.Signature)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if recovered != req.Signer {
		r.mu.Unlock()
		return newError(KindAuthorization, RuleSignerMismatch,
			fmt.Sprintf("signature recovers %s, not %s", recovered, req.Signer))
	}

	rec.signers[req.Signer] = digest
	r.mu.Unlock()

	r.emit(Event{
		Type:      EventAuthorize,
		Recipient: recipient,
		Signer:    req.Signer,
		Caller:    req.Caller,
		Selector:  req.Selector,
	})
	return nil
}

// Counter returns the current token counter value.
func (r *Registry) Counter() uint64 { return r.tokens.Counter() }

// Balance returns the accumulated fee balance for tokenID.
func (r *Registry) Balance(tokenID uint64) uint64 { return r.tokens.Balance(tokenID) }

// boundRecord resolves the record bound to tokenID for a signer-management
// call. Caller must hold r.mu.
func (r *Registry) boundRecord(caller common.Address, tokenID uint64) (*record, common.Address, error) {
	if !r.tokens.Exists(tokenID) {
		return nil, common.Address{}, newError(KindToken, RuleInvalidTokenID,
			fmt.Sprintf("token %d does not exist", tokenID))
	}
	owner, err := r.tokens.OwnerOf(tokenID)
	if err != nil {
		return nil, common.Address{}, wrapError(KindToken, RuleInvalidTokenID, "owner lookup failed", err)
	}
	if owner != caller {
		return nil, common.Address{}, newError(KindOwnership, RuleNotAnOwner,
			fmt.Sprintf("%s does not hold token %d", caller, tokenID))
	}
	recipient, ok := r.byToken[tokenID]
	if !ok {
		return nil, common.Address{}, newError(KindRegistration, RuleUnregistered,
			fmt.Sprintf("token %d is not bound to a registered recipient", tokenID))
	}
	return r.records[recipient], recipient, nil
}

func (r *Registry) emit(e Event) {
	if r.emitter != nil {
		r.emitter.Emit(e)
	}
}

func newRecord(tokenID uint64) *record {
	return &record{
		tokenID:   tokenID,
		selectors: make(map[Selector]struct{}),
		signers:   make(map[common.Address]common.Hash),
	}
}
