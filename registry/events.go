package registry

import "github.com/ethereum/go-ethereum/common"

// EventType names an observable registry event.
type EventType string

const (
	EventRegister  EventType = "Register"
	EventAssign    EventType = "Assign"
	EventAuthorize EventType = "Authorize"

	// EventWithdraw is declared for external observers but never emitted by
	// the registry: the payout flow that would produce it is an external
	// module (see DESIGN.md).
	EventWithdraw EventType = "Withdraw"
)

// Event is delivered to the configured Emitter after a successful mutating
// operation commits. Fields not applicable to the event type are zero.
type Event struct {
	Type      EventType
	Recipient common.Address
	Owner     common.Address // Register
	TokenID   uint64         // Register, Assign, Withdraw
	Signer    common.Address // Authorize
	Caller    common.Address // Authorize
	Selector  Selector       // Authorize
	Amount    uint64         // Withdraw
}

// Emitter observes committed registry events.
//
// Emit is called outside the registry lock, after the state change has
// committed; an emitter may call back into the registry. Because delivery
// happens after the lock is released, concurrent mutations may reach the
// emitter in a different order than they committed. Callers that need a
// strict commit order must serialize their mutating calls themselves; an
// in-registry ordering lock held across delivery would deadlock against
// emitters that call back in.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(Event)

func (f EmitterFunc) Emit(e Event) { f(e) }
