// Package adapter is the consumer-side integration surface: a contract (or
// service) that wants signature-gated functions registers itself once and
// then gates each entry point behind an authorization check.
package adapter

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"xdao.co/feereg/registry"
)

// ErrNotAuthorized is returned by Guard.Call when the registry rejects the
// presented authorization. The registry's structured error is wrapped and
// available through errors.As / errors.Is.
var ErrNotAuthorized = errors.New("adapter: not authorized")

// Consumer is a registered fee recipient that gates function calls on
// delegated signatures.
type Consumer struct {
	reg      *registry.Registry
	identity common.Address
	tokenID  uint64
}

// New registers identity with the registry, minting its ownership token for
// owner, and returns the ready-to-use consumer.
func New(reg *registry.Registry, identity, owner common.Address) (*Consumer, error) {
	tokenID, err := reg.Register(identity, owner)
	if err != nil {
		return nil, err
	}
	return &Consumer{reg: reg, identity: identity, tokenID: tokenID}, nil
}

// Attach wraps an identity that is already registered (for example through
// Assign) without re-registering it.
func Attach(reg *registry.Registry, identity common.Address) (*Consumer, error) {
	tokenID, err := reg.TokenID(identity)
	if err != nil {
		return nil, err
	}
	return &Consumer{reg: reg, identity: identity, tokenID: tokenID}, nil
}

// Identity returns the consumer's recipient identity.
func (c *Consumer) Identity() common.Address { return c.identity }

// TokenID returns the ownership token bound at registration.
func (c *Consumer) TokenID() uint64 { return c.tokenID }

// Declare records the consumer's gated selectors in the registry's
// capability directory.
func (c *Consumer) Declare(selectors ...registry.Selector) error {
	return c.reg.DeclareCapabilities(c.identity, selectors...)
}

// Guard returns the gate for one function selector.
func (c *Consumer) Guard(selector registry.Selector) *Guard {
	return &Guard{consumer: c, selector: selector}
}

// Guard gates one function behind the authorization engine.
type Guard struct {
	consumer *Consumer
	selector registry.Selector
}

// Selector returns the gated function selector.
func (g *Guard) Selector() registry.Selector { return g.selector }

// Call presents req to the registry and runs fn only on approval. The
// request's selector must match the guard's; a mismatch is rejected before
// reaching the engine.
func (g *Guard) Call(req registry.AuthorizationRequest, fn func() error) error {
	if req.Selector != g.selector {
		return fmt.Errorf("%w: request selector %s does not match guarded %s",
			ErrNotAuthorized, req.Selector, g.selector)
	}
	if err := g.consumer.reg.Authorize(g.consumer.identity, req); err != nil {
		return fmt.Errorf("%w: %w", ErrNotAuthorized, err)
	}
	return fn()
}
