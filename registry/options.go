package registry

import "time"

// Option configures a Registry at construction.
//
// Default behavior with no options: chain id 1, wall clock, no emitter.
type Option func(*Registry)

// WithChainID sets the network identifier mixed into every authorization
// digest. Registries on different networks must use different chain ids or
// signed requests become replayable across them.
func WithChainID(id uint64) Option {
	return func(r *Registry) { r.chainID = id }
}

// WithClock overrides the deadline clock. Tests use a fixed clock to pin
// expiry boundaries.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithEmitter sets the observer for committed events.
func WithEmitter(e Emitter) Option {
	return func(r *Registry) { r.emitter = e }
}
