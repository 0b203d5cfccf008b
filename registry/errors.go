package registry

import "errors"

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions.
// Callers should branch on Kind/RuleID rather than matching error strings.
//
// NOTE: Error() strings are intentionally kept human-readable and may evolve.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	KindRegistration  Kind = "Registration"
	KindToken         Kind = "Token"
	KindOwnership     Kind = "Ownership"
	KindAuthorization Kind = "Authorization"
	KindCrypto        Kind = "Crypto"
	KindInternal      Kind = "Internal"
)

// Stable rule identifiers naming the violated invariant. Every failure an
// operation can return carries exactly one of these.
const (
	RuleAlreadyRegistered = "FEEREG-REG-001"
	RuleInvalidIdentity   = "FEEREG-REG-002"
	RuleUnregistered      = "FEEREG-REG-003"

	RuleInvalidTokenID    = "FEEREG-TOK-001"
	RuleTokenAlreadyBound = "FEEREG-TOK-002"

	RuleNotAnOwner = "FEEREG-OWN-001"

	RuleNotASigner      = "FEEREG-AUTH-001"
	RuleReplayedRequest = "FEEREG-AUTH-002"
	RuleDeadlineExpired = "FEEREG-AUTH-003"
	RuleSignerMismatch  = "FEEREG-AUTH-004"

	RuleMalformedSignature = "FEEREG-CRYPTO-001"
	RuleInvalidSignature   = "FEEREG-CRYPTO-002"
	RuleRecoveryFailed     = "FEEREG-CRYPTO-003"
)

// Error is the registry's structured error type.
//
// RuleID is a stable identifier (e.g. FEEREG-AUTH-002) naming the violated
// rule. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
