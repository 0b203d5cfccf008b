package grpcregistry

import (
	"strings"

	"google.golang.org/grpc/status"

	"xdao.co/feereg/registry"
)

var ruleKinds = map[string]registry.Kind{
	registry.RuleAlreadyRegistered: registry.KindRegistration,
	registry.RuleInvalidIdentity:   registry.KindRegistration,
	registry.RuleUnregistered:      registry.KindRegistration,

	registry.RuleInvalidTokenID:    registry.KindToken,
	registry.RuleTokenAlreadyBound: registry.KindToken,

	registry.RuleNotAnOwner: registry.KindOwnership,

	registry.RuleNotASigner:      registry.KindAuthorization,
	registry.RuleReplayedRequest: registry.KindAuthorization,
	registry.RuleDeadlineExpired: registry.KindAuthorization,
	registry.RuleSignerMismatch:  registry.KindAuthorization,

	registry.RuleMalformedSignature: registry.KindCrypto,
	registry.RuleInvalidSignature:   registry.KindCrypto,
	registry.RuleRecoveryFailed:     registry.KindCrypto,
}

// mapRPC reconstructs a structured registry error from a gRPC status. The
// server prefixes messages with the stable rule ID; unknown statuses pass
// through unchanged.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	ruleID, msg, found := strings.Cut(st.Message(), ": ")
	if !found {
		return err
	}
	kind, ok := ruleKinds[ruleID]
	if !ok {
		return err
	}
	return &registry.Error{Kind: kind, RuleID: ruleID, Message: msg}
}
