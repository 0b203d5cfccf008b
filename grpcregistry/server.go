package grpcregistry

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/feereg/registry"
)

// Server exposes a registry.Registry over the Registry gRPC service.
type Server struct {
	UnimplementedRegistryServer
	Registry *registry.Registry
}

func (s *Server) Register(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.UInt64Value, error) {
	_ = ctx
	if s == nil || s.Registry == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing registry")
	}
	var req RegisterRequest
	if err := decodePayload(in.GetValue(), &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request payload")
	}
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	owner, err := parseAddress(req.Owner)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	id, err := s.Registry.Register(recipient, owner)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.UInt64(id), nil
}

func (s *Server) Assign(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	_ = ctx
	if s == nil || s.Registry == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing registry")
	}
	var req AssignRequest
	if err := decodePayload(in.GetValue(), &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request payload")
	}
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.Registry.Assign(recipient, req.TokenID); err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bool(true), nil
}

func (s *Server) DeclareCapabilities(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	_ = ctx
	if s == nil || s.Registry == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing registry")
	}
	var req DeclareCapabilitiesRequest
	if err := decodePayload(in.GetValue(), &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request payload")
	}
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	selectors, err := parseSelectors(req.Selectors)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.Registry.DeclareCapabilities(recipient, selectors...); err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bool(true), nil
}

func (s *Server) Capabilities(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Registry == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing registry")
	}
	recipient, err := parseAddress(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	selectors, err := s.Registry.Capabilities(recipient)
	if err != nil {
		return nil, mapErr(err)
	}
	payload, err := encodePayload(encodeSelectors(selectors))
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response payload")
	}
	return wrapperspb.Bytes(payload), nil
}

func (s *Server) SetSigner(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	_ = ctx
	return s.signerOp(in, func(caller, signer common.Address, tokenID uint64) error {
		return s.Registry.SetSigner(caller, signer, tokenID)
	})
}

func (s *Server) RemoveSigner(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	_ = ctx
	return s.signerOp(in, func(caller, signer common.Address, tokenID uint64) error {
		return s.Registry.RemoveSigner(caller, signer, tokenID)
	})
}

func (s *Server) signerOp(in *wrapperspb.BytesValue, op func(caller, signer common.Address, tokenID uint64) error) (*wrapperspb.BoolValue, error) {
	if s == nil || s.Registry == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing registry")
	}
	var req SignerRequest
	if err := decodePayload(in.GetValue(), &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request payload")
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	signer, err := parseAddress(req.Signer)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := op(caller, signer, req.TokenID); err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bool(true), nil
}

func (s *Server) IsSigner(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	_ = ctx
	if s == nil || s.Registry == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing registry")
	}
	var req IsSignerRequest
	if err := decodePayload(in.GetValue(), &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request payload")
	}
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	signer, err := parseAddress(req.Signer)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return wrapperspb.Bool(s.Registry.IsSigner(recipient, signer)), nil
}

func (s *Server) Authorize(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	_ = ctx
	if s == nil || s.Registry == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing registry")
	}
	var req AuthorizeRequest
	if err := decodePayload(in.GetValue(), &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed request payload")
	}
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	signer, err := parseAddress(req.Signer)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	selector, err := registry.ParseSelector(req.Selector)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	sig, err := parseSignatureHex(req.Signature)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	authReq := registry.AuthorizationRequest{
		Deadline:  req.Deadline,
		Signer:    signer,
		Caller:    caller,
		Selector:  selector,
		Signature: sig,
	}
	if err := s.Registry.Authorize(recipient, authReq); err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bool(true), nil
}

func (s *Server) TokenID(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error) {
	_ = ctx
	if s == nil || s.Registry == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing registry")
	}
	recipient, err := parseAddress(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	id, err := s.Registry.TokenID(recipient)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.UInt64(id), nil
}

func (s *Server) IsRegistered(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	_ = ctx
	if s == nil || s.Registry == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing registry")
	}
	recipient, err := parseAddress(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return wrapperspb.Bool(s.Registry.IsRegistered(recipient)), nil
}

func (s *Server) Balance(ctx context.Context, in *wrapperspb.UInt64Value) (*wrapperspb.UInt64Value, error) {
	_ = ctx
	if s == nil || s.Registry == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing registry")
	}
	return wrapperspb.UInt64(s.Registry.Balance(in.GetValue())), nil
}

func (s *Server) Counter(ctx context.Context, in *emptypb.Empty) (*wrapperspb.UInt64Value, error) {
	_ = ctx
	_ = in
	if s == nil || s.Registry == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing registry")
	}
	return wrapperspb.UInt64(s.Registry.Counter()), nil
}

// mapErr translates a structured registry error into a gRPC status. The
// stable rule ID is prefixed to the message so clients can reconstruct the
// original error.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var regErr *registry.Error
	if !errors.As(err, &regErr) {
		return status.Error(codes.Internal, err.Error())
	}
	return status.Error(codeForRule(regErr.RuleID), regErr.RuleID+": "+regErr.Message)
}

func codeForRule(ruleID string) codes.Code {
	switch ruleID {
	case registry.RuleAlreadyRegistered, registry.RuleTokenAlreadyBound:
		return codes.AlreadyExists
	case registry.RuleInvalidIdentity,
		registry.RuleMalformedSignature, registry.RuleInvalidSignature, registry.RuleRecoveryFailed:
		return codes.InvalidArgument
	case registry.RuleUnregistered, registry.RuleInvalidTokenID:
		return codes.NotFound
	case registry.RuleNotAnOwner,
		registry.RuleNotASigner, registry.RuleReplayedRequest,
		registry.RuleDeadlineExpired, registry.RuleSignerMismatch:
		return codes.PermissionDenied
	default:
		return codes.Internal
	}
}
