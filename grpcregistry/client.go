package grpcregistry

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/feereg/registry"
)

// Client is a remote facade over the Registry gRPC service. Its methods
// mirror registry.Registry and return the same structured errors.
type Client struct {
	cc     *grpc.ClientConn
	client RegistryClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewRegistryClient(cc), Timeout: 0}, nil
}

// NewClient wraps an existing connection. Intended for tests and in-process
// transports such as bufconn.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewRegistryClient(cc)}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Register(recipient, owner common.Address) (uint64, error) {
	payload, err := encodePayload(RegisterRequest{Recipient: recipient.Hex(), Owner: owner.Hex()})
	if err != nil {
		return 0, err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	reply, err := c.client.Register(ctx, wrapperspb.Bytes(payload))
	if err != nil {
		return 0, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) Assign(recipient common.Address, tokenID uint64) error {
	payload, err := encodePayload(AssignRequest{Recipient: recipient.Hex(), TokenID: tokenID})
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	if _, err := c.client.Assign(ctx, wrapperspb.Bytes(payload)); err != nil {
		return mapRPC(err)
	}
	return nil
}

func (c *Client) DeclareCapabilities(recipient common.Address, selectors ...registry.Selector) error {
	payload, err := encodePayload(DeclareCapabilitiesRequest{
		Recipient: recipient.Hex(),
		Selectors: encodeSelectors(selectors),
	})
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	if _, err := c.client.DeclareCapabilities(ctx, wrapperspb.Bytes(payload)); err != nil {
		return mapRPC(err)
	}
	return nil
}

func (c *Client) Capabilities(recipient common.Address) ([]registry.Selector, error) {
	ctx, cancel := c.ctx()
	defer cancel()
	reply, err := c.client.Capabilities(ctx, wrapperspb.String(recipient.Hex()))
	if err != nil {
		return nil, mapRPC(err)
	}
	var raw []string
	if err := decodePayload(reply.GetValue(), &raw); err != nil {
		return nil, err
	}
	return parseSelectors(raw)
}

func (c *Client) SetSigner(caller, signer common.Address, tokenID uint64) error {
	return c.signerOp(caller, signer, tokenID, true)
}

func (c *Client) RemoveSigner(caller, signer common.Address, tokenID uint64) error {
	return c.signerOp(caller, signer, tokenID, false)
}

func (c *Client) signerOp(caller, signer common.Address, tokenID uint64, set bool) error {
	payload, err := encodePayload(SignerRequest{
		Caller:  caller.Hex(),
		Signer:  signer.Hex(),
		TokenID: tokenID,
	})
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	if set {
		_, err = c.client.SetSigner(ctx, wrapperspb.Bytes(payload))
	} else {
		_, err = c.client.RemoveSigner(ctx, wrapperspb.Bytes(payload))
	}
	if err != nil {
		return mapRPC(err)
	}
	return nil
}

func (c *Client) IsSigner(recipient, signer common.Address) (bool, error) {
	payload, err := encodePayload(IsSignerRequest{Recipient: recipient.Hex(), Signer: signer.Hex()})
	if err != nil {
		return false, err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	reply, err := c.client.IsSigner(ctx, wrapperspb.Bytes(payload))
	if err != nil {
		return false, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) Authorize(recipient common.Address, req registry.AuthorizationRequest) error {
	payload, err := encodePayload(AuthorizeRequest{
		Recipient: recipient.Hex(),
		Signer:    req.Signer.Hex(),
		Caller:    req.Caller.Hex(),
		Selector:  req.Selector.String(),
		Deadline:  req.Deadline,
		Signature: encodeSignatureHex(req.Signature),
	})
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	if _, err := c.client.Authorize(ctx, wrapperspb.Bytes(payload)); err != nil {
		return mapRPC(err)
	}
	return nil
}

func (c *Client) TokenID(recipient common.Address) (uint64, error) {
	ctx, cancel := c.ctx()
	defer cancel()
	reply, err := c.client.TokenID(ctx, wrapperspb.String(recipient.Hex()))
	if err != nil {
		return 0, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) IsRegistered(recipient common.Address) (bool, error) {
	ctx, cancel := c.ctx()
	defer cancel()
	reply, err := c.client.IsRegistered(ctx, wrapperspb.String(recipient.Hex()))
	if err != nil {
		return false, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) Balance(tokenID uint64) (uint64, error) {
	ctx, cancel := c.ctx()
	defer cancel()
	reply, err := c.client.Balance(ctx, wrapperspb.UInt64(tokenID))
	if err != nil {
		return 0, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) Counter() (uint64, error) {
	ctx, cancel := c.ctx()
	defer cancel()
	reply, err := c.client.Counter(ctx, &emptypb.Empty{})
	if err != nil {
		return 0, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) ctx() (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Timeout)
}
