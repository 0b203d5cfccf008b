package grpcregistry

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"xdao.co/feereg/registry"
)

// Wire payloads for structured RPCs. Structured requests travel as JSON
// inside a BytesValue so this package needs no protoc/codegen toolchain;
// scalar requests and all responses use protobuf well-known wrapper types.

type RegisterRequest struct {
	Recipient string `json:"recipient"`
	Owner     string `json:"owner"`
}

type AssignRequest struct {
	Recipient string `json:"recipient"`
	TokenID   uint64 `json:"tokenId"`
}

type DeclareCapabilitiesRequest struct {
	Recipient string   `json:"recipient"`
	Selectors []string `json:"selectors"`
}

// SignerRequest covers SetSigner and RemoveSigner: the caller must hold the
// ownership token named by TokenID.
type SignerRequest struct {
	Caller  string `json:"caller"`
	Signer  string `json:"signer"`
	TokenID uint64 `json:"tokenId"`
}

type IsSignerRequest struct {
	Recipient string `json:"recipient"`
	Signer    string `json:"signer"`
}

type AuthorizeRequest struct {
	Recipient string `json:"recipient"`
	Signer    string `json:"signer"`
	Caller    string `json:"caller"`
	Selector  string `json:"selector"`
	Deadline  int64  `json:"deadline"`
	Signature string `json:"signature"` // hex, 65 bytes
}

func encodePayload(v any) ([]byte, error) {
	return json.Marshal(v)
}

func decodePayload(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func parseSignatureHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	sig, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid signature hex: %w", err)
	}
	return sig, nil
}

func encodeSignatureHex(sig []byte) string {
	return "0x" + hex.EncodeToString(sig)
}

func parseSelectors(in []string) ([]registry.Selector, error) {
	out := make([]registry.Selector, 0, len(in))
	for _, s := range in {
		sel, err := registry.ParseSelector(s)
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, nil
}

func encodeSelectors(in []registry.Selector) []string {
	out := make([]string, 0, len(in))
	for _, sel := range in {
		out = append(out, sel.String())
	}
	return out
}
