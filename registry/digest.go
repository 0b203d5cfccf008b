package registry

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Domain-separation prefixes. The two domains are disjoint so a signer-init
// freshness hash can never collide with an authorization digest.
const (
	digestDomain    = "xdao-feereg-authorization-v1"
	freshnessDomain = "xdao-feereg-signer-init-v1"
)

// SignatureLength is the length of a three-part [R || S || V] signature.
const SignatureLength = 65

// Selector identifies one gated function, in the usual 4-byte form.
type Selector [4]byte

func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// ParseSelector parses "0xabcdef01" (the 0x prefix is optional).
func ParseSelector(str string) (Selector, error) {
	str = strings.TrimPrefix(str, "0x")
	b, err := hex.DecodeString(str)
	if err != nil {
		return Selector{}, fmt.Errorf("invalid selector hex: %w", err)
	}
	if len(b) != 4 {
		return Selector{}, fmt.Errorf("selector must be 4 bytes, got %d", len(b))
	}
	var out Selector
	copy(out[:], b)
	return out, nil
}

// SelectorOf derives a selector from a function signature string such as
// "withdraw(uint256)", using the first four bytes of its keccak256 hash.
func SelectorOf(signature string) Selector {
	var out Selector
	copy(out[:], crypto.Keccak256([]byte(signature))[:4])
	return out
}

// AuthorizationDigest derives the 256-bit message a signer commits to.
//
// The digest binds one selector, one expiry, one network and one calling
// account: a signature over it cannot be replayed across any of those
// dimensions.
func AuthorizationDigest(selector Selector, deadline int64, chainID uint64, caller common.Address) common.Hash {
	var deadlineBuf, chainBuf [8]byte
	binary.BigEndian.PutUint64(deadlineBuf[:], uint64(deadline))
	binary.BigEndian.PutUint64(chainBuf[:], chainID)
	return crypto.Keccak256Hash(
		[]byte(digestDomain),
		selector[:],
		deadlineBuf[:],
		chainBuf[:],
		caller.Bytes(),
	)
}

// InitialFreshness is the non-zero sentinel installed by SetSigner, meaning
// "authorized, no request consumed yet". It is distinct per (recipient,
// signer) pair and lives in its own hash domain, so it can never equal an
// authorization digest.
func InitialFreshness(recipient, signer common.Address) common.Hash {
	return crypto.Keccak256Hash(
		[]byte(freshnessDomain),
		recipient.Bytes(),
		signer.Bytes(),
	)
}

// RecoverSigner recovers the signing identity from a three-part signature
// over digest.
//
// Accepts V in {0, 1} or the legacy {27, 28}. High-S signatures are rejected
// to rule out signature malleability.
func RecoverSigner(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, newError(KindCrypto, RuleMalformedSignature,
			fmt.Sprintf("signature must be %d bytes, got %d", SignatureLength, len(sig)))
	}

	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return common.Address{}, newError(KindCrypto, RuleInvalidSignature, "invalid recovery id")
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(v, r, s, true) {
		return common.Address{}, newError(KindCrypto, RuleInvalidSignature, "invalid signature values")
	}

	normalized := make([]byte, SignatureLength)
	copy(normalized, sig[:64])
	normalized[64] = v

	pub, err := crypto.SigToPub(digest[:], normalized)
	if err != nil {
		return common.Address{}, wrapError(KindCrypto, RuleRecoveryFailed, "signature recovery failed", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
