package keys

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"xdao.co/feereg/registry"
)

// GenerateSignerKey returns a fresh secp256k1 signer key.
func GenerateSignerKey() (*ecdsa.PrivateKey, error) {
	return ethcrypto.GenerateKey()
}

// SignerKeyFromHex parses a 32-byte secp256k1 private key from hex
// (the 0x prefix is optional).
func SignerKeyFromHex(keyHex string) (*ecdsa.PrivateKey, error) {
	keyHex = strings.TrimPrefix(strings.TrimSpace(keyHex), "0x")
	b, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("decode signer key hex: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("signer key must be 32 bytes, got %d", len(b))
	}
	return ethcrypto.ToECDSA(b)
}

// SignerKeyHex encodes a signer key for storage.
func SignerKeyHex(priv *ecdsa.PrivateKey) string {
	return hex.EncodeToString(ethcrypto.FromECDSA(priv))
}

// rootKeyBytes exposes the raw 32-byte scalar for keystore storage.
func rootKeyBytes(priv *ecdsa.PrivateKey) []byte {
	return ethcrypto.FromECDSA(priv)
}

// SignerAddress derives the signer identity from a key.
func SignerAddress(priv *ecdsa.PrivateKey) common.Address {
	return ethcrypto.PubkeyToAddress(priv.PublicKey)
}

// SignDigest produces the three-part [R || S || V] signature over a 256-bit
// digest, with V in {0, 1}.
func SignDigest(priv *ecdsa.PrivateKey, digest common.Hash) ([]byte, error) {
	return ethcrypto.Sign(digest[:], priv)
}

// SignAuthorization builds the authorization digest for (selector, deadline,
// chainID, caller) and signs it, returning a complete request ready to be
// presented to the registry by caller.
func SignAuthorization(priv *ecdsa.PrivateKey, selector registry.Selector, deadline int64, chainID uint64, caller common.Address) (registry.AuthorizationRequest, error) {
	digest := registry.AuthorizationDigest(selector, deadline, chainID, caller)
	sig, err := SignDigest(priv, digest)
	if err != nil {
		return registry.AuthorizationRequest{}, fmt.Errorf("sign authorization digest: %w", err)
	}
	return registry.AuthorizationRequest{
		Deadline:  deadline,
		Signer:    SignerAddress(priv),
		Caller:    caller,
		Selector:  selector,
		Signature: sig,
	}, nil
}
