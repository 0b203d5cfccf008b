package keys

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// DeriveRoleKey deterministically derives a role-specific signer key from a
// 32-byte root key.
//
// The sha256-based KDF mirrors the CLI derivation for compatibility. A
// candidate scalar outside the secp256k1 group order is rejected and the
// counter advances; in practice the first candidate is accepted for all but
// a negligible fraction of inputs.
func DeriveRoleKey(rootKey []byte, role string) (*ecdsa.PrivateKey, error) {
	if len(rootKey) != 32 {
		return nil, fmt.Errorf("root key must be 32 bytes, got %d", len(rootKey))
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}

	for counter := byte(0); counter < 255; counter++ {
		h := sha256.New()
		_, _ = h.Write(rootKey)
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte("xdao-feereg-kms-lite-v1"))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte("role:"))
		_, _ = h.Write([]byte(role))
		_, _ = h.Write([]byte{counter})
		candidate := h.Sum(nil)

		priv, err := ethcrypto.ToECDSA(candidate)
		if err == nil {
			return priv, nil
		}
	}
	return nil, errors.New("kdf produced no valid scalar")
}
