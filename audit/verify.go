package audit

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"xdao.co/feereg/keys"
)

// SignatureAlg returns the CRYPTO Signature-Alg value.
func (r *Record) SignatureAlg() string { return r.crypto("Signature-Alg") }

// HashAlg returns the CRYPTO Hash-Alg value.
func (r *Record) HashAlg() string { return r.crypto("Hash-Alg") }

// OperatorKey returns the CRYPTO Operator-Key value, the encoded public key
// of the attesting operator ("ed25519:<base64>" or "dilithium3:<base64>").
func (r *Record) OperatorKey() string { return r.crypto("Operator-Key") }

// Signature returns the CRYPTO Signature value.
func (r *Record) Signature() string { return r.crypto("Signature") }

// OperatorPublicKeyBytes returns the raw public key bytes for the operator.
func (r *Record) OperatorPublicKeyBytes() ([]byte, error) {
	operator := r.OperatorKey()
	if operator == "" {
		return nil, newError(KindCrypto, "FEEREG-AUD-301", "missing Operator-Key")
	}
	alg, enc, ok := strings.Cut(operator, ":")
	if !ok {
		return nil, newError(KindCrypto, "FEEREG-AUD-302", "invalid Operator-Key encoding")
	}
	pub, err := decodeBase64(enc)
	if err != nil {
		return nil, wrapError(KindCrypto, "FEEREG-AUD-303", "invalid operator key base64", err)
	}

	switch alg {
	case "ed25519":
		if len(pub) != ed25519.PublicKeySize {
			return nil, newError(KindCrypto, "FEEREG-AUD-304", "invalid ed25519 public key length")
		}
		return pub, nil
	case "dilithium3":
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return nil, wrapError(KindCrypto, "FEEREG-AUD-305", "invalid dilithium3 public key", err)
		}
		return pub, nil
	default:
		return nil, newError(KindCrypto, "FEEREG-AUD-306", "unsupported Operator-Key encoding")
	}
}

// SignatureBytes returns the raw signature bytes.
func (r *Record) SignatureBytes() ([]byte, error) {
	s := r.Signature()
	if s == "" {
		return nil, newError(KindCrypto, "FEEREG-AUD-307", "missing Signature")
	}
	sig, err := decodeBase64(s)
	if err != nil {
		return nil, wrapError(KindCrypto, "FEEREG-AUD-308", "invalid signature base64", err)
	}
	switch r.SignatureAlg() {
	case "ed25519":
		if len(sig) != ed25519.SignatureSize {
			return nil, newError(KindCrypto, "FEEREG-AUD-309", "invalid ed25519 signature length")
		}
	case "dilithium3":
		if len(sig) != mode3.SignatureSize {
			return nil, newError(KindCrypto, "FEEREG-AUD-310", "invalid dilithium3 signature length")
		}
	}
	return sig, nil
}

// Verify checks the record's operator signature over the signed scope.
//
// The receiver's Raw bytes are re-parsed first so canonicalization cannot be
// bypassed by a manually constructed or mutated Record.
func (r *Record) Verify() error {
	if r == nil {
		return newError(KindCrypto, "FEEREG-AUD-300", "nil record")
	}
	parsed, err := Parse(r.Raw)
	if err != nil {
		return err
	}
	r = parsed

	if r.SignatureAlg() == "" {
		return newError(KindCrypto, "FEEREG-AUD-311", "missing Signature-Alg")
	}
	if r.HashAlg() == "" {
		return newError(KindCrypto, "FEEREG-AUD-312", "missing Hash-Alg")
	}
	operator := r.OperatorKey()
	if operator == "" {
		return newError(KindCrypto, "FEEREG-AUD-301", "missing Operator-Key")
	}
	operatorAlg, _, ok := strings.Cut(operator, ":")
	if !ok {
		return newError(KindCrypto, "FEEREG-AUD-302", "invalid Operator-Key encoding")
	}
	if operatorAlg != r.SignatureAlg() {
		return newError(KindCrypto, "FEEREG-AUD-313", "Operator-Key alg does not match Signature-Alg")
	}

	pub, err := r.OperatorPublicKeyBytes()
	if err != nil {
		return err
	}
	sig, err := r.SignatureBytes()
	if err != nil {
		return err
	}
	digest, err := keys.DigestFor(r.HashAlg(), r.Signed)
	if err != nil {
		return wrapError(KindCrypto, "FEEREG-AUD-314", "unsupported Hash-Alg", err)
	}

	switch r.SignatureAlg() {
	case "ed25519":
		if !ed25519.Verify(ed25519.PublicKey(pub), digest, sig) {
			return newError(KindCrypto, "FEEREG-AUD-401", "signature invalid")
		}
		return nil
	case "dilithium3":
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return wrapError(KindCrypto, "FEEREG-AUD-305", "invalid dilithium3 public key", err)
		}
		if !mode3.Verify(&pk, digest, sig) {
			return newError(KindCrypto, "FEEREG-AUD-401", "signature invalid")
		}
		return nil
	default:
		return newError(KindCrypto, "FEEREG-AUD-315", "unsupported Signature-Alg")
	}
}

func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
