// Package keys provides key-related helpers for the fee registry.
//
// Two key families live here:
//
//   - Signer keys: secp256k1 keys whose holders produce three-part
//     [R || S || V] signatures over authorization digests. The signer's
//     identity is the address derived from the public key, so the registry
//     can recover it from a signature alone.
//   - Operator keys: Ed25519 or Dilithium3 keys used by a registry operator
//     to attest audit journal records.
//
// API stability:
//
// Stable (SemVer-protected):
//   - Pure, deterministic primitives for signing, identity derivation and
//     role-key derivation.
//
// Experimental:
//   - Filesystem-backed key storage and convenience helpers (KeyStore and
//     related functions). These are local-first utilities and are not part
//     of the long-term protocol contract.
package keys
