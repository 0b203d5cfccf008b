package keys

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"xdao.co/feereg/registry"
)

func TestSignAuthorizationRecovers(t *testing.T) {
	priv, err := GenerateSignerKey()
	if err != nil {
		t.Fatalf("GenerateSignerKey: %v", err)
	}
	sel := registry.SelectorOf("withdraw(uint256)")
	caller := common.HexToAddress("0x00000000000000000000000000000000000000c1")

	req, err := SignAuthorization(priv, sel, 2_000_000_000, 1, caller)
	if err != nil {
		t.Fatalf("SignAuthorization: %v", err)
	}
	if req.Signer != SignerAddress(priv) {
		t.Fatalf("request signer = %s, want %s", req.Signer, SignerAddress(priv))
	}
	if len(req.Signature) != registry.SignatureLength {
		t.Fatalf("signature length = %d", len(req.Signature))
	}

	digest := registry.AuthorizationDigest(req.Selector, req.Deadline, 1, req.Caller)
	recovered, err := registry.RecoverSigner(digest, req.Signature)
	if err != nil {
		t.Fatalf("RecoverSigner: %v", err)
	}
	if recovered != req.Signer {
		t.Fatalf("recovered %s, want %s", recovered, req.Signer)
	}
}

func TestMutatedSignatureDoesNotRecoverSigner(t *testing.T) {
	priv, err := GenerateSignerKey()
	if err != nil {
		t.Fatalf("GenerateSignerKey: %v", err)
	}
	sel := registry.SelectorOf("withdraw(uint256)")
	caller := common.HexToAddress("0x00000000000000000000000000000000000000c1")
	digest := registry.AuthorizationDigest(sel, 2_000_000_000, 1, caller)
	sig, err := SignDigest(priv, digest)
	if err != nil {
		t.Fatalf("SignDigest: %v", err)
	}

	// Flip one bit of R. Recovery either fails outright or yields a
	// different address; it must never still report the signer.
	mutated := append([]byte(nil), sig...)
	mutated[3] ^= 0x01
	recovered, err := registry.RecoverSigner(digest, mutated)
	if err == nil && recovered == SignerAddress(priv) {
		t.Fatalf("mutated signature still recovered the signer")
	}
}

func TestSignerKeyHexRoundTrip(t *testing.T) {
	priv, err := GenerateSignerKey()
	if err != nil {
		t.Fatalf("GenerateSignerKey: %v", err)
	}
	encoded := SignerKeyHex(priv)
	back, err := SignerKeyFromHex(encoded)
	if err != nil {
		t.Fatalf("SignerKeyFromHex: %v", err)
	}
	if SignerAddress(back) != SignerAddress(priv) {
		t.Fatalf("round trip changed the key")
	}
	// 0x prefix and surrounding whitespace are tolerated.
	back2, err := SignerKeyFromHex("  0x" + encoded + "\n")
	if err != nil || SignerAddress(back2) != SignerAddress(priv) {
		t.Fatalf("prefixed parse failed: %v", err)
	}

	for _, bad := range []string{"", "abcd", strings.Repeat("zz", 32)} {
		if _, err := SignerKeyFromHex(bad); err == nil {
			t.Fatalf("SignerKeyFromHex(%q) accepted", bad)
		}
	}
}

func TestDeriveRoleKeyDeterministic(t *testing.T) {
	root := make([]byte, 32)
	for i := range root {
		root[i] = byte(i + 1)
	}

	a, err := DeriveRoleKey(root, "operator")
	if err != nil {
		t.Fatalf("DeriveRoleKey: %v", err)
	}
	b, err := DeriveRoleKey(root, "operator")
	if err != nil {
		t.Fatalf("DeriveRoleKey: %v", err)
	}
	if SignerAddress(a) != SignerAddress(b) {
		t.Fatalf("derivation not deterministic")
	}

	c, err := DeriveRoleKey(root, "treasurer")
	if err != nil {
		t.Fatalf("DeriveRoleKey: %v", err)
	}
	if SignerAddress(a) == SignerAddress(c) {
		t.Fatalf("distinct roles derived the same key")
	}

	if _, err := DeriveRoleKey(root[:16], "operator"); err == nil {
		t.Fatalf("short root key accepted")
	}
	if _, err := DeriveRoleKey(root, "bad role"); err == nil {
		t.Fatalf("invalid role accepted")
	}
}

func TestKeyStoreLifecycle(t *testing.T) {
	dir := t.TempDir()
	ks, err := CreateKeyStore(dir)
	if err != nil {
		t.Fatalf("CreateKeyStore: %v", err)
	}

	priv, err := GenerateSignerKey()
	if err != nil {
		t.Fatalf("GenerateSignerKey: %v", err)
	}
	raw, err := ParseKeyHex(SignerKeyHex(priv))
	if err != nil {
		t.Fatalf("ParseKeyHex: %v", err)
	}

	address, rootPath, err := ks.InitializeRootKey("treasury", raw, false)
	if err != nil {
		t.Fatalf("InitializeRootKey: %v", err)
	}
	if address != SignerAddress(priv).Hex() {
		t.Fatalf("address = %s, want %s", address, SignerAddress(priv).Hex())
	}
	if rootPath == "" {
		t.Fatalf("empty root path")
	}

	// Double init without --force fails; with overwrite succeeds.
	if _, _, err := ks.InitializeRootKey("treasury", raw, false); err == nil {
		t.Fatalf("overwrite without force accepted")
	}
	if _, _, err := ks.InitializeRootKey("treasury", raw, true); err != nil {
		t.Fatalf("forced overwrite: %v", err)
	}

	roleAddr, _, err := ks.DeriveKeyFromRole("treasury", "operator", false)
	if err != nil {
		t.Fatalf("DeriveKeyFromRole: %v", err)
	}
	if roleAddr == address {
		t.Fatalf("role key equals root key")
	}

	exported, err := ks.ExportKey("treasury", "")
	if err != nil || exported != address {
		t.Fatalf("ExportKey root = (%s, %v)", exported, err)
	}
	exportedRole, err := ks.ExportKey("treasury", "operator")
	if err != nil || exportedRole != roleAddr {
		t.Fatalf("ExportKey role = (%s, %v)", exportedRole, err)
	}

	entries, err := ks.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(entries) != 1 || entries[0].Identifier != "treasury" {
		t.Fatalf("entries = %+v", entries)
	}
	if len(entries[0].Roles) != 1 || entries[0].Roles[0] != "operator" {
		t.Fatalf("roles = %v", entries[0].Roles)
	}

	loaded, err := ks.LoadSignerKey("", "treasury", "operator", "")
	if err != nil {
		t.Fatalf("LoadSignerKey: %v", err)
	}
	if SignerAddress(loaded).Hex() != roleAddr {
		t.Fatalf("loaded role key mismatch")
	}
	if _, err := ks.LoadSignerKey("", "", "", ""); err == nil {
		t.Fatalf("LoadSignerKey with no source accepted")
	}
}

func TestCheckKeyNameAndRole(t *testing.T) {
	for _, ok := range []string{"a", "key-1", "Key_2", "ROLE"} {
		if err := CheckKeyName(ok); err != nil {
			t.Fatalf("CheckKeyName(%q): %v", ok, err)
		}
		if err := CheckRole(ok); err != nil {
			t.Fatalf("CheckRole(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "a b", "a/b", "a.b", "é"} {
		if err := CheckKeyName(bad); err == nil {
			t.Fatalf("CheckKeyName(%q) accepted", bad)
		}
		if err := CheckRole(bad); err == nil {
			t.Fatalf("CheckRole(%q) accepted", bad)
		}
	}
}
