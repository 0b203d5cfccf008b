package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"xdao.co/feereg/grpcregistry"
	"xdao.co/feereg/keys"
	"xdao.co/feereg/registry"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "selector":
		return cmdSelector(args[1:], out, errOut)
	case "digest":
		return cmdDigest(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "recover":
		return cmdRecover(args[1:], out, errOut)
	case "remote":
		return cmdRemote(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-feereg: fee registry CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-feereg key init --name <name> [--key-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  xdao-feereg key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  xdao-feereg key list")
	fmt.Fprintln(w, "  xdao-feereg key export --name <name> [--role <role>]")
	fmt.Fprintln(w, "  xdao-feereg selector <function-signature>")
	fmt.Fprintln(w, "  xdao-feereg digest --selector <0xhex4> --deadline <unix> --chain-id <n> --caller <addr>")
	fmt.Fprintln(w, "  xdao-feereg sign --recipient <addr> --selector <0xhex4> --caller <addr> [--deadline <unix> | --ttl <dur>] [--chain-id <n>] (--key-hex <64hex> | --signer <name> [--signer-role <role>] | --key-file <path>)")
	fmt.Fprintln(w, "  xdao-feereg recover --digest <0xhex32> --signature <0xhex65>")
	fmt.Fprintln(w, "  xdao-feereg remote <subcommand> --target <host:port> ...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Remote subcommands:")
	fmt.Fprintln(w, "  register --recipient <addr> --owner <addr>")
	fmt.Fprintln(w, "  assign --recipient <addr> --token-id <n>")
	fmt.Fprintln(w, "  declare --recipient <addr> --selector <0xhex4> [--selector ...]")
	fmt.Fprintln(w, "  capabilities --recipient <addr>")
	fmt.Fprintln(w, "  signer add|remove --caller <addr> --signer <addr> --token-id <n>")
	fmt.Fprintln(w, "  is-signer --recipient <addr> --signer <addr>")
	fmt.Fprintln(w, "  authorize --file <payload.json>")
	fmt.Fprintln(w, "  token-id --recipient <addr>")
	fmt.Fprintln(w, "  is-registered --recipient <addr>")
	fmt.Fprintln(w, "  balance --token-id <n>")
	fmt.Fprintln(w, "  counter")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - --key-hex must be a 32-byte secp256k1 private key (64 hex chars)")
	fmt.Fprintln(w, "  - keys are stored under ~/.xdao/feereg/keys/<name> (0600 private key files)")
	fmt.Fprintln(w, "  - sign writes a JSON authorization payload for `remote authorize --file`")
}

// selectorList collects repeated --selector flags.
type selectorList []string

func (s *selectorList) String() string { return strings.Join(*s, ",") }

func (s *selectorList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-feereg key: minimal local key management (KMS-lite)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-feereg key init --name <name> [--key-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  xdao-feereg key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  xdao-feereg key list")
	fmt.Fprintln(w, "  xdao-feereg key export --name <name> [--role <role>]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var keyHex string
	var force bool

	fs.StringVar(&name, "name", "", "Key name (directory under ~/.xdao/feereg/keys)")
	fs.StringVar(&keyHex, "key-hex", "", "Optional secp256k1 private key as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	var key []byte
	if keyHex != "" {
		var derr error
		key, derr = keys.ParseKeyHex(keyHex)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --key-hex: %v\n", derr)
			return 2
		}
	} else {
		priv, gerr := keys.GenerateSignerKey()
		if gerr != nil {
			fmt.Fprintf(errOut, "rand: %v\n", gerr)
			return 1
		}
		key, err = keys.ParseKeyHex(keys.SignerKeyHex(priv))
		if err != nil {
			fmt.Fprintf(errOut, "keys: %v\n", err)
			return 1
		}
	}

	address, rootPath, err := ks.InitializeRootKey(name, key, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root key: %s\n", address)
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var role string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. operator, treasurer)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return 2
	}
	if role == "" {
		fmt.Fprintln(errOut, "missing --role")
		return 2
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(errOut, "invalid --from: %v\n", err)
		return 2
	}
	if err := keys.CheckRole(role); err != nil {
		fmt.Fprintf(errOut, "invalid --role: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	address, rolePath, err := ks.DeriveKeyFromRole(from, role, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive role key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created role key: %s\n", address)
	fmt.Fprintf(out, "Stored at: %s\n", rolePath)
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var role string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (if set, exports derived role key)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	if role != "" {
		if err := keys.CheckRole(role); err != nil {
			fmt.Fprintf(errOut, "invalid --role: %v\n", err)
			return 2
		}
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	address, err := ks.ExportKey(name, role)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, address)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Identifier)
		for _, r := range e.Roles {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	return 0
}

func cmdSelector(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("selector", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: xdao-feereg selector <function-signature>")
		return 2
	}
	_, _ = fmt.Fprintln(out, registry.SelectorOf(fs.Arg(0)))
	return 0
}

func cmdDigest(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var selectorStr, callerStr string
	var deadline int64
	var chainID uint64

	fs.StringVar(&selectorStr, "selector", "", "Function selector (0xhex4)")
	fs.Int64Var(&deadline, "deadline", 0, "Expiry as unix seconds")
	fs.Uint64Var(&chainID, "chain-id", 1, "Chain id")
	fs.StringVar(&callerStr, "caller", "", "Calling account address")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	selector, caller, code := parseSelectorCaller(selectorStr, callerStr, errOut)
	if code != 0 {
		return code
	}
	if deadline == 0 {
		fmt.Fprintln(errOut, "missing --deadline")
		return 2
	}
	digest := registry.AuthorizationDigest(selector, deadline, chainID, caller)
	_, _ = fmt.Fprintln(out, digest.Hex())
	return 0
}

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var recipientStr, selectorStr, callerStr string
	var deadline int64
	var ttl time.Duration
	var chainID uint64
	var keyHex, signerName, signerRole, keyFile string

	fs.StringVar(&recipientStr, "recipient", "", "Recipient identity presented to Authorize")
	fs.StringVar(&selectorStr, "selector", "", "Function selector (0xhex4)")
	fs.Int64Var(&deadline, "deadline", 0, "Expiry as unix seconds (overrides --ttl)")
	fs.DurationVar(&ttl, "ttl", 5*time.Minute, "Validity window when --deadline is unset")
	fs.Uint64Var(&chainID, "chain-id", 1, "Chain id")
	fs.StringVar(&callerStr, "caller", "", "Calling account address bound into the digest")
	fs.StringVar(&keyHex, "key-hex", "", "Signer private key as 64 hex chars")
	fs.StringVar(&signerName, "signer", "", "Stored key name")
	fs.StringVar(&signerRole, "signer-role", "", "Stored key role")
	fs.StringVar(&keyFile, "key-file", "", "Path to a key file")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	selector, caller, code := parseSelectorCaller(selectorStr, callerStr, errOut)
	if code != 0 {
		return code
	}
	if !common.IsHexAddress(recipientStr) {
		fmt.Fprintln(errOut, "missing or invalid --recipient")
		return 2
	}
	if deadline == 0 {
		deadline = time.Now().Add(ttl).Unix()
	}

	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	priv, err := ks.LoadSignerKey(keyHex, signerName, signerRole, keyFile)
	if err != nil {
		fmt.Fprintf(errOut, "load signer key: %v\n", err)
		return 2
	}

	req, err := keys.SignAuthorization(priv, selector, deadline, chainID, caller)
	if err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}
	payload := grpcregistry.AuthorizeRequest{
		Recipient: common.HexToAddress(recipientStr).Hex(),
		Signer:    req.Signer.Hex(),
		Caller:    req.Caller.Hex(),
		Selector:  req.Selector.String(),
		Deadline:  req.Deadline,
		Signature: "0x" + hex.EncodeToString(req.Signature),
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		fmt.Fprintf(errOut, "encode payload: %v\n", err)
		return 1
	}
	return 0
}

func cmdRecover(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("recover", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var digestHex, sigHex string
	fs.StringVar(&digestHex, "digest", "", "32-byte digest (0xhex)")
	fs.StringVar(&sigHex, "signature", "", "65-byte [R || S || V] signature (0xhex)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	digestBytes, err := hex.DecodeString(strings.TrimPrefix(digestHex, "0x"))
	if err != nil || len(digestBytes) != common.HashLength {
		fmt.Fprintln(errOut, "invalid --digest: need 32 bytes of hex")
		return 2
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	if err != nil {
		fmt.Fprintln(errOut, "invalid --signature hex")
		return 2
	}
	recovered, err := registry.RecoverSigner(common.BytesToHash(digestBytes), sig)
	if err != nil {
		fmt.Fprintf(errOut, "recover: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, recovered.Hex())
	return 0
}

func parseSelectorCaller(selectorStr, callerStr string, errOut io.Writer) (registry.Selector, common.Address, int) {
	if selectorStr == "" {
		fmt.Fprintln(errOut, "missing --selector")
		return registry.Selector{}, common.Address{}, 2
	}
	selector, err := registry.ParseSelector(selectorStr)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --selector: %v\n", err)
		return registry.Selector{}, common.Address{}, 2
	}
	if !common.IsHexAddress(callerStr) {
		fmt.Fprintln(errOut, "missing or invalid --caller")
		return registry.Selector{}, common.Address{}, 2
	}
	return selector, common.HexToAddress(callerStr), 0
}
