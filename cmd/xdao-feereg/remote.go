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
	"xdao.co/feereg/registry"
)

const defaultTarget = "127.0.0.1:7788"

func cmdRemote(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-feereg remote <subcommand> --target <host:port> ...")
		fmt.Fprintln(errOut, "subcommands: register, assign, declare, capabilities, signer, is-signer, authorize, token-id, is-registered, balance, counter")
		return 2
	}
	switch args[0] {
	case "register":
		return remoteRegister(args[1:], out, errOut)
	case "assign":
		return remoteAssign(args[1:], out, errOut)
	case "declare":
		return remoteDeclare(args[1:], out, errOut)
	case "capabilities":
		return remoteCapabilities(args[1:], out, errOut)
	case "signer":
		return remoteSigner(args[1:], out, errOut)
	case "is-signer":
		return remoteIsSigner(args[1:], out, errOut)
	case "authorize":
		return remoteAuthorize(args[1:], out, errOut)
	case "token-id":
		return remoteTokenID(args[1:], out, errOut)
	case "is-registered":
		return remoteIsRegistered(args[1:], out, errOut)
	case "balance":
		return remoteBalance(args[1:], out, errOut)
	case "counter":
		return remoteCounter(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown remote subcommand: %s\n", args[0])
		return 2
	}
}

func dialTarget(target string, errOut io.Writer) (*grpcregistry.Client, int) {
	client, err := grpcregistry.Dial(target, grpcregistry.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		fmt.Fprintf(errOut, "dial %s: %v\n", target, err)
		return nil, 1
	}
	client.Timeout = 10 * time.Second
	return client, 0
}

func mustAddress(fs *flag.FlagSet, name, value string, errOut io.Writer) (common.Address, int) {
	_ = fs
	if !common.IsHexAddress(value) {
		fmt.Fprintf(errOut, "missing or invalid --%s\n", name)
		return common.Address{}, 2
	}
	return common.HexToAddress(value), 0
}

func remoteRegister(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("remote register", flag.ContinueOnError)
	fs.SetOutput(errOut)
	target := fs.String("target", defaultTarget, "Daemon address")
	recipientStr := fs.String("recipient", "", "Recipient identity")
	ownerStr := fs.String("owner", "", "Token owner")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	recipient, code := mustAddress(fs, "recipient", *recipientStr, errOut)
	if code != 0 {
		return code
	}
	owner, code := mustAddress(fs, "owner", *ownerStr, errOut)
	if code != 0 {
		return code
	}
	client, code := dialTarget(*target, errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	id, err := client.Register(recipient, owner)
	if err != nil {
		fmt.Fprintf(errOut, "register: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "%d\n", id)
	return 0
}

func remoteAssign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("remote assign", flag.ContinueOnError)
	fs.SetOutput(errOut)
	target := fs.String("target", defaultTarget, "Daemon address")
	recipientStr := fs.String("recipient", "", "Recipient identity")
	tokenID := fs.Uint64("token-id", 0, "Existing token id")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	recipient, code := mustAddress(fs, "recipient", *recipientStr, errOut)
	if code != 0 {
		return code
	}
	if *tokenID == 0 {
		fmt.Fprintln(errOut, "missing --token-id")
		return 2
	}
	client, code := dialTarget(*target, errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	if err := client.Assign(recipient, *tokenID); err != nil {
		fmt.Fprintf(errOut, "assign: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, "ok")
	return 0
}

func remoteDeclare(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("remote declare", flag.ContinueOnError)
	fs.SetOutput(errOut)
	target := fs.String("target", defaultTarget, "Daemon address")
	recipientStr := fs.String("recipient", "", "Recipient identity")
	var selectors selectorList
	fs.Var(&selectors, "selector", "Function selector (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	recipient, code := mustAddress(fs, "recipient", *recipientStr, errOut)
	if code != 0 {
		return code
	}
	if len(selectors) == 0 {
		fmt.Fprintln(errOut, "missing --selector")
		return 2
	}
	parsed := make([]registry.Selector, 0, len(selectors))
	for _, s := range selectors {
		sel, err := registry.ParseSelector(s)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --selector %q: %v\n", s, err)
			return 2
		}
		parsed = append(parsed, sel)
	}
	client, code := dialTarget(*target, errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	if err := client.DeclareCapabilities(recipient, parsed...); err != nil {
		fmt.Fprintf(errOut, "declare: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, "ok")
	return 0
}

func remoteCapabilities(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("remote capabilities", flag.ContinueOnError)
	fs.SetOutput(errOut)
	target := fs.String("target", defaultTarget, "Daemon address")
	recipientStr := fs.String("recipient", "", "Recipient identity")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	recipient, code := mustAddress(fs, "recipient", *recipientStr, errOut)
	if code != 0 {
		return code
	}
	client, code := dialTarget(*target, errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	selectors, err := client.Capabilities(recipient)
	if err != nil {
		fmt.Fprintf(errOut, "capabilities: %v\n", err)
		return 1
	}
	for _, sel := range selectors {
		fmt.Fprintln(out, sel)
	}
	return 0
}

func remoteSigner(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 || (args[0] != "add" && args[0] != "remove") {
		fmt.Fprintln(errOut, "usage: xdao-feereg remote signer add|remove --caller <addr> --signer <addr> --token-id <n>")
		return 2
	}
	add := args[0] == "add"

	fs := flag.NewFlagSet("remote signer "+args[0], flag.ContinueOnError)
	fs.SetOutput(errOut)
	target := fs.String("target", defaultTarget, "Daemon address")
	callerStr := fs.String("caller", "", "Token holder")
	signerStr := fs.String("signer", "", "Signer identity")
	tokenID := fs.Uint64("token-id", 0, "Ownership token id")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	caller, code := mustAddress(fs, "caller", *callerStr, errOut)
	if code != 0 {
		return code
	}
	signer, code := mustAddress(fs, "signer", *signerStr, errOut)
	if code != 0 {
		return code
	}
	if *tokenID == 0 {
		fmt.Fprintln(errOut, "missing --token-id")
		return 2
	}
	client, code := dialTarget(*target, errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	var err error
	if add {
		err = client.SetSigner(caller, signer, *tokenID)
	} else {
		err = client.RemoveSigner(caller, signer, *tokenID)
	}
	if err != nil {
		fmt.Fprintf(errOut, "signer %s: %v\n", args[0], err)
		return 1
	}
	fmt.Fprintln(out, "ok")
	return 0
}

func remoteIsSigner(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("remote is-signer", flag.ContinueOnError)
	fs.SetOutput(errOut)
	target := fs.String("target", defaultTarget, "Daemon address")
	recipientStr := fs.String("recipient", "", "Recipient identity")
	signerStr := fs.String("signer", "", "Signer identity")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	recipient, code := mustAddress(fs, "recipient", *recipientStr, errOut)
	if code != 0 {
		return code
	}
	signer, code := mustAddress(fs, "signer", *signerStr, errOut)
	if code != 0 {
		return code
	}
	client, code := dialTarget(*target, errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	ok, err := client.IsSigner(recipient, signer)
	if err != nil {
		fmt.Fprintf(errOut, "is-signer: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "%t\n", ok)
	return 0
}

func remoteAuthorize(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("remote authorize", flag.ContinueOnError)
	fs.SetOutput(errOut)
	target := fs.String("target", defaultTarget, "Daemon address")
	file := fs.String("file", "", "JSON payload produced by `xdao-feereg sign`")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *file == "" {
		fmt.Fprintln(errOut, "missing --file")
		return 2
	}
	raw, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(errOut, "read --file: %v\n", err)
		return 1
	}
	var payload grpcregistry.AuthorizeRequest
	if err := json.Unmarshal(raw, &payload); err != nil {
		fmt.Fprintf(errOut, "parse --file: %v\n", err)
		return 2
	}
	recipient, code := mustAddress(fs, "file recipient", payload.Recipient, errOut)
	if code != 0 {
		return code
	}
	signer, code := mustAddress(fs, "file signer", payload.Signer, errOut)
	if code != 0 {
		return code
	}
	caller, code := mustAddress(fs, "file caller", payload.Caller, errOut)
	if code != 0 {
		return code
	}
	selector, err := registry.ParseSelector(payload.Selector)
	if err != nil {
		fmt.Fprintf(errOut, "payload selector: %v\n", err)
		return 2
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(payload.Signature, "0x"))
	if err != nil {
		fmt.Fprintf(errOut, "payload signature: %v\n", err)
		return 2
	}
	client, code := dialTarget(*target, errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	req := registry.AuthorizationRequest{
		Deadline:  payload.Deadline,
		Signer:    signer,
		Caller:    caller,
		Selector:  selector,
		Signature: sig,
	}
	if err := client.Authorize(recipient, req); err != nil {
		fmt.Fprintf(errOut, "authorize: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, "authorized")
	return 0
}

func remoteTokenID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("remote token-id", flag.ContinueOnError)
	fs.SetOutput(errOut)
	target := fs.String("target", defaultTarget, "Daemon address")
	recipientStr := fs.String("recipient", "", "Recipient identity")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	recipient, code := mustAddress(fs, "recipient", *recipientStr, errOut)
	if code != 0 {
		return code
	}
	client, code := dialTarget(*target, errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	id, err := client.TokenID(recipient)
	if err != nil {
		fmt.Fprintf(errOut, "token-id: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "%d\n", id)
	return 0
}

func remoteIsRegistered(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("remote is-registered", flag.ContinueOnError)
	fs.SetOutput(errOut)
	target := fs.String("target", defaultTarget, "Daemon address")
	recipientStr := fs.String("recipient", "", "Recipient identity")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	recipient, code := mustAddress(fs, "recipient", *recipientStr, errOut)
	if code != 0 {
		return code
	}
	client, code := dialTarget(*target, errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	ok, err := client.IsRegistered(recipient)
	if err != nil {
		fmt.Fprintf(errOut, "is-registered: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "%t\n", ok)
	return 0
}

func remoteBalance(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("remote balance", flag.ContinueOnError)
	fs.SetOutput(errOut)
	target := fs.String("target", defaultTarget, "Daemon address")
	tokenID := fs.Uint64("token-id", 0, "Ownership token id")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *tokenID == 0 {
		fmt.Fprintln(errOut, "missing --token-id")
		return 2
	}
	client, code := dialTarget(*target, errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	balance, err := client.Balance(*tokenID)
	if err != nil {
		fmt.Fprintf(errOut, "balance: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "%d\n", balance)
	return 0
}

func remoteCounter(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("remote counter", flag.ContinueOnError)
	fs.SetOutput(errOut)
	target := fs.String("target", defaultTarget, "Daemon address")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	client, code := dialTarget(*target, errOut)
	if code != 0 {
		return code
	}
	defer client.Close()
	counter, err := client.Counter()
	if err != nil {
		fmt.Fprintf(errOut, "counter: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "%d\n", counter)
	return 0
}
