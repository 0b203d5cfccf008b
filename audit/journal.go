package audit

import (
	"crypto/ed25519"
	"strconv"
	"sync"
	"time"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/ethereum/go-ethereum/common"

	"xdao.co/feereg/keys"
	"xdao.co/feereg/registry"
	"xdao.co/feereg/storage"
)

// Attestor signs the covered scope of a journal record with an operator key.
type Attestor interface {
	SignatureAlg() string
	HashAlg() string
	// OperatorKey returns the encoded public key ("<alg>:<base64>").
	OperatorKey() string
	// Attest returns the base64 signature over the signed scope.
	Attest(signed []byte) (string, error)
}

// Ed25519Attestor attests records with an Ed25519 operator key over sha256.
type Ed25519Attestor struct {
	priv ed25519.PrivateKey
	pub  string
}

func NewEd25519Attestor(priv ed25519.PrivateKey) (*Ed25519Attestor, error) {
	pub, err := keys.OperatorKeyFromPublicKey(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &Ed25519Attestor{priv: priv, pub: pub}, nil
}

func (a *Ed25519Attestor) SignatureAlg() string { return "ed25519" }
func (a *Ed25519Attestor) HashAlg() string      { return "sha256" }
func (a *Ed25519Attestor) OperatorKey() string  { return a.pub }

func (a *Ed25519Attestor) Attest(signed []byte) (string, error) {
	return keys.SignEd25519SHA256(signed, a.priv), nil
}

// Dilithium3Attestor attests records with a post-quantum operator key over
// sha3-256.
type Dilithium3Attestor struct {
	priv *mode3.PrivateKey
	pub  string
}

func NewDilithium3Attestor(pub *mode3.PublicKey, priv *mode3.PrivateKey) (*Dilithium3Attestor, error) {
	enc, err := keys.OperatorKeyFromDilithium3(pub)
	if err != nil {
		return nil, err
	}
	if priv == nil {
		return nil, newError(KindCrypto, "FEEREG-AUD-316", "missing private key")
	}
	return &Dilithium3Attestor{priv: priv, pub: enc}, nil
}

func (a *Dilithium3Attestor) SignatureAlg() string { return "dilithium3" }
func (a *Dilithium3Attestor) HashAlg() string      { return "sha3-256" }
func (a *Dilithium3Attestor) OperatorKey() string  { return a.pub }

func (a *Dilithium3Attestor) Attest(signed []byte) (string, error) {
	return keys.SignDilithium3(signed, a.HashAlg(), a.priv)
}

// Journal is an append-only, operator-attested log of registry events.
//
// Each committed event becomes one canonical record, signed by the operator
// key, stored under its CID, and linked to its predecessor through Prev-CID.
// Journal implements registry.Emitter so it can be wired directly into a
// registry via registry.WithEmitter.
//
// Sequence numbers reflect journal append order. Registry events are
// delivered outside the registry lock, so under concurrent mutations the
// journal's order may differ from the registry's commit order (see
// registry.Emitter); the chain is a total order of what the operator
// attested, not of registry commits.
type Journal struct {
	store    storage.Store
	attestor Attestor
	chainID  uint64
	now      func() time.Time

	mu      sync.Mutex
	seq     uint64
	head    string
	lastErr error
}

// JournalOption configures a Journal.
type JournalOption func(*Journal)

// WithJournalChainID sets the Chain-ID stamped into every record. The value
// should match the registry's authorization chain identifier.
func WithJournalChainID(chainID uint64) JournalOption {
	return func(j *Journal) { j.chainID = chainID }
}

// WithJournalClock overrides the timestamp source. Intended for tests.
func WithJournalClock(now func() time.Time) JournalOption {
	return func(j *Journal) { j.now = now }
}

// NewJournal returns a Journal writing attested records to store.
func NewJournal(store storage.Store, attestor Attestor, opts ...JournalOption) *Journal {
	j := &Journal{
		store:    store,
		attestor: attestor,
		chainID:  1,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Emit implements registry.Emitter. Append errors are retained and exposed
// through Err, since the emitter contract has no error channel.
func (j *Journal) Emit(ev registry.Event) {
	if _, err := j.Append(ev); err != nil {
		j.mu.Lock()
		j.lastErr = err
		j.mu.Unlock()
	}
}

// Err returns the most recent Emit failure, if any.
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}

// Head returns the CID of the newest record, or "" for an empty journal.
func (j *Journal) Head() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.head
}

// Sequence returns the sequence number of the newest record.
func (j *Journal) Sequence() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.seq
}

// Append renders, signs and stores one event record, returning its CID.
func (j *Journal) Append(ev registry.Event) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	meta := map[string]string{
		"Format":    FormatV1,
		"Chain-ID":  strconv.FormatUint(j.chainID, 10),
		"Sequence":  strconv.FormatUint(j.seq+1, 10),
		"Timestamp": j.now().UTC().Format(time.RFC3339),
	}
	if j.head != "" {
		meta["Prev-CID"] = j.head
	}

	event := map[string]string{
		"Type":      string(ev.Type),
		"Recipient": ev.Recipient.Hex(),
	}
	switch ev.Type {
	case registry.EventRegister:
		event["Owner"] = ev.Owner.Hex()
		event["Token-ID"] = strconv.FormatUint(ev.TokenID, 10)
	case registry.EventAssign:
		event["Owner"] = ev.Owner.Hex()
		event["Token-ID"] = strconv.FormatUint(ev.TokenID, 10)
	case registry.EventAuthorize:
		event["Signer"] = ev.Signer.Hex()
		event["Caller"] = ev.Caller.Hex()
		event["Selector"] = ev.Selector.String()
	case registry.EventWithdraw:
		event["Token-ID"] = strconv.FormatUint(ev.TokenID, 10)
		event["Amount"] = strconv.FormatUint(ev.Amount, 10)
	default:
		return "", newError(KindInternal, "FEEREG-AUD-601", "unknown event type")
	}
	if ev.Owner == (common.Address{}) {
		delete(event, "Owner")
	}

	crypto := map[string]string{
		"Signature-Alg": j.attestor.SignatureAlg(),
		"Hash-Alg":      j.attestor.HashAlg(),
		"Operator-Key":  j.attestor.OperatorKey(),
	}

	// The signed scope ends before the CRYPTO header, so rendering without
	// the Signature key yields the exact bytes the signature covers.
	unsigned, err := Render(Document{Meta: meta, Event: event, Crypto: crypto})
	if err != nil {
		return "", err
	}
	signed, err := signedScopeFromCanonical(unsigned)
	if err != nil {
		return "", err
	}
	sig, err := j.attestor.Attest(signed)
	if err != nil {
		return "", wrapError(KindCrypto, "FEEREG-AUD-602", "attest record", err)
	}
	crypto["Signature"] = sig

	canonical, err := Render(Document{Meta: meta, Event: event, Crypto: crypto})
	if err != nil {
		return "", err
	}
	id, err := j.store.Put(canonical)
	if err != nil {
		return "", wrapError(KindInternal, "FEEREG-AUD-603", "store record", err)
	}

	j.seq++
	j.head = id.String()
	return j.head, nil
}
