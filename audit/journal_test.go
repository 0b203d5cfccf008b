package audit

import (
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"xdao.co/feereg/contentid"
	"xdao.co/feereg/registry"
	"xdao.co/feereg/storage"
)

var (
	testRecipient = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testOwner     = common.HexToAddress("0x0000000000000000000000000000000000000011")
	testSigner    = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	testCaller    = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

func newTestJournal(t *testing.T) (*Journal, *storage.MemoryStore) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	attestor, err := NewEd25519Attestor(priv)
	if err != nil {
		t.Fatalf("NewEd25519Attestor: %v", err)
	}
	store := storage.NewMemoryStore()
	j := NewJournal(store, attestor,
		WithJournalChainID(1),
		WithJournalClock(func() time.Time { return time.Unix(1_700_000_000, 0) }),
	)
	return j, store
}

func registerEvent() registry.Event {
	return registry.Event{
		Type:      registry.EventRegister,
		Recipient: testRecipient,
		Owner:     testOwner,
		TokenID:   1,
	}
}

func authorizeEvent() registry.Event {
	return registry.Event{
		Type:      registry.EventAuthorize,
		Recipient: testRecipient,
		Signer:    testSigner,
		Caller:    testCaller,
		Selector:  registry.SelectorOf("withdraw(uint256)"),
	}
}

func TestJournalAppendProducesVerifiableRecords(t *testing.T) {
	j, store := newTestJournal(t)

	cid1, err := j.Append(registerEvent())
	if err != nil {
		t.Fatalf("Append(1): %v", err)
	}
	cid2, err := j.Append(authorizeEvent())
	if err != nil {
		t.Fatalf("Append(2): %v", err)
	}
	if j.Head() != cid2 || j.Sequence() != 2 {
		t.Fatalf("Head = %s Sequence = %d", j.Head(), j.Sequence())
	}

	for i, c := range []string{cid1, cid2} {
		id, err := contentid.Parse(c)
		if err != nil {
			t.Fatalf("Parse cid %d: %v", i+1, err)
		}
		raw, err := store.Get(id)
		if err != nil {
			t.Fatalf("Get record %d: %v", i+1, err)
		}
		rec, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse record %d: %v", i+1, err)
		}
		if err := rec.Verify(); err != nil {
			t.Fatalf("Verify record %d: %v", i+1, err)
		}
	}
}

func TestJournalChainsRecords(t *testing.T) {
	j, store := newTestJournal(t)

	cid1, _ := j.Append(registerEvent())
	cid2, _ := j.Append(authorizeEvent())

	id2, _ := contentid.Parse(cid2)
	raw2, err := store.Get(id2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	rec2, err := Parse(raw2)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec2.PrevCID() != cid1 {
		t.Fatalf("Prev-CID = %q, want %q", rec2.PrevCID(), cid1)
	}
	seq, err := rec2.Sequence()
	if err != nil || seq != 2 {
		t.Fatalf("Sequence = (%d, %v)", seq, err)
	}
}

func TestJournalEmitImplementsEmitter(t *testing.T) {
	j, _ := newTestJournal(t)
	var em registry.Emitter = j
	em.Emit(registerEvent())
	if err := j.Err(); err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	if j.Sequence() != 1 {
		t.Fatalf("Sequence = %d after Emit", j.Sequence())
	}
}

func TestVerifyRejectsMutatedScope(t *testing.T) {
	j, store := newTestJournal(t)
	c, _ := j.Append(registerEvent())
	id, _ := contentid.Parse(c)
	raw, _ := store.Get(id)

	// Change an event field after signing. Parsing still succeeds (the
	// mutated bytes are canonical) but the signature no longer covers them.
	mutated := strings.Replace(string(raw), "Token-ID: 1", "Token-ID: 2", 1)
	if mutated == string(raw) {
		t.Fatalf("mutation did not apply")
	}
	rec, err := Parse([]byte(mutated))
	if err != nil {
		t.Fatalf("Parse mutated: %v", err)
	}
	if err := rec.Verify(); err == nil {
		t.Fatalf("Verify accepted a mutated record")
	} else if RuleID(err) != "FEEREG-AUD-401" {
		t.Fatalf("Verify error = %v, want signature invalid", err)
	}
}

func TestVerifyCannotBeBypassedByFieldMutation(t *testing.T) {
	j, store := newTestJournal(t)
	c, _ := j.Append(registerEvent())
	id, _ := contentid.Parse(c)
	raw, _ := store.Get(id)
	rec, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	// Mutating the in-memory sections must not fool Verify: it re-parses
	// the raw bytes.
	rec.Sections["EVENT"]["Token-ID"] = "999"
	if err := rec.Verify(); err != nil {
		t.Fatalf("Verify after in-memory mutation: %v", err)
	}
}

func TestVerifyChain(t *testing.T) {
	j, store := newTestJournal(t)
	_, _ = j.Append(registerEvent())
	_, _ = j.Append(authorizeEvent())
	cid3, _ := j.Append(authorizeEvent())

	chain, err := VerifyChain(store, cid3)
	if err != nil {
		t.Fatalf("VerifyChain: %v", err)
	}
	if len(chain) != 3 {
		t.Fatalf("chain length = %d, want 3", len(chain))
	}
	// Genesis first.
	seq, _ := chain[0].Sequence()
	if seq != 1 {
		t.Fatalf("first record sequence = %d, want 1", seq)
	}
	if chain[0].EventType() != "Register" {
		t.Fatalf("genesis event = %q", chain[0].EventType())
	}
}

func TestVerifyChainDetectsMissingRecord(t *testing.T) {
	j, store := newTestJournal(t)
	_, _ = j.Append(registerEvent())
	cid2, _ := j.Append(authorizeEvent())

	// A store holding only the head record: the genesis lookup must fail.
	partial := storage.NewMemoryStore()
	id2, _ := contentid.Parse(cid2)
	raw2, _ := store.Get(id2)
	if _, err := partial.Put(raw2); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, err := VerifyChain(partial, cid2); err == nil {
		t.Fatalf("VerifyChain accepted a broken chain")
	}
}

func TestValidateSuccession(t *testing.T) {
	j, store := newTestJournal(t)
	cid1, _ := j.Append(registerEvent())
	cid2, _ := j.Append(authorizeEvent())

	get := func(c string) *Record {
		id, _ := contentid.Parse(c)
		raw, _ := store.Get(id)
		rec, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse %s: %v", c, err)
		}
		return rec
	}
	rec1, rec2 := get(cid1), get(cid2)

	if err := ValidateSuccession(rec2, rec1); err != nil {
		t.Fatalf("ValidateSuccession: %v", err)
	}

	t.Run("SelfSuccession", func(t *testing.T) {
		if err := ValidateSuccession(rec1, rec1); err == nil {
			t.Fatalf("record accepted as its own successor")
		}
	})
	t.Run("ReversedOrder", func(t *testing.T) {
		if err := ValidateSuccession(rec1, rec2); err == nil {
			t.Fatalf("genesis accepted as successor of its child")
		}
	})
	t.Run("WrongPrev", func(t *testing.T) {
		// A third record whose Prev-CID names rec2, validated against rec1.
		cid3, _ := j.Append(authorizeEvent())
		rec3 := get(cid3)
		if err := ValidateSuccession(rec3, rec1); err == nil {
			t.Fatalf("succession with wrong Prev-CID accepted")
		}
	})
	t.Run("DifferentOperator", func(t *testing.T) {
		other, otherStore := newTestJournal(t)
		oc1, _ := other.Append(registerEvent())
		oid, _ := contentid.Parse(oc1)
		raw, _ := otherStore.Get(oid)
		otherRec, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if err := ValidateSuccession(rec2, otherRec); err == nil {
			t.Fatalf("cross-operator succession accepted")
		}
	})
}
