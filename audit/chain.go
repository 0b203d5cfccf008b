package audit

import (
	"fmt"

	"xdao.co/feereg/contentid"
	"xdao.co/feereg/storage"
)

// ValidateSuccession enforces journal chaining semantics.
//
// Record B succeeds record A when:
//   - B's META includes Prev-CID equal to CID(A)
//   - B's Sequence is exactly A's Sequence + 1
//   - B and A carry the same Chain-ID
//   - B and A are attested by the same Operator-Key
func ValidateSuccession(newRecord, oldRecord *Record) error {
	if newRecord == nil || oldRecord == nil {
		return newError(KindChain, "FEEREG-AUD-500", "nil record")
	}
	oldCID := oldRecord.CID()
	if newRecord.CID() == oldCID {
		return newError(KindChain, "FEEREG-AUD-501", "succession invalid: new record bytes identical to old")
	}

	prev := newRecord.PrevCID()
	if prev == "" {
		return newError(KindChain, "FEEREG-AUD-502", "succession invalid: new record does not declare Prev-CID")
	}
	if prev != oldCID {
		return newError(KindChain, "FEEREG-AUD-503",
			fmt.Sprintf("succession invalid: Prev-CID=%q does not match old CID=%q", prev, oldCID))
	}

	oldSeq, err := oldRecord.Sequence()
	if err != nil {
		return err
	}
	newSeq, err := newRecord.Sequence()
	if err != nil {
		return err
	}
	if newSeq != oldSeq+1 {
		return newError(KindChain, "FEEREG-AUD-504",
			fmt.Sprintf("succession invalid: sequence old=%d new=%d", oldSeq, newSeq))
	}

	if newRecord.ChainID() != oldRecord.ChainID() {
		return newError(KindChain, "FEEREG-AUD-505",
			fmt.Sprintf("succession invalid: chain-id mismatch old=%q new=%q", oldRecord.ChainID(), newRecord.ChainID()))
	}
	if newRecord.OperatorKey() != oldRecord.OperatorKey() {
		return newError(KindChain, "FEEREG-AUD-506", "succession invalid: operator key mismatch")
	}
	return nil
}

// VerifyChain walks a journal backwards from head to its genesis record,
// verifying each record's signature and each link's succession rules. It
// returns the records in chain order, genesis first.
func VerifyChain(store storage.Store, headCID string) ([]*Record, error) {
	var chain []*Record
	seen := make(map[string]bool)
	next := headCID
	var succ *Record

	for next != "" {
		if seen[next] {
			return nil, newError(KindChain, "FEEREG-AUD-507", "succession invalid: cycle in Prev-CID links")
		}
		seen[next] = true

		id, err := contentid.Parse(next)
		if err != nil {
			return nil, wrapError(KindChain, "FEEREG-AUD-508", "invalid record cid", err)
		}
		raw, err := store.Get(id)
		if err != nil {
			return nil, wrapError(KindChain, "FEEREG-AUD-509", fmt.Sprintf("fetch record %s", next), err)
		}
		rec, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		if rec.CID() != next {
			return nil, newError(KindChain, "FEEREG-AUD-510", "record bytes do not match cid")
		}
		if err := rec.Verify(); err != nil {
			return nil, err
		}
		if succ != nil {
			if err := ValidateSuccession(succ, rec); err != nil {
				return nil, err
			}
		}

		chain = append(chain, rec)
		succ = rec
		next = rec.PrevCID()
	}

	if len(chain) > 0 {
		genesis := chain[len(chain)-1]
		seq, err := genesis.Sequence()
		if err != nil {
			return nil, err
		}
		if seq != 1 {
			return nil, newError(KindChain, "FEEREG-AUD-511",
				fmt.Sprintf("succession invalid: genesis sequence is %d, want 1", seq))
		}
	}

	// Reverse into chain order, genesis first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
