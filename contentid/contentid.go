// Package contentid derives content identifiers for audit journal objects.
//
// All journal objects are addressed by CIDv1 with the "raw" multicodec and a
// sha2-256 multihash, so an identifier commits to the exact canonical bytes.
package contentid

import (
	"errors"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ForBytes returns the CIDv1 (raw + sha2-256) derived from data.
func ForBytes(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// String returns the string form of ForBytes.
//
// multihash.Sum with SHA2_256 and default length cannot fail for any input,
// so the error branch is unreachable in practice and reported as "".
func String(data []byte) string {
	id, err := ForBytes(data)
	if err != nil {
		return ""
	}
	return id.String()
}

// Parse decodes a CID string and rejects the undefined CID.
func Parse(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, errors.New("contentid: undefined cid")
	}
	return id, nil
}
