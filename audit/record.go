// Package audit implements the canonical fee-audit record format and the
// append-only journal built on it.
//
// A record is a small, line-oriented text document with three sections
// (META, EVENT, CRYPTO) whose serialization is fully canonical: one byte
// sequence per logical record. Records are addressed by CIDv1 (raw +
// sha2-256) over the canonical bytes and chained through META Prev-CID, so
// an operator's journal is tamper-evident end to end.
package audit

import (
	"bytes"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"xdao.co/feereg/contentid"
)

// SectionOrder defines the canonical order of record sections.
var SectionOrder = []string{"META", "EVENT", "CRYPTO"}

const (
	Preamble  = "-----BEGIN XDAO FEE AUDIT-----"
	Postamble = "-----END XDAO FEE AUDIT-----"

	// FormatV1 is the value of the META Format key for this version.
	FormatV1 = "xdao-fee-audit/1"
)

// Document is the in-memory form used to produce canonical record bytes.
// Rendered output is always canonical (section order, key order, spacing).
type Document struct {
	Meta   map[string]string
	Event  map[string]string
	Crypto map[string]string
}

// Record is a parsed, canonical audit record.
type Record struct {
	Sections map[string]map[string]string
	Raw      []byte // canonical bytes
	Signed   []byte // bytes covered by the signature (BEGIN through end of EVENT)
}

// Render produces canonical record bytes from a Document.
func Render(doc Document) ([]byte, error) {
	sections := []struct {
		name  string
		pairs map[string]string
	}{
		{name: "META", pairs: doc.Meta},
		{name: "EVENT", pairs: doc.Event},
		{name: "CRYPTO", pairs: doc.Crypto},
	}

	var sb strings.Builder
	sb.WriteString(Preamble)
	sb.WriteString("\n")

	for i, sec := range sections {
		sb.WriteString(sec.name)
		sb.WriteString("\n")

		keys := make([]string, 0, len(sec.pairs))
		for k := range sec.pairs {
			if k == "" {
				return nil, newError(KindRender, "FEEREG-AUD-201", "empty key")
			}
			if !isASCII(k) {
				return nil, newError(KindRender, "FEEREG-AUD-202", "non-ASCII key")
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := sec.pairs[k]
			if v == "" {
				return nil, newError(KindRender, "FEEREG-AUD-203", "empty value")
			}
			if strings.HasPrefix(v, " ") {
				return nil, newError(KindRender, "FEEREG-AUD-204", "value must not start with a space")
			}
			if strings.Contains(v, "\n") || strings.Contains(v, "\r") {
				return nil, newError(KindRender, "FEEREG-AUD-205", "value must not contain newlines")
			}
			if strings.HasSuffix(v, " ") || strings.HasSuffix(v, "\t") {
				return nil, newError(KindRender, "FEEREG-AUD-206", "trailing whitespace forbidden")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			sb.WriteString(v)
			sb.WriteString("\n")
		}

		if i != len(sections)-1 {
			sb.WriteString("\n")
		}
	}

	sb.WriteString(Postamble)
	return []byte(sb.String()), nil
}

// Parse parses a record and enforces the v1 canonical serialization rules.
// Non-canonical inputs are rejected.
func Parse(data []byte) (*Record, error) {
	if !utf8.Valid(data) {
		return nil, newError(KindParse, "FEEREG-AUD-101", "record must be valid UTF-8")
	}
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		return nil, newError(KindParse, "FEEREG-AUD-102", "BOM not allowed")
	}
	if bytes.Contains(data, []byte("\r")) {
		return nil, newError(KindParse, "FEEREG-AUD-103", "CR line endings not allowed")
	}
	if len(data) > 0 && data[len(data)-1] == '\n' {
		return nil, newError(KindParse, "FEEREG-AUD-104", "trailing newline not allowed")
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 || lines[0] != Preamble {
		return nil, newError(KindParse, "FEEREG-AUD-105", "missing or malformed preamble")
	}
	if lines[len(lines)-1] != Postamble {
		return nil, newError(KindParse, "FEEREG-AUD-106", "missing or malformed postamble")
	}

	sections := make(map[string]map[string]string, len(SectionOrder))
	sectionIndex := -1
	var currSection string
	var currKeyOrder []string
	afterSeparator := false

	flush := func() error {
		if currSection == "" {
			return nil
		}
		sorted := append([]string(nil), currKeyOrder...)
		sort.Strings(sorted)
		for i := range sorted {
			if sorted[i] != currKeyOrder[i] {
				return newError(KindCanonical, "FEEREG-AUD-110", "keys not sorted lexicographically")
			}
		}
		currSection = ""
		currKeyOrder = nil
		return nil
	}

	for _, line := range lines[1 : len(lines)-1] {
		if len(line) > 0 {
			last := line[len(line)-1]
			if last == ' ' || last == '\t' {
				return nil, newError(KindCanonical, "FEEREG-AUD-107", "trailing whitespace forbidden")
			}
		}

		if isSectionHeader(line) {
			if currSection != "" {
				return nil, newError(KindCanonical, "FEEREG-AUD-108", "missing blank line between sections")
			}
			sectionIndex++
			if sectionIndex >= len(SectionOrder) || SectionOrder[sectionIndex] != line {
				return nil, newError(KindCanonical, "FEEREG-AUD-109", "sections missing or out of order")
			}
			if sectionIndex > 0 && !afterSeparator {
				return nil, newError(KindCanonical, "FEEREG-AUD-108", "missing blank line between sections")
			}
			if sectionIndex == 0 && afterSeparator {
				return nil, newError(KindCanonical, "FEEREG-AUD-111", "blank line before first section not allowed")
			}
			afterSeparator = false
			currSection = line
			sections[line] = make(map[string]string)
			continue
		}

		if line == "" {
			if currSection == "" {
				return nil, newError(KindCanonical, "FEEREG-AUD-112", "blank line outside section not allowed")
			}
			if currSection == "CRYPTO" {
				return nil, newError(KindCanonical, "FEEREG-AUD-113", "blank line after CRYPTO section not allowed")
			}
			if err := flush(); err != nil {
				return nil, err
			}
			afterSeparator = true
			continue
		}

		if currSection == "" {
			return nil, newError(KindParse, "FEEREG-AUD-114", "content outside section")
		}
		if afterSeparator {
			return nil, newError(KindCanonical, "FEEREG-AUD-115", "expected section header after blank line")
		}
		key, val, ok := strings.Cut(line, ": ")
		if !ok {
			return nil, newError(KindParse, "FEEREG-AUD-116", "invalid key-value formatting")
		}
		if key == "" {
			return nil, newError(KindParse, "FEEREG-AUD-117", "empty key")
		}
		if !isASCII(key) {
			return nil, newError(KindParse, "FEEREG-AUD-118", "non-ASCII key")
		}
		if strings.HasPrefix(val, " ") {
			return nil, newError(KindCanonical, "FEEREG-AUD-119", "value must not start with a space")
		}
		if _, exists := sections[currSection][key]; exists {
			return nil, newError(KindParse, "FEEREG-AUD-120", "duplicate key in section")
		}
		sections[currSection][key] = val
		currKeyOrder = append(currKeyOrder, key)
	}
	if afterSeparator {
		return nil, newError(KindCanonical, "FEEREG-AUD-121", "unexpected blank line before postamble")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	for _, s := range SectionOrder {
		if _, ok := sections[s]; !ok {
			return nil, newError(KindCanonical, "FEEREG-AUD-109", "sections missing or out of order")
		}
	}

	// Re-render and compare so Parse strictly rejects any non-canonical
	// input the line checks above did not catch.
	canonical, err := Render(Document{
		Meta:   sections["META"],
		Event:  sections["EVENT"],
		Crypto: sections["CRYPTO"],
	})
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(data, canonical) {
		return nil, newError(KindCanonical, "FEEREG-AUD-122", "non-canonical record")
	}

	signed, err := signedScopeFromCanonical(canonical)
	if err != nil {
		return nil, err
	}
	return &Record{Sections: sections, Raw: canonical, Signed: signed}, nil
}

// signedScopeFromCanonical returns the signature scope: the BEGIN line
// through the blank line preceding the CRYPTO header, inclusive.
func signedScopeFromCanonical(canonical []byte) ([]byte, error) {
	marker := []byte("\nCRYPTO\n")
	idx := bytes.Index(canonical, marker)
	if idx < 0 {
		return nil, newError(KindInternal, "FEEREG-AUD-123", "cannot determine signature scope")
	}
	return canonical[:idx+1], nil
}

// CID returns the content identifier of the canonical record bytes.
func (r *Record) CID() string {
	return contentid.String(r.Raw)
}

func (r *Record) meta(key string) string {
	return r.Sections["META"][key]
}

func (r *Record) event(key string) string {
	return r.Sections["EVENT"][key]
}

func (r *Record) crypto(key string) string {
	return r.Sections["CRYPTO"][key]
}

// Format returns the META Format value.
func (r *Record) Format() string { return r.meta("Format") }

// ChainID returns the META Chain-ID value.
func (r *Record) ChainID() string { return r.meta("Chain-ID") }

// EventType returns the EVENT Type value.
func (r *Record) EventType() string { return r.event("Type") }

// Recipient returns the EVENT Recipient value.
func (r *Record) Recipient() string { return r.event("Recipient") }

// PrevCID returns the META Prev-CID link, or "" for a genesis record.
func (r *Record) PrevCID() string { return r.meta("Prev-CID") }

// Sequence returns the META Sequence number. Sequences start at 1.
func (r *Record) Sequence() (uint64, error) {
	raw := r.meta("Sequence")
	if raw == "" {
		return 0, newError(KindParse, "FEEREG-AUD-124", "missing META Sequence")
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, wrapError(KindParse, "FEEREG-AUD-125", "invalid META Sequence", err)
	}
	if n == 0 {
		return 0, newError(KindParse, "FEEREG-AUD-125", "invalid META Sequence")
	}
	return n, nil
}

func isSectionHeader(line string) bool {
	for _, s := range SectionOrder {
		if line == s {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}
