// Package pathhash implements the content-committing identifiers used for every
// path and name in the archive index.
//
// A Hash stores the CRC-32 (IEEE) of the lowercased string in its low 32 bits
// and the string's byte length in its high 32 bits. Because the length is
// carried alongside the checksum, two hashes can be concatenated without the
// strings that produced them: Concat continues the checksum over a literal
// suffix, and ConcatHash combines two checksums directly. All path
// construction in this module goes through these operations instead of string
// formatting and rehashing.
package pathhash

import (
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"
)

// Hash identifies a path or name string by content.
type Hash uint64

// Empty is the hash of the empty string. Joining onto Empty yields the child
// unchanged, which makes it the root of relative paths.
const Empty Hash = 0

const separator = "/"

// New hashes s under the index canonicalization (ASCII lowercase).
func New(s string) Hash {
	s = canonical(s)
	return pack(crc32.ChecksumIEEE([]byte(s)), uint32(len(s)))
}

func pack(crc, length uint32) Hash {
	return Hash(uint64(length)<<32 | uint64(crc))
}

func canonical(s string) string {
	return Lower(s)
}

// Lower folds ASCII 'A'..'Z' to lowercase. Every other byte, including
// non-ASCII and invalid UTF-8, is kept as is.
func Lower(s string) string {
	i := 0
	for i < len(s) && (s[i] < 'A' || s[i] > 'Z') {
		i++
	}
	if i == len(s) {
		return s
	}
	b := []byte(s)
	for ; i < len(b); i++ {
		if c := b[i]; 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

// CRC returns the checksum half of the hash.
func (h Hash) CRC() uint32 { return uint32(h) }

// Len returns the byte length of the committed string.
func (h Hash) Len() uint32 { return uint32(h >> 32) }

// IsEmpty reports whether h commits to the empty string.
func (h Hash) IsEmpty() bool { return h == Empty }

// Concat returns the hash of the committed string followed by literal.
func (h Hash) Concat(literal string) Hash {
	literal = canonical(literal)
	return pack(crc32.Update(h.CRC(), crc32.IEEETable, []byte(literal)), h.Len()+uint32(len(literal)))
}

// ConcatHash returns the hash of the string committed by h followed by the
// string committed by o.
func (h Hash) ConcatHash(o Hash) Hash {
	return pack(combine(h.CRC(), o.CRC(), int64(o.Len())), h.Len()+o.Len())
}

// JoinPath appends "/" and literal. Joining onto Empty yields New(literal).
func (h Hash) JoinPath(literal string) Hash {
	if h.IsEmpty() {
		return New(literal)
	}
	return h.Concat(separator).Concat(literal)
}

// Join appends "/" and the string committed by o.
func (h Hash) Join(o Hash) Hash {
	if h.IsEmpty() {
		return o
	}
	return h.Concat(separator).ConcatHash(o)
}

func (h Hash) String() string {
	return fmt.Sprintf("%#x", uint64(h))
}

// Parse reads a hash in the form produced by String.
func Parse(s string) (Hash, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 64)
	if err != nil {
		return Empty, fmt.Errorf("parse path hash %q: %w", s, err)
	}
	return Hash(v), nil
}

// MarshalText encodes the hash as hex so it can be used as a JSON or YAML map key.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*h = v
	return nil
}
