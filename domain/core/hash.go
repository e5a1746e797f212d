package core

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashReader hashes everything readable from r.
func HashReader(r io.Reader) (Hash, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return Hash(hex.EncodeToString(h.Sum(nil))), nil
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 hex characters, enough for display and ETags.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// ComputeViewHash fingerprints a derived view: the source dataset hash plus
// the filter predicates that produced it. Predicate order does not matter.
func ComputeViewHash(source Hash, predicates map[string]string) Hash {
	keys := make([]string, 0, len(predicates))
	for k := range predicates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Fields are length-prefixed.
	var data strings.Builder
	writeField(&data, string(source))
	for _, key := range keys {
		writeField(&data, key)
		writeField(&data, predicates[key])
	}

	return NewHash([]byte(data.String()))
}

func writeField(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}
