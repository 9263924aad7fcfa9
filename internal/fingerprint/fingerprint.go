// Package fingerprint computes content identities for captured clipboard data.
//
// A fingerprint is the hex encoding of the 128-bit XXH3 digest of the
// normalized content bytes. It is stable across runs and platforms, and is
// used both as the dedup key and as the primary key of a stored item.
package fingerprint

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/xxh3"
)

// Bytes returns the fingerprint of b.
func Bytes(b []byte) string {
	sum := xxh3.Hash128(b).Bytes()
	return hex.EncodeToString(sum[:])
}

// String returns the fingerprint of s.
func String(s string) string {
	sum := xxh3.HashString128(s).Bytes()
	return hex.EncodeToString(sum[:])
}

// Rich fingerprints a rich-text triple. Absent parts hash as empty.
func Rich(html, rtf *string, plain string) string {
	h := xxh3.New()
	if html != nil {
		_, _ = h.WriteString(*html)
	}
	if rtf != nil {
		_, _ = h.WriteString(*rtf)
	}
	_, _ = h.WriteString(plain)
	sum := h.Sum128().Bytes()
	return hex.EncodeToString(sum[:])
}

// Paths fingerprints an ordered file list.
func Paths(paths []string) string {
	return String(strings.Join(paths, "\n"))
}
