package main

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprint derives the cache key for an analysis input. It hashes the
// content together with its identifier (usually a filename) and the operation
// kind, so the same patch analyzed by two different operations never collides.
//
// The SHA-256 digest is truncated to fingerprintHexLen hex characters
// (64 bits). At cache scale the birthday-bound collision probability is
// astronomically small, and the short keys keep the entry map compact.
func fingerprint(content []byte, identifier, operation string) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{'|'})
	h.Write([]byte(identifier))
	h.Write([]byte{'|'})
	h.Write([]byte(operation))
	return hex.EncodeToString(h.Sum(nil))[:fingerprintHexLen]
}
