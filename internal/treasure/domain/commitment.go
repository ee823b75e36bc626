package domain

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// SaltSize is the byte length of a burial salt.
	SaltSize = 32
	// DigestSize is the byte length of a commitment digest.
	DigestSize = sha256.Size
)

// Salt is the secret random value mixed into a commitment.
type Salt [SaltSize]byte

// Digest is a commitment: a SHA-256 hash binding a player to a secret
// (island, tile) location without revealing it.
type Digest [DigestSize]byte

// ComputeCommitment hashes the big-endian 4-byte encodings of room, island
// and tile, followed by the salt, in that fixed order:
//
//	SHA-256(BE32(roomID) ‖ BE32(islandID) ‖ BE32(tileID) ‖ salt)
//
// Both sides of the protocol must produce byte-identical digests, so the
// field order and widths here are part of the wire contract.
func ComputeCommitment(roomID, islandID, tileID uint32, salt Salt) Digest {
	var buf [12 + SaltSize]byte
	binary.BigEndian.PutUint32(buf[0:4], roomID)
	binary.BigEndian.PutUint32(buf[4:8], islandID)
	binary.BigEndian.PutUint32(buf[8:12], tileID)
	copy(buf[12:], salt[:])
	return sha256.Sum256(buf[:])
}

// VerifyCommitment reports whether the revealed pre-image reproduces the
// stored digest. Comparison is constant-time.
func VerifyCommitment(stored Digest, roomID, islandID, tileID uint32, salt Salt) bool {
	computed := ComputeCommitment(roomID, islandID, tileID, salt)
	return subtle.ConstantTimeCompare(stored[:], computed[:]) == 1
}

// String returns the lowercase hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest decodes a 64-character hex digest.
func ParseDigest(raw string) (Digest, error) {
	var d Digest
	if err := decodeHex(d[:], raw, "digest"); err != nil {
		return Digest{}, err
	}
	return d, nil
}

// String returns the lowercase hex encoding of the salt.
func (s Salt) String() string {
	return hex.EncodeToString(s[:])
}

// ParseSalt decodes a 64-character hex salt.
func ParseSalt(raw string) (Salt, error) {
	var s Salt
	if err := decodeHex(s[:], raw, "salt"); err != nil {
		return Salt{}, err
	}
	return s, nil
}

func decodeHex(dst []byte, raw, what string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%s is required", what)
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return fmt.Errorf("decode %s: %w", what, err)
	}
	if len(decoded) != len(dst) {
		return fmt.Errorf("%s must be %d bytes, got %d", what, len(dst), len(decoded))
	}
	copy(dst, decoded)
	return nil
}
