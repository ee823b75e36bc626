package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
	"testing"
)

func TestComputeCommitmentLayout(t *testing.T) {
	var salt Salt
	salt[SaltSize-1] = 0x02

	got := ComputeCommitment(42, 2, 9, salt)

	// Rebuild the pre-image by hand to pin the wire layout:
	// BE32(room) ‖ BE32(island) ‖ BE32(tile) ‖ salt.
	var preimage [12 + SaltSize]byte
	binary.BigEndian.PutUint32(preimage[0:4], 42)
	binary.BigEndian.PutUint32(preimage[4:8], 2)
	binary.BigEndian.PutUint32(preimage[8:12], 9)
	copy(preimage[12:], salt[:])
	want := Digest(sha256.Sum256(preimage[:]))

	if got != want {
		t.Fatalf("digest = %s, want %s", got, want)
	}
}

func TestComputeCommitmentDeterministic(t *testing.T) {
	var salt Salt
	salt[0] = 0xAB
	first := ComputeCommitment(1, 2, 3, salt)
	second := ComputeCommitment(1, 2, 3, salt)
	if first != second {
		t.Fatal("identical inputs must produce identical digests")
	}
}

func TestComputeCommitmentFieldSensitivity(t *testing.T) {
	var salt Salt
	base := ComputeCommitment(1, 2, 3, salt)

	if ComputeCommitment(2, 2, 3, salt) == base {
		t.Fatal("room id change must alter the digest")
	}
	if ComputeCommitment(1, 3, 3, salt) == base {
		t.Fatal("island id change must alter the digest")
	}
	if ComputeCommitment(1, 2, 4, salt) == base {
		t.Fatal("tile id change must alter the digest")
	}
	var flipped Salt
	flipped[31] = 0x01
	if ComputeCommitment(1, 2, 3, flipped) == base {
		t.Fatal("salt change must alter the digest")
	}

	// Field order matters: swapping island and tile must not collide.
	if ComputeCommitment(1, 3, 2, salt) == ComputeCommitment(1, 2, 3, salt) {
		t.Fatal("swapped island/tile must not produce the same digest")
	}
}

func TestVerifyCommitment(t *testing.T) {
	var salt Salt
	salt[7] = 0x77
	digest := ComputeCommitment(42, 1, 5, salt)

	if !VerifyCommitment(digest, 42, 1, 5, salt) {
		t.Fatal("expected matching pre-image to verify")
	}
	if VerifyCommitment(digest, 42, 1, 6, salt) {
		t.Fatal("expected differing tile to fail verification")
	}
}

func TestDigestHexRoundTrip(t *testing.T) {
	var salt Salt
	digest := ComputeCommitment(9, 0, 0, salt)

	parsed, err := ParseDigest(digest.String())
	if err != nil {
		t.Fatalf("parse digest: %v", err)
	}
	if parsed != digest {
		t.Fatalf("parsed = %s, want %s", parsed, digest)
	}
	if len(digest.String()) != 64 {
		t.Fatalf("hex length = %d, want 64", len(digest.String()))
	}
	if digest.String() != strings.ToLower(digest.String()) {
		t.Fatal("expected lowercase hex")
	}

	if _, err := ParseDigest("zz"); err == nil {
		t.Fatal("expected error for invalid hex")
	}
	if _, err := ParseDigest("abcd"); err == nil {
		t.Fatal("expected error for short digest")
	}
	if _, err := ParseDigest(""); err == nil {
		t.Fatal("expected error for empty digest")
	}
}

func TestSaltHexRoundTrip(t *testing.T) {
	var salt Salt
	salt[0] = 0x01
	salt[31] = 0xFF

	parsed, err := ParseSalt(salt.String())
	if err != nil {
		t.Fatalf("parse salt: %v", err)
	}
	if parsed != salt {
		t.Fatalf("parsed = %s, want %s", parsed, salt)
	}
	if _, err := ParseSalt("00"); err == nil {
		t.Fatal("expected error for short salt")
	}
}
