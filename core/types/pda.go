package types

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

const (
	MaxSeeds   = 16
	MaxSeedLen = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrInvalidSeeds          = errors.New("provided seeds do not result in a valid address")
	ErrNoViableBump          = errors.New("unable to find a viable program address bump seed")
)

// CreateProgramAddress derives an account key from seeds and the owning
// program. Derived keys are never valid ed25519 points, so no private key can
// sign for them; only the owning program can, through Invoke signer seeds.
func CreateProgramAddress(seeds [][]byte, programID Pubkey) (Pubkey, error) {
	if len(seeds) > MaxSeeds {
		return Pubkey{}, fmt.Errorf("%w: %d seeds", ErrMaxSeedLengthExceeded, len(seeds))
	}
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return Pubkey{}, fmt.Errorf("%w: seed of %d bytes", ErrMaxSeedLengthExceeded, len(seed))
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))
	hash := h.Sum(nil)

	if IsOnCurve(hash) {
		return Pubkey{}, ErrInvalidSeeds
	}
	return BytesToPubkey(hash), nil
}

// FindProgramAddress searches bumps from 255 downwards and returns the first
// off-curve address together with the bump that produced it.
func FindProgramAddress(seeds [][]byte, programID Pubkey) (Pubkey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, programID)
		switch {
		case err == nil:
			return addr, uint8(bump), nil
		case errors.Is(err, ErrInvalidSeeds):
			continue
		default:
			return Pubkey{}, 0, err
		}
	}
	return Pubkey{}, 0, ErrNoViableBump
}

// IsOnCurve reports whether b decodes to a point on the ed25519 curve.
func IsOnCurve(b []byte) bool {
	if len(b) != PubkeyLength {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
