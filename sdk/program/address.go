// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

const (
	// MaxSeeds is the maximum number of seeds for a derived address.
	MaxSeeds = 16
	// MaxSeedLen is the maximum length of a single seed.
	MaxSeedLen = 32
)

var pdaMarker = []byte("ProgramDerivedAddress")

// CreateProgramAddress derives an address from [seeds] and [programID].
//
// Derived addresses must lie off the ed25519 curve so that no private key
// can sign for them; ErrInvalidSeeds is returned otherwise.
func CreateProgramAddress(seeds [][]byte, programID ids.ID) (ids.ID, error) {
	if len(seeds) > MaxSeeds {
		return ids.Empty, ErrMaxSeedLengthExceeded
	}
	size := len(programID) + len(pdaMarker)
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return ids.Empty, ErrMaxSeedLengthExceeded
		}
		size += len(seed)
	}

	buf := make([]byte, 0, size)
	for _, seed := range seeds {
		buf = append(buf, seed...)
	}
	buf = append(buf, programID[:]...)
	buf = append(buf, pdaMarker...)

	addr := ids.ID(hashing.ComputeHash256Array(buf))
	if IsOnCurve(addr[:]) {
		return ids.Empty, ErrInvalidSeeds
	}
	return addr, nil
}

// FindProgramAddress searches for the canonical bump seed for [seeds].
// Bumps are tried from 255 downwards; the first one producing an off-curve
// address is returned together with that address.
func FindProgramAddress(seeds [][]byte, programID ids.ID) (ids.ID, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return ids.Empty, 0, ErrMaxSeedLengthExceeded
	}
	bumpSeed := []byte{0}
	withBump := append(append(make([][]byte, 0, len(seeds)+1), seeds...), bumpSeed)
	for bump := 255; bump >= 0; bump-- {
		bumpSeed[0] = uint8(bump)
		addr, err := CreateProgramAddress(withBump, programID)
		switch err {
		case nil:
			return addr, uint8(bump), nil
		case ErrInvalidSeeds:
		default:
			return ids.Empty, 0, err
		}
	}
	return ids.Empty, 0, ErrNoViableBump
}

// IsOnCurve reports whether [b] is the compressed encoding of an ed25519
// point.
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// AddressString returns the base58 text form of [addr].
func AddressString(addr ids.ID) string {
	return base58.Encode(addr[:])
}

// AddressFromString parses a base58 encoded 32 byte address.
func AddressFromString(s string) (ids.ID, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return ids.Empty, fmt.Errorf("couldn't decode address %q: %w", s, err)
	}
	return ids.ToID(b)
}
