// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import "errors"

// Generic program errors. Programs may return these directly or wrap them in
// their own error types so callers can match either.
var (
	ErrInvalidArgument          = errors.New("invalid program argument")
	ErrInvalidInstructionData   = errors.New("invalid instruction data")
	ErrInvalidAccountData       = errors.New("invalid account data for instruction")
	ErrInsufficientFunds        = errors.New("insufficient funds for instruction")
	ErrIncorrectProgramID       = errors.New("incorrect program id for instruction")
	ErrMissingRequiredSignature = errors.New("missing required signature for instruction")
	ErrNotEnoughAccountKeys     = errors.New("not enough account keys given to the instruction")
	ErrArithmeticOverflow       = errors.New("arithmetic overflowed")

	ErrMaxSeedLengthExceeded = errors.New("length of the seed is too long for address generation")
	ErrInvalidSeeds          = errors.New("provided seeds do not result in a valid address")
	ErrNoViableBump          = errors.New("unable to find a viable program address bump seed")
)
