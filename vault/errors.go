// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"github.com/ava-labs/vaultvm/sdk/program"
)

var (
	ErrMalformedRequest = &Error{msg: "malformed request", kind: program.ErrInvalidInstructionData}
	ErrInvalidAmount    = &Error{msg: "deposit amount must be positive", kind: program.ErrInvalidInstructionData}
	ErrAddressMismatch  = &Error{msg: "vault address does not match the derived address", kind: program.ErrInvalidArgument}
	// ErrInsufficientFunds is returned when a withdrawal exceeds the vault
	// balance or a deposit exceeds the depositor's balance. For deposits it
	// wraps the system program's error.
	ErrInsufficientFunds = &Error{msg: "insufficient funds", kind: program.ErrInsufficientFunds}
	ErrWrongOwner        = &Error{msg: "vault is not owned by the program", kind: program.ErrIncorrectProgramID}
)

// Error is a vault failure. It unwraps to the generic program error the host
// reports for it.
type Error struct {
	msg  string
	kind error
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// fundsError reports [cause] as ErrInsufficientFunds.
type fundsError struct{ cause error }

func (e *fundsError) Error() string { return ErrInsufficientFunds.msg + ": " + e.cause.Error() }

func (e *fundsError) Is(target error) bool { return target == ErrInsufficientFunds }

func (e *fundsError) Unwrap() error { return e.cause }
