// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package system

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/vaultvm/sdk/program"
)

var (
	ErrAccountAlreadyInUse        = fmt.Errorf("an account with the same address already exists: %w", program.ErrInvalidArgument)
	ErrResultWithNegativeLamports = fmt.Errorf("account does not have enough lamports to perform the operation: %w", program.ErrInsufficientFunds)
	ErrInvalidAccountDataLength   = fmt.Errorf("cannot allocate account data of this length: %w", program.ErrInvalidArgument)
	ErrInsufficientFundsForRent   = fmt.Errorf("account would not hold its rent-exempt reserve: %w", program.ErrInsufficientFunds)

	_ program.Entrypoint = Process
)

// Process is the system program entrypoint.
func Process(rt program.Runtime, _ ids.ID, accounts []*program.AccountInfo, data []byte) error {
	kind, args, err := parseInstruction(data)
	if err != nil {
		return err
	}
	rt.Log("Instruction: " + kind.String())

	switch args := args.(type) {
	case *CreateAccountArgs:
		return createAccount(rt.Rent(), accounts, args)
	case *TransferArgs:
		return transfer(accounts, args)
	default:
		return program.ErrInvalidInstructionData
	}
}

// createAccount funds a new account. It must start out rent exempt.
func createAccount(rent program.Rent, accounts []*program.AccountInfo, args *CreateAccountArgs) error {
	it := program.NewAccountIterator(accounts)
	from, err := it.Next()
	if err != nil {
		return err
	}
	to, err := it.Next()
	if err != nil {
		return err
	}

	if to.Lamports > 0 || !to.DataIsEmpty() || to.Owner != ID {
		return fmt.Errorf("create account %s: %w", program.AddressString(to.Key), ErrAccountAlreadyInUse)
	}
	if args.Space > MaxPermittedDataLength {
		return ErrInvalidAccountDataLength
	}
	if !rent.IsExempt(args.Lamports, args.Space) {
		return fmt.Errorf("create account %s with %d lamports: %w", program.AddressString(to.Key), args.Lamports, ErrInsufficientFundsForRent)
	}
	if !from.IsSigner || !to.IsSigner {
		return program.ErrMissingRequiredSignature
	}

	if err := move(from, to, args.Lamports); err != nil {
		return err
	}
	to.Data = make([]byte, args.Space)
	to.Owner = args.Owner
	return nil
}

func transfer(accounts []*program.AccountInfo, args *TransferArgs) error {
	it := program.NewAccountIterator(accounts)
	from, err := it.Next()
	if err != nil {
		return err
	}
	to, err := it.Next()
	if err != nil {
		return err
	}

	if !from.IsSigner {
		return program.ErrMissingRequiredSignature
	}
	if !from.DataIsEmpty() {
		return fmt.Errorf("transfer from an account carrying data: %w", program.ErrInvalidArgument)
	}
	return move(from, to, args.Lamports)
}

// move debits [from] and credits [to], leaving both untouched on failure.
func move(from, to *program.AccountInfo, lamports uint64) error {
	if from.Lamports < lamports {
		return fmt.Errorf("%s has %d, needs %d: %w",
			program.AddressString(from.Key), from.Lamports, lamports, ErrResultWithNegativeLamports)
	}
	if from == to {
		return nil
	}
	credited, err := safemath.Add64(to.Lamports, lamports)
	if err != nil {
		return program.ErrArithmeticOverflow
	}
	from.Lamports -= lamports
	to.Lamports = credited
	return nil
}
