// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vault implements the vault program: every user owns one account
// derived from their address, which they can create, fund and drain.
package vault

import (
	"errors"

	"github.com/ava-labs/avalanchego/ids"
	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/vaultvm/sdk/program"
	"github.com/ava-labs/vaultvm/sdk/system"
)

var _ program.Entrypoint = Process

// Process is the vault program entrypoint.
func Process(rt program.Runtime, programID ids.ID, accounts []*program.AccountInfo, data []byte) error {
	ix, err := ParseInstruction(data)
	if err != nil {
		return err
	}

	switch ix.Kind {
	case KindInitializeAccount:
		rt.Log("Instruction: InitializeAccount")
		return initializeAccount(rt, programID, accounts)
	case KindDeposit:
		return deposit(rt, programID, accounts, ix.Amount)
	case KindWithdraw:
		rt.Log("Instruction: Withdraw", "amount", ix.Amount)
		return withdraw(programID, accounts, ix.Amount)
	default:
		return ErrMalformedRequest
	}
}

// initializeAccount expects [user, vault, system program].
func initializeAccount(rt program.Runtime, programID ids.ID, accounts []*program.AccountInfo) error {
	it := program.NewAccountIterator(accounts)
	user, err := it.Next()
	if err != nil {
		return err
	}
	vault, err := it.Next()
	if err != nil {
		return err
	}
	systemProgram, err := it.Next()
	if err != nil {
		return err
	}

	reserve := rt.Rent().MinimumBalance(0)

	addr, bump, err := DeriveAddress(user.Key, programID)
	if err != nil {
		return err
	}
	if addr != vault.Key {
		return ErrAddressMismatch
	}

	return rt.InvokeSigned(
		system.CreateAccount(user.Key, vault.Key, reserve, 0, programID),
		[]*program.AccountInfo{user, vault, systemProgram},
		[][][]byte{signerSeeds(user.Key, bump)},
	)
}

// deposit expects [depositor, vault, system program]. A zero amount is
// rejected before any account is read.
func deposit(rt program.Runtime, programID ids.ID, accounts []*program.AccountInfo, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	rt.Log("Instruction: Deposit", "amount", amount)

	it := program.NewAccountIterator(accounts)
	depositor, err := it.Next()
	if err != nil {
		return err
	}
	vault, err := it.Next()
	if err != nil {
		return err
	}
	systemProgram, err := it.Next()
	if err != nil {
		return err
	}

	addr, _, err := DeriveAddress(depositor.Key, programID)
	if err != nil {
		return err
	}
	if addr != vault.Key {
		return ErrAddressMismatch
	}

	err = rt.Invoke(
		system.Transfer(depositor.Key, vault.Key, amount),
		[]*program.AccountInfo{depositor, vault, systemProgram},
	)
	if errors.Is(err, system.ErrResultWithNegativeLamports) {
		return &fundsError{cause: err}
	}
	return err
}

// withdraw expects [withdrawer, vault]. The balance and owner checks run
// before the address check, which fixes the error reported when several of
// them fail at once. The withdrawer is not required to sign.
func withdraw(programID ids.ID, accounts []*program.AccountInfo, amount uint64) error {
	it := program.NewAccountIterator(accounts)
	withdrawer, err := it.Next()
	if err != nil {
		return err
	}
	vault, err := it.Next()
	if err != nil {
		return err
	}

	if amount > vault.Lamports {
		return ErrInsufficientFunds
	}
	if vault.Owner != programID {
		return ErrWrongOwner
	}

	addr, _, err := DeriveAddress(withdrawer.Key, programID)
	if err != nil {
		return err
	}
	if addr != vault.Key {
		return ErrAddressMismatch
	}

	credited, err := safemath.Add64(withdrawer.Lamports, amount)
	if err != nil {
		return program.ErrArithmeticOverflow
	}
	vault.Lamports -= amount
	withdrawer.Lamports = credited
	return nil
}
