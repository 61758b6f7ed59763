// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package program defines the contract between the host runtime and the
// programs it executes: the account views a program receives, the
// instructions it can issue to other programs, and the runtime it calls back
// into.
package program

import (
	"github.com/ava-labs/avalanchego/ids"
)

// AccountMeta references an account from an instruction.
type AccountMeta struct {
	Key        ids.ID `serialize:"true" json:"key"`
	IsSigner   bool   `serialize:"true" json:"isSigner"`
	IsWritable bool   `serialize:"true" json:"isWritable"`
}

// NewAccountMeta returns a writable account reference.
func NewAccountMeta(key ids.ID, isSigner bool) AccountMeta {
	return AccountMeta{Key: key, IsSigner: isSigner, IsWritable: true}
}

// NewReadonlyAccountMeta returns a read-only account reference.
func NewReadonlyAccountMeta(key ids.ID, isSigner bool) AccountMeta {
	return AccountMeta{Key: key, IsSigner: isSigner}
}

// Instruction is a single call into a program.
// The order of [Accounts] is part of the callee's wire contract.
type Instruction struct {
	ProgramID ids.ID        `serialize:"true" json:"programID"`
	Accounts  []AccountMeta `serialize:"true" json:"accounts"`
	Data      []byte        `serialize:"true" json:"data"`
}

// AccountInfo is the mutable view of an account handed to a program.
//
// A program may only change fields of accounts the host marked writable, and
// only debit, re-assign or rewrite accounts it owns. The host verifies this
// after the program returns.
type AccountInfo struct {
	Key        ids.ID
	IsSigner   bool
	IsWritable bool
	Lamports   uint64
	Data       []byte
	Owner      ids.ID
	Executable bool
}

// DataIsEmpty reports whether the account carries no data.
func (a *AccountInfo) DataIsEmpty() bool { return len(a.Data) == 0 }

// AccountIterator hands out positional accounts in order.
type AccountIterator struct {
	accounts []*AccountInfo
	next     int
}

// NewAccountIterator returns an iterator over [accounts].
func NewAccountIterator(accounts []*AccountInfo) *AccountIterator {
	return &AccountIterator{accounts: accounts}
}

// Next returns the next account, or ErrNotEnoughAccountKeys once the list is
// exhausted.
func (it *AccountIterator) Next() (*AccountInfo, error) {
	if it.next >= len(it.accounts) {
		return nil, ErrNotEnoughAccountKeys
	}
	account := it.accounts[it.next]
	it.next++
	return account, nil
}

// Runtime is the host interface available to an executing program.
type Runtime interface {
	// Invoke calls another program. Signer privileges are inherited from the
	// caller's account views.
	Invoke(ix Instruction, accounts []*AccountInfo) error

	// InvokeSigned calls another program and additionally grants signer
	// privileges to every address derived from [signerSeeds] with the
	// calling program's id.
	InvokeSigned(ix Instruction, accounts []*AccountInfo, signerSeeds [][][]byte) error

	// Rent returns the rent parameters in effect.
	Rent() Rent

	// Log records a program log line. [ctx] is key/value pairs.
	Log(msg string, ctx ...interface{})
}

// Entrypoint is the single function through which the host calls a program.
type Entrypoint func(rt Runtime, programID ids.ID, accounts []*AccountInfo, data []byte) error
