// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/vaultvm/sdk/program"
	"github.com/ava-labs/vaultvm/vault"
)

var errNoSuchReceipt = errors.New("couldn't find a receipt for the transaction")

// Service is the API service for this VM
type Service struct{ vm *VM }

// AccountMetaArgs references an account from an instruction
type AccountMetaArgs struct {
	Address    string `json:"address"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// InstructionArgs is an instruction with base58 addresses and hex data
type InstructionArgs struct {
	ProgramID string            `json:"programID"`
	Accounts  []AccountMetaArgs `json:"accounts"`
	Data      string            `json:"data"`
}

// SubmitTransactionArgs are the arguments to SubmitTransaction
type SubmitTransactionArgs struct {
	Instructions []InstructionArgs `json:"instructions"`
	// Signers are base58 addresses
	Signers []string `json:"signers"`
}

// ReceiptReply describes an accepted transaction
type ReceiptReply struct {
	TxID   ids.ID      `json:"txID"`
	Height json.Uint64 `json:"height"`
	Logs   []string    `json:"logs"`
}

// SubmitTransaction executes a transaction and returns its receipt.
// A failing transaction is reported as an error and leaves no trace.
func (s *Service) SubmitTransaction(_ *http.Request, args *SubmitTransactionArgs, reply *ReceiptReply) error {
	tx, err := args.Transaction()
	if err != nil {
		return err
	}
	receipt, err := s.vm.Execute(tx)
	if err != nil {
		return err
	}
	reply.set(receipt)
	return nil
}

// Transaction decodes [args].
func (args *SubmitTransactionArgs) Transaction() (*Transaction, error) {
	tx := &Transaction{
		Instructions: make([]program.Instruction, len(args.Instructions)),
		Signers:      make([]ids.ID, len(args.Signers)),
	}
	for i, signer := range args.Signers {
		addr, err := program.AddressFromString(signer)
		if err != nil {
			return nil, err
		}
		tx.Signers[i] = addr
	}
	for i, ixArgs := range args.Instructions {
		ix, err := ixArgs.Instruction()
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		tx.Instructions[i] = ix
	}
	return tx, nil
}

// Instruction decodes [args].
func (args *InstructionArgs) Instruction() (program.Instruction, error) {
	programID, err := program.AddressFromString(args.ProgramID)
	if err != nil {
		return program.Instruction{}, err
	}
	data, err := formatting.Decode(formatting.Hex, args.Data)
	if err != nil {
		return program.Instruction{}, fmt.Errorf("couldn't decode instruction data: %w", err)
	}
	ix := program.Instruction{
		ProgramID: programID,
		Accounts:  make([]program.AccountMeta, len(args.Accounts)),
		Data:      data,
	}
	for i, meta := range args.Accounts {
		key, err := program.AddressFromString(meta.Address)
		if err != nil {
			return program.Instruction{}, err
		}
		ix.Accounts[i] = program.AccountMeta{
			Key:        key,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		}
	}
	return ix, nil
}

// NewInstructionArgs encodes [ix] for the API.
func NewInstructionArgs(ix program.Instruction) (InstructionArgs, error) {
	data, err := formatting.EncodeWithChecksum(formatting.Hex, ix.Data)
	if err != nil {
		return InstructionArgs{}, err
	}
	args := InstructionArgs{
		ProgramID: program.AddressString(ix.ProgramID),
		Accounts:  make([]AccountMetaArgs, len(ix.Accounts)),
		Data:      data,
	}
	for i, meta := range ix.Accounts {
		args.Accounts[i] = AccountMetaArgs{
			Address:    program.AddressString(meta.Key),
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		}
	}
	return args, nil
}

// AddressArgs is an API request where the only argument is an address
type AddressArgs struct {
	Address string `json:"address"`
}

// GetAccountReply is the reply from GetAccount
type GetAccountReply struct {
	Address    string      `json:"address"`
	Lamports   json.Uint64 `json:"lamports"`
	Owner      string      `json:"owner"`
	Executable bool        `json:"executable"`
	// Data is hex encoded
	Data string `json:"data"`
}

// GetAccount returns the account at [args.Address]
func (s *Service) GetAccount(_ *http.Request, args *AddressArgs, reply *GetAccountReply) error {
	addr, err := program.AddressFromString(args.Address)
	if err != nil {
		return err
	}
	account, err := s.vm.GetAccount(addr)
	if err != nil {
		return err
	}
	data, err := formatting.EncodeWithChecksum(formatting.Hex, account.Data)
	if err != nil {
		return err
	}
	reply.Address = program.AddressString(addr)
	reply.Lamports = json.Uint64(account.Lamports)
	reply.Owner = program.AddressString(account.Owner)
	reply.Executable = account.Executable
	reply.Data = data
	return nil
}

// GetVaultAddressArgs are the arguments to GetVaultAddress
type GetVaultAddressArgs struct {
	User string `json:"user"`
}

// GetVaultAddressReply is the reply from GetVaultAddress
type GetVaultAddressReply struct {
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
}

// GetVaultAddress returns the vault address of [args.User]
func (s *Service) GetVaultAddress(_ *http.Request, args *GetVaultAddressArgs, reply *GetVaultAddressReply) error {
	user, err := program.AddressFromString(args.User)
	if err != nil {
		return err
	}
	addr, bump, err := vault.DeriveAddress(user, s.vm.ProgramID())
	if err != nil {
		return err
	}
	reply.Address = program.AddressString(addr)
	reply.Bump = bump
	return nil
}

// GetReceiptArgs are the arguments to GetReceipt
type GetReceiptArgs struct {
	TxID ids.ID `json:"txID"`
}

// GetReceipt returns the receipt of an accepted transaction. If [args.TxID]
// is empty, it returns the last accepted one.
func (s *Service) GetReceipt(_ *http.Request, args *GetReceiptArgs, reply *ReceiptReply) error {
	txID := args.TxID
	if txID == ids.Empty {
		lastAccepted, _, err := s.vm.LastAccepted()
		if err != nil {
			return err
		}
		txID = lastAccepted
	}
	receipt, err := s.vm.GetReceipt(txID)
	if err == database.ErrNotFound {
		return errNoSuchReceipt
	}
	if err != nil {
		return err
	}
	reply.set(receipt)
	return nil
}

func (r *ReceiptReply) set(receipt *Receipt) {
	r.TxID = receipt.TxID
	r.Height = json.Uint64(receipt.Height)
	r.Logs = receipt.Logs
}

// GetMinimumBalanceArgs are the arguments to GetMinimumBalance
type GetMinimumBalanceArgs struct {
	DataLen json.Uint64 `json:"dataLen"`
}

// GetMinimumBalanceReply is the reply from GetMinimumBalance
type GetMinimumBalanceReply struct {
	Lamports json.Uint64 `json:"lamports"`
}

// GetMinimumBalance returns the rent exempt balance for an account holding
// [args.DataLen] bytes
func (s *Service) GetMinimumBalance(_ *http.Request, args *GetMinimumBalanceArgs, reply *GetMinimumBalanceReply) error {
	reply.Lamports = json.Uint64(s.vm.Rent().MinimumBalance(uint64(args.DataLen)))
	return nil
}
