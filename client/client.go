// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/json"
	"github.com/ava-labs/avalanchego/utils/rpc"

	"github.com/ava-labs/vaultvm/sdk/program"
	"github.com/ava-labs/vaultvm/vault"
	"github.com/ava-labs/vaultvm/vaultvm"
)

// Client defines vaultvm client operations.
type Client interface {
	// SubmitTransaction executes [ixs] signed by [signers]
	SubmitTransaction(ctx context.Context, signers []ids.ID, ixs ...program.Instruction) (*vaultvm.Receipt, error)

	// GetAccount fetches the account at [addr]
	GetAccount(ctx context.Context, addr ids.ID) (*vaultvm.Account, error)

	// GetVaultAddress returns the vault address of [user] and its bump seed
	GetVaultAddress(ctx context.Context, user ids.ID) (ids.ID, uint8, error)

	// GetReceipt fetches the receipt of [txID], or of the last accepted
	// transaction if [txID] is empty
	GetReceipt(ctx context.Context, txID ids.ID) (*vaultvm.Receipt, error)

	// GetMinimumBalance returns the rent exempt balance for [dataLen] bytes
	GetMinimumBalance(ctx context.Context, dataLen uint64) (uint64, error)

	// InitializeVault creates the vault of [user]
	InitializeVault(ctx context.Context, user ids.ID) (*vaultvm.Receipt, error)

	// Deposit moves [amount] from [user] into its vault
	Deposit(ctx context.Context, user ids.ID, amount uint64) (*vaultvm.Receipt, error)

	// Withdraw moves [amount] from the vault of [user] back to [user]
	Withdraw(ctx context.Context, user ids.ID, amount uint64) (*vaultvm.Receipt, error)
}

// New creates a new client object. [uri] is the vm's API endpoint and
// [programID] the address the vault program is deployed at.
func New(uri string, programID ids.ID) Client {
	req := rpc.NewEndpointRequester(uri, "", vaultvm.Name)
	return &client{
		req:       req,
		programID: programID,
	}
}

type client struct {
	req       rpc.EndpointRequester
	programID ids.ID
}

func (cli *client) SubmitTransaction(ctx context.Context, signers []ids.ID, ixs ...program.Instruction) (*vaultvm.Receipt, error) {
	args := &vaultvm.SubmitTransactionArgs{
		Instructions: make([]vaultvm.InstructionArgs, len(ixs)),
		Signers:      make([]string, len(signers)),
	}
	for i, ix := range ixs {
		ixArgs, err := vaultvm.NewInstructionArgs(ix)
		if err != nil {
			return nil, err
		}
		args.Instructions[i] = ixArgs
	}
	for i, signer := range signers {
		args.Signers[i] = program.AddressString(signer)
	}

	resp := new(vaultvm.ReceiptReply)
	if err := cli.req.SendRequest(ctx, "submitTransaction", args, resp); err != nil {
		return nil, err
	}
	return toReceipt(resp), nil
}

func (cli *client) GetAccount(ctx context.Context, addr ids.ID) (*vaultvm.Account, error) {
	resp := new(vaultvm.GetAccountReply)
	err := cli.req.SendRequest(ctx,
		"getAccount",
		&vaultvm.AddressArgs{Address: program.AddressString(addr)},
		resp,
	)
	if err != nil {
		return nil, err
	}
	owner, err := program.AddressFromString(resp.Owner)
	if err != nil {
		return nil, err
	}
	data, err := formatting.Decode(formatting.Hex, resp.Data)
	if err != nil {
		return nil, err
	}
	return &vaultvm.Account{
		Lamports:   uint64(resp.Lamports),
		Data:       data,
		Owner:      owner,
		Executable: resp.Executable,
	}, nil
}

func (cli *client) GetVaultAddress(ctx context.Context, user ids.ID) (ids.ID, uint8, error) {
	resp := new(vaultvm.GetVaultAddressReply)
	err := cli.req.SendRequest(ctx,
		"getVaultAddress",
		&vaultvm.GetVaultAddressArgs{User: program.AddressString(user)},
		resp,
	)
	if err != nil {
		return ids.Empty, 0, err
	}
	addr, err := program.AddressFromString(resp.Address)
	return addr, resp.Bump, err
}

func (cli *client) GetReceipt(ctx context.Context, txID ids.ID) (*vaultvm.Receipt, error) {
	resp := new(vaultvm.ReceiptReply)
	err := cli.req.SendRequest(ctx,
		"getReceipt",
		&vaultvm.GetReceiptArgs{TxID: txID},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return toReceipt(resp), nil
}

func (cli *client) GetMinimumBalance(ctx context.Context, dataLen uint64) (uint64, error) {
	resp := new(vaultvm.GetMinimumBalanceReply)
	err := cli.req.SendRequest(ctx,
		"getMinimumBalance",
		&vaultvm.GetMinimumBalanceArgs{DataLen: json.Uint64(dataLen)},
		resp,
	)
	return uint64(resp.Lamports), err
}

func (cli *client) InitializeVault(ctx context.Context, user ids.ID) (*vaultvm.Receipt, error) {
	ix, err := vault.NewInitializeAccountInstruction(cli.programID, user)
	if err != nil {
		return nil, err
	}
	return cli.SubmitTransaction(ctx, []ids.ID{user}, ix)
}

func (cli *client) Deposit(ctx context.Context, user ids.ID, amount uint64) (*vaultvm.Receipt, error) {
	ix, err := vault.NewDepositInstruction(cli.programID, user, amount)
	if err != nil {
		return nil, err
	}
	return cli.SubmitTransaction(ctx, []ids.ID{user}, ix)
}

func (cli *client) Withdraw(ctx context.Context, user ids.ID, amount uint64) (*vaultvm.Receipt, error) {
	ix, err := vault.NewWithdrawInstruction(cli.programID, user, amount)
	if err != nil {
		return nil, err
	}
	return cli.SubmitTransaction(ctx, nil, ix)
}

func toReceipt(resp *vaultvm.ReceiptReply) *vaultvm.Receipt {
	return &vaultvm.Receipt{
		TxID:   resp.TxID,
		Height: uint64(resp.Height),
		Logs:   resp.Logs,
	}
}
