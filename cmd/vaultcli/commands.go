// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"

	"github.com/ava-labs/vaultvm/client"
	"github.com/ava-labs/vaultvm/sdk/program"
	"github.com/ava-labs/vaultvm/vault"
	"github.com/ava-labs/vaultvm/vaultvm"
)

var errMissingArgs = errors.New("missing arguments")

var commandAddress = &cli.Command{
	Name:      "address",
	Usage:     "print the vault address of a user",
	ArgsUsage: "<user>",
	Action: func(ctx *cli.Context) error {
		id, err := programID(ctx)
		if err != nil {
			return err
		}
		user, err := addressArg(ctx, 0)
		if err != nil {
			return err
		}
		addr, bump, err := vault.DeriveAddress(user, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "%s (bump %d)\n", program.AddressString(addr), bump)
		return nil
	},
}

var commandEncode = &cli.Command{
	Name:      "encode",
	Usage:     "encode vault instruction data as hex",
	ArgsUsage: "<InitializeAccount|Deposit|Withdraw> [amount]",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() < 1 {
			return errMissingArgs
		}
		kind, err := vault.KindFromString(ctx.Args().Get(0))
		if err != nil {
			return err
		}
		ix := vault.Instruction{Kind: kind}
		if kind != vault.KindInitializeAccount {
			if ix.Amount, err = amountArg(ctx, 1); err != nil {
				return err
			}
		}
		encoded, err := formatting.EncodeWithChecksum(formatting.Hex, ix.Bytes())
		if err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, encoded)
		return nil
	},
}

var commandDecode = &cli.Command{
	Name:      "decode",
	Usage:     "decode hex vault instruction data",
	ArgsUsage: "<hex>",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() < 1 {
			return errMissingArgs
		}
		data, err := formatting.Decode(formatting.Hex, ctx.Args().Get(0))
		if err != nil {
			return err
		}
		ix, err := vault.ParseInstruction(data)
		if err != nil {
			return err
		}
		if ix.Kind == vault.KindInitializeAccount {
			fmt.Fprintln(ctx.App.Writer, ix.Kind)
			return nil
		}
		fmt.Fprintf(ctx.App.Writer, "%s %d\n", ix.Kind, ix.Amount)
		return nil
	},
}

var commandInit = &cli.Command{
	Name:      "init",
	Usage:     "create the vault of a user",
	ArgsUsage: "<user>",
	Action: func(ctx *cli.Context) error {
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		user, err := addressArg(ctx, 0)
		if err != nil {
			return err
		}
		receipt, err := c.InitializeVault(ctx.Context, user)
		if err != nil {
			return err
		}
		printReceipt(ctx, receipt)
		return nil
	},
}

var commandDeposit = &cli.Command{
	Name:      "deposit",
	Usage:     "move lamports from a user into its vault",
	ArgsUsage: "<user> <amount>",
	Action: func(ctx *cli.Context) error {
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		user, err := addressArg(ctx, 0)
		if err != nil {
			return err
		}
		amount, err := amountArg(ctx, 1)
		if err != nil {
			return err
		}
		receipt, err := c.Deposit(ctx.Context, user, amount)
		if err != nil {
			return err
		}
		printReceipt(ctx, receipt)
		return nil
	},
}

var commandWithdraw = &cli.Command{
	Name:      "withdraw",
	Usage:     "move lamports from the vault of a user back to the user",
	ArgsUsage: "<user> <amount>",
	Action: func(ctx *cli.Context) error {
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		user, err := addressArg(ctx, 0)
		if err != nil {
			return err
		}
		amount, err := amountArg(ctx, 1)
		if err != nil {
			return err
		}
		receipt, err := c.Withdraw(ctx.Context, user, amount)
		if err != nil {
			return err
		}
		printReceipt(ctx, receipt)
		return nil
	},
}

var commandBalance = &cli.Command{
	Name:      "balance",
	Usage:     "print the balance of an account",
	ArgsUsage: "<address>",
	Action: func(ctx *cli.Context) error {
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		addr, err := addressArg(ctx, 0)
		if err != nil {
			return err
		}
		account, err := c.GetAccount(ctx.Context, addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "%d lamports, owner %s\n", account.Lamports, program.AddressString(account.Owner))
		return nil
	},
}

func programID(ctx *cli.Context) (ids.ID, error) {
	id, err := program.AddressFromString(ctx.String(programIDFlag.Name))
	if err != nil {
		return ids.Empty, fmt.Errorf("invalid --%s: %w", programIDFlag.Name, err)
	}
	return id, nil
}

func newClient(ctx *cli.Context) (client.Client, error) {
	id, err := programID(ctx)
	if err != nil {
		return nil, err
	}
	return client.New(ctx.String(endpointFlag.Name), id), nil
}

func addressArg(ctx *cli.Context, i int) (ids.ID, error) {
	if ctx.NArg() <= i {
		return ids.Empty, errMissingArgs
	}
	return program.AddressFromString(ctx.Args().Get(i))
}

func amountArg(ctx *cli.Context, i int) (uint64, error) {
	if ctx.NArg() <= i {
		return 0, errMissingArgs
	}
	amount, err := strconv.ParseUint(ctx.Args().Get(i), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount: %w", err)
	}
	return amount, nil
}

func printReceipt(ctx *cli.Context, receipt *vaultvm.Receipt) {
	fmt.Fprintf(ctx.App.Writer, "accepted %s at height %d\n", receipt.TxID, receipt.Height)
	for _, line := range receipt.Logs {
		fmt.Fprintf(ctx.App.Writer, "  %s\n", line)
	}
}
