// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/vaultvm/sdk/program"
	"github.com/ava-labs/vaultvm/vaultvm"
)

// Commonly used command line flags.
var (
	endpointFlag = &cli.StringFlag{
		Name:    "endpoint",
		Usage:   "vault API endpoint",
		Value:   "http://127.0.0.1:9650/ext/vault",
		EnvVars: []string{"VAULTCLI_ENDPOINT"},
	}
	programIDFlag = &cli.StringFlag{
		Name:    "program-id",
		Usage:   "address of the vault program",
		Value:   program.AddressString(vaultvm.DefaultProgramID),
		EnvVars: []string{"VAULTCLI_PROGRAM_ID"},
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "vaultcli",
		Usage:   "derive, fund and drain vault accounts",
		Version: vaultvm.Version,
		Flags: []cli.Flag{
			endpointFlag,
			programIDFlag,
		},
		Commands: []*cli.Command{
			commandAddress,
			commandEncode,
			commandDecode,
			commandInit,
			commandDeposit,
			commandWithdraw,
			commandBalance,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
