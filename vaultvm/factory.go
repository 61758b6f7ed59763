// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/vaultvm/sdk/program"
	"github.com/ava-labs/vaultvm/vault"
)

// DefaultProgramID is where the vault program is deployed unless configured
// otherwise.
var DefaultProgramID = mustProgramID("DWZr6WcGKbTgATQDVgBkfBWJzDafynkK9zNXpdbvCwZu")

// Factory builds VMs with the vault program deployed.
type Factory struct {
	ProgramID ids.ID
}

// New returns a VM hosting the system and vault programs.
func (f *Factory) New() (*VM, error) {
	vm := New()
	if err := vm.RegisterProgram(f.ProgramID, vault.Process); err != nil {
		return nil, err
	}
	return vm, nil
}

func mustProgramID(s string) ids.ID {
	id, err := program.AddressFromString(s)
	if err != nil {
		panic(err)
	}
	return id
}
