// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"encoding/json"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/vaultvm/sdk/program"
)

// Genesis lists the accounts funded before the first transaction.
type Genesis struct {
	Accounts []GenesisAccount `json:"accounts"`
}

// GenesisAccount is a system-owned account holding [Lamports].
type GenesisAccount struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
}

// ParseGenesis decodes [genesisBytes]. Empty input is an empty genesis.
func ParseGenesis(genesisBytes []byte) (*Genesis, error) {
	genesis := &Genesis{}
	if len(genesisBytes) == 0 {
		return genesis, nil
	}
	if err := json.Unmarshal(genesisBytes, genesis); err != nil {
		return nil, fmt.Errorf("couldn't parse genesis: %w", err)
	}
	return genesis, nil
}

// Allocations returns the decoded genesis balances, keyed by address.
func (g *Genesis) Allocations() (map[ids.ID]uint64, error) {
	allocations := make(map[ids.ID]uint64, len(g.Accounts))
	for _, account := range g.Accounts {
		addr, err := program.AddressFromString(account.Address)
		if err != nil {
			return nil, fmt.Errorf("genesis account %q: %w", account.Address, err)
		}
		if _, ok := allocations[addr]; ok {
			return nil, fmt.Errorf("genesis account %q listed twice", account.Address)
		}
		allocations[addr] = account.Lamports
	}
	return allocations, nil
}
