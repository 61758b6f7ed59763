// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/vaultvm/sdk/program"
)

const (
	// DefaultMaxInvokeDepth bounds nested program invocations, counting the
	// top level call.
	DefaultMaxInvokeDepth = 4
)

// Config tunes a VM.
type Config struct {
	// ProgramID is the address the vault program is deployed at.
	ProgramID ids.ID

	Rent             program.Rent
	AccountCacheSize int
	MaxInvokeDepth   int
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig(programID ids.ID) Config {
	return Config{
		ProgramID:        programID,
		Rent:             program.DefaultRent,
		AccountCacheSize: defaultAccountCacheSize,
		MaxInvokeDepth:   DefaultMaxInvokeDepth,
	}
}
