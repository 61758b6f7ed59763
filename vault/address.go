// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/vaultvm/sdk/program"
)

// SeedPrefix is the domain tag of every vault address.
const SeedPrefix = "user"

// DeriveAddress returns the vault address of [user] under [programID] and its
// bump seed.
func DeriveAddress(user, programID ids.ID) (ids.ID, uint8, error) {
	return program.FindProgramAddress([][]byte{[]byte(SeedPrefix), user[:]}, programID)
}

// signerSeeds are the seeds proving the program controls the vault of
// [user].
func signerSeeds(user ids.ID, bump uint8) [][]byte {
	return [][]byte{[]byte(SeedPrefix), user[:], {bump}}
}
