// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/vaultvm/sdk/program"
)

func TestDeriveAddress(t *testing.T) {
	require := require.New(t)

	user := ids.ID{'u'}
	addr, bump, err := DeriveAddress(user, testProgramID)
	require.NoError(err)

	expectedAddr, expectedBump, err := program.FindProgramAddress([][]byte{[]byte("user"), user[:]}, testProgramID)
	require.NoError(err)
	require.Equal(expectedAddr, addr)
	require.Equal(expectedBump, bump)

	// Seeds handed out for signing cannot alter later derivations.
	seeds := signerSeeds(user, bump)
	seeds[0][0] = 'x'
	again, _, err := DeriveAddress(user, testProgramID)
	require.NoError(err)
	require.Equal(addr, again)

	signed, err := program.CreateProgramAddress(signerSeeds(user, bump), testProgramID)
	require.NoError(err)
	require.Equal(addr, signed)

	other, _, err := DeriveAddress(ids.ID{'o'}, testProgramID)
	require.NoError(err)
	require.NotEqual(addr, other)
}
