// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/vaultvm/sdk/program"
	"github.com/ava-labs/vaultvm/sdk/system"
)

var (
	rogueID = ids.ID{'r', 'o', 'g', 'u', 'e'}
	// Funded account owned by the rogue program.
	owned = ids.ID{'o', 'w', 'n', 'e', 'd'}
	// Never funded.
	victim = ids.ID{'v', 'i', 'c', 't', 'i', 'm'}
)

type behavior func(rt program.Runtime, accounts []*program.AccountInfo) error

func newRogueVM(t *testing.T, b behavior) *VM {
	require := require.New(t)

	vm, err := (&Factory{ProgramID: testProgramID}).New()
	require.NoError(err)
	require.NoError(vm.RegisterProgram(rogueID, func(rt program.Runtime, _ ids.ID, accounts []*program.AccountInfo, _ []byte) error {
		return b(rt, accounts)
	}))
	require.NoError(vm.Initialize(memdb.New(), testGenesis(), DefaultConfig(testProgramID), prometheus.NewRegistry()))
	require.NoError(vm.SetAccount(owned, &Account{Lamports: 100, Owner: rogueID}))
	return vm
}

func TestRuntimeEnforcement(t *testing.T) {
	tests := []struct {
		name        string
		accounts    []program.AccountMeta
		signers     []ids.ID
		behavior    behavior
		expectedErr error
	}{
		{
			name: "move lamports out of an owned account",
			accounts: []program.AccountMeta{
				program.NewAccountMeta(owned, false),
				program.NewAccountMeta(alice, false),
			},
			behavior: func(_ program.Runtime, accounts []*program.AccountInfo) error {
				accounts[0].Lamports -= 10
				accounts[1].Lamports += 10
				return nil
			},
		},
		{
			name: "spend from a foreign account",
			accounts: []program.AccountMeta{
				program.NewAccountMeta(alice, false),
				program.NewAccountMeta(owned, false),
			},
			behavior: func(_ program.Runtime, accounts []*program.AccountInfo) error {
				accounts[0].Lamports -= 10
				accounts[1].Lamports += 10
				return nil
			},
			expectedErr: ErrExternalAccountLamportSpend,
		},
		{
			name:     "mint lamports",
			accounts: []program.AccountMeta{program.NewAccountMeta(owned, false)},
			behavior: func(_ program.Runtime, accounts []*program.AccountInfo) error {
				accounts[0].Lamports++
				return nil
			},
			expectedErr: ErrUnbalancedInstruction,
		},
		{
			name: "credit a read-only account",
			accounts: []program.AccountMeta{
				program.NewAccountMeta(owned, false),
				program.NewReadonlyAccountMeta(alice, false),
			},
			behavior: func(_ program.Runtime, accounts []*program.AccountInfo) error {
				accounts[0].Lamports -= 10
				accounts[1].Lamports += 10
				return nil
			},
			expectedErr: ErrReadonlyLamportChange,
		},
		{
			name:     "write foreign data",
			accounts: []program.AccountMeta{program.NewAccountMeta(alice, false)},
			behavior: func(_ program.Runtime, accounts []*program.AccountInfo) error {
				accounts[0].Data = []byte{1}
				return nil
			},
			expectedErr: ErrExternalAccountDataModified,
		},
		{
			name:     "write read-only data",
			accounts: []program.AccountMeta{program.NewReadonlyAccountMeta(owned, false)},
			behavior: func(_ program.Runtime, accounts []*program.AccountInfo) error {
				accounts[0].Data = []byte{1}
				return nil
			},
			expectedErr: ErrReadonlyDataModified,
		},
		{
			name:     "reassign a foreign account",
			accounts: []program.AccountMeta{program.NewAccountMeta(alice, false)},
			behavior: func(_ program.Runtime, accounts []*program.AccountInfo) error {
				accounts[0].Owner = rogueID
				return nil
			},
			expectedErr: ErrModifiedProgramID,
		},
		{
			name:     "mark an account executable",
			accounts: []program.AccountMeta{program.NewAccountMeta(owned, false)},
			behavior: func(_ program.Runtime, accounts []*program.AccountInfo) error {
				accounts[0].Executable = true
				return nil
			},
			expectedErr: ErrExecutableModified,
		},
		{
			name: "forge a signature",
			accounts: []program.AccountMeta{
				program.NewAccountMeta(alice, false),
				program.NewAccountMeta(bob, false),
				program.NewReadonlyAccountMeta(system.ID, false),
			},
			behavior: func(rt program.Runtime, accounts []*program.AccountInfo) error {
				return rt.Invoke(system.Transfer(alice, bob, 1), accounts)
			},
			expectedErr: ErrPrivilegeEscalation,
		},
		{
			name: "forge a signer view",
			accounts: []program.AccountMeta{
				program.NewAccountMeta(alice, false),
				program.NewReadonlyAccountMeta(system.ID, false),
			},
			behavior: func(rt program.Runtime, accounts []*program.AccountInfo) error {
				forged := &program.AccountInfo{
					Key:        victim,
					IsSigner:   true,
					IsWritable: true,
					Lamports:   1_000_000,
				}
				return rt.Invoke(
					system.Transfer(victim, alice, 1_000_000),
					[]*program.AccountInfo{forged, accounts[0], accounts[1]},
				)
			},
			expectedErr: ErrMissingAccount,
		},
		{
			name: "pass a copy with a forged signature",
			accounts: []program.AccountMeta{
				program.NewAccountMeta(alice, false),
				program.NewAccountMeta(bob, false),
				program.NewReadonlyAccountMeta(system.ID, false),
			},
			behavior: func(rt program.Runtime, accounts []*program.AccountInfo) error {
				copied := *accounts[0]
				copied.IsSigner = true
				return rt.Invoke(
					system.Transfer(alice, bob, 1),
					[]*program.AccountInfo{&copied, accounts[1], accounts[2]},
				)
			},
			expectedErr: ErrMissingAccount,
		},
		{
			name: "replace a view in the account list",
			accounts: []program.AccountMeta{
				program.NewAccountMeta(alice, false),
				program.NewAccountMeta(bob, false),
				program.NewReadonlyAccountMeta(system.ID, false),
			},
			behavior: func(rt program.Runtime, accounts []*program.AccountInfo) error {
				accounts[0] = &program.AccountInfo{
					Key:        alice,
					IsSigner:   true,
					IsWritable: true,
					Lamports:   initialBalance,
				}
				return rt.Invoke(system.Transfer(alice, bob, 1), accounts)
			},
			expectedErr: ErrMissingAccount,
		},
		{
			name: "grant a view a signature",
			accounts: []program.AccountMeta{
				program.NewAccountMeta(alice, false),
				program.NewAccountMeta(bob, false),
				program.NewReadonlyAccountMeta(system.ID, false),
			},
			behavior: func(rt program.Runtime, accounts []*program.AccountInfo) error {
				accounts[0].IsSigner = true
				return rt.Invoke(system.Transfer(alice, bob, 1), accounts)
			},
			expectedErr: ErrPrivilegeEscalation,
		},
		{
			name:     "grant a view write access",
			accounts: []program.AccountMeta{program.NewReadonlyAccountMeta(owned, false)},
			behavior: func(_ program.Runtime, accounts []*program.AccountInfo) error {
				accounts[0].IsWritable = true
				accounts[0].Data = []byte{1}
				return nil
			},
			expectedErr: ErrReadonlyDataModified,
		},
		{
			name: "rename a view",
			accounts: []program.AccountMeta{
				program.NewAccountMeta(owned, false),
				program.NewAccountMeta(alice, false),
			},
			behavior: func(_ program.Runtime, accounts []*program.AccountInfo) error {
				accounts[0].Key = alice
				return nil
			},
			expectedErr: ErrModifiedAccountKey,
		},
		{
			name: "upgrade a read-only account",
			accounts: []program.AccountMeta{
				program.NewReadonlyAccountMeta(alice, true),
				program.NewAccountMeta(bob, false),
				program.NewReadonlyAccountMeta(system.ID, false),
			},
			signers: []ids.ID{alice},
			behavior: func(rt program.Runtime, accounts []*program.AccountInfo) error {
				return rt.Invoke(system.Transfer(alice, bob, 1), accounts)
			},
			expectedErr: ErrPrivilegeEscalation,
		},
		{
			name: "sign with seeds of another program",
			accounts: []program.AccountMeta{
				program.NewAccountMeta(alice, true),
				program.NewAccountMeta(vaultOf(t, alice), false),
				program.NewReadonlyAccountMeta(system.ID, false),
			},
			signers: []ids.ID{alice},
			behavior: func(rt program.Runtime, accounts []*program.AccountInfo) error {
				// Valid seeds for the rogue program never derive the vault.
				_, bump, err := program.FindProgramAddress([][]byte{[]byte("user"), alice[:]}, rogueID)
				if err != nil {
					return err
				}
				return rt.InvokeSigned(
					system.CreateAccount(alice, accounts[1].Key, 1, 0, rogueID),
					accounts,
					[][][]byte{{[]byte("user"), alice[:], {bump}}},
				)
			},
			expectedErr: ErrPrivilegeEscalation,
		},
		{
			name: "invoke without the program account",
			accounts: []program.AccountMeta{
				program.NewAccountMeta(alice, true),
				program.NewAccountMeta(bob, false),
			},
			signers: []ids.ID{alice},
			behavior: func(rt program.Runtime, accounts []*program.AccountInfo) error {
				return rt.Invoke(system.Transfer(alice, bob, 1), accounts)
			},
			expectedErr: ErrMissingAccount,
		},
		{
			name: "invoke with a missing account",
			accounts: []program.AccountMeta{
				program.NewAccountMeta(alice, true),
				program.NewReadonlyAccountMeta(system.ID, false),
			},
			signers: []ids.ID{alice},
			behavior: func(rt program.Runtime, accounts []*program.AccountInfo) error {
				return rt.Invoke(system.Transfer(alice, bob, 1), accounts)
			},
			expectedErr: ErrMissingAccount,
		},
		{
			name:     "invoke an unknown program",
			accounts: []program.AccountMeta{program.NewReadonlyAccountMeta(owned, false)},
			behavior: func(rt program.Runtime, accounts []*program.AccountInfo) error {
				return rt.Invoke(program.Instruction{ProgramID: ids.ID{9}}, accounts)
			},
			expectedErr: ErrUnsupportedProgramID,
		},
		{
			name:     "recurse without bound",
			accounts: []program.AccountMeta{program.NewReadonlyAccountMeta(rogueID, false)},
			behavior: func(rt program.Runtime, accounts []*program.AccountInfo) error {
				return rt.Invoke(program.Instruction{
					ProgramID: rogueID,
					Accounts:  []program.AccountMeta{program.NewReadonlyAccountMeta(rogueID, false)},
				}, accounts)
			},
			expectedErr: ErrCallDepth,
		},
		{
			name: "invoke after minting",
			accounts: []program.AccountMeta{
				program.NewAccountMeta(owned, false),
				program.NewAccountMeta(alice, true),
				program.NewAccountMeta(bob, false),
				program.NewReadonlyAccountMeta(system.ID, false),
			},
			signers: []ids.ID{alice},
			behavior: func(rt program.Runtime, accounts []*program.AccountInfo) error {
				accounts[0].Lamports++
				return rt.Invoke(system.Transfer(alice, bob, 1), accounts[1:])
			},
			expectedErr: ErrUnbalancedInstruction,
		},
		{
			name: "invoke on behalf of a signer",
			accounts: []program.AccountMeta{
				program.NewAccountMeta(alice, true),
				program.NewAccountMeta(bob, false),
				program.NewReadonlyAccountMeta(system.ID, false),
			},
			signers: []ids.ID{alice},
			behavior: func(rt program.Runtime, accounts []*program.AccountInfo) error {
				if err := rt.Invoke(system.Transfer(alice, bob, 1), accounts); err != nil {
					return err
				}
				// The callee's changes are visible once it returns.
				if accounts[0].Lamports != initialBalance-1 {
					return program.ErrInvalidArgument
				}
				return nil
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			vm := newRogueVM(t, test.behavior)
			_, err := execute(vm, test.signers, program.Instruction{
				ProgramID: rogueID,
				Accounts:  test.accounts,
			})
			require.ErrorIs(err, test.expectedErr)
			if test.expectedErr != nil {
				require.Equal(uint64(initialBalance), balance(t, vm, alice))
				require.Equal(uint64(initialBalance), balance(t, vm, bob))
				require.Equal(uint64(100), balance(t, vm, owned))
				require.Zero(balance(t, vm, victim))
			}
		})
	}
}

func TestCallDepthLimit(t *testing.T) {
	require := require.New(t)

	// Each frame invokes the next until the limit is reached.
	depth := 0
	var vm *VM
	vm = newRogueVM(t, func(rt program.Runtime, accounts []*program.AccountInfo) error {
		depth++
		if depth == vm.config.MaxInvokeDepth {
			return nil
		}
		return rt.Invoke(program.Instruction{
			ProgramID: rogueID,
			Accounts:  []program.AccountMeta{program.NewReadonlyAccountMeta(rogueID, false)},
		}, accounts)
	})

	receipt, err := execute(vm, nil, program.Instruction{
		ProgramID: rogueID,
		Accounts:  []program.AccountMeta{program.NewReadonlyAccountMeta(rogueID, false)},
	})
	require.NoError(err)
	require.Equal(DefaultMaxInvokeDepth, depth)
	require.Contains(receipt.Logs, "Program "+program.AddressString(rogueID)+" invoke [4]")
}

func TestDuplicateAccounts(t *testing.T) {
	require := require.New(t)

	vm := newRogueVM(t, func(_ program.Runtime, accounts []*program.AccountInfo) error {
		if accounts[0] != accounts[1] || !accounts[0].IsSigner || !accounts[0].IsWritable {
			return program.ErrInvalidArgument
		}
		return nil
	})
	_, err := execute(vm, []ids.ID{alice}, program.Instruction{
		ProgramID: rogueID,
		Accounts: []program.AccountMeta{
			program.NewReadonlyAccountMeta(alice, true),
			program.NewAccountMeta(alice, false),
		},
	})
	require.NoError(err)
}
