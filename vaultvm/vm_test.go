// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/vaultvm/sdk/program"
	"github.com/ava-labs/vaultvm/sdk/system"
	"github.com/ava-labs/vaultvm/vault"
)

const (
	initialBalance = 1_000_000_000
	reserve        = 890_880
)

var (
	testProgramID = DefaultProgramID

	alice = ids.ID{'a', 'l', 'i', 'c', 'e'}
	bob   = ids.ID{'b', 'o', 'b'}
)

func testGenesis() []byte {
	return []byte(fmt.Sprintf(
		`{"accounts":[{"address":%q,"lamports":%d},{"address":%q,"lamports":%d}]}`,
		program.AddressString(alice), initialBalance,
		program.AddressString(bob), initialBalance,
	))
}

func newTestVM(t *testing.T) *VM {
	return newTestVMWithDB(t, memdb.New())
}

func newTestVMWithDB(t *testing.T, db database.Database) *VM {
	require := require.New(t)

	vm, err := (&Factory{ProgramID: testProgramID}).New()
	require.NoError(err)
	require.NoError(vm.Initialize(db, testGenesis(), DefaultConfig(testProgramID), prometheus.NewRegistry()))
	return vm
}

func execute(vm *VM, signers []ids.ID, ixs ...program.Instruction) (*Receipt, error) {
	return vm.Execute(&Transaction{Instructions: ixs, Signers: signers})
}

func vaultOf(t *testing.T, user ids.ID) ids.ID {
	addr, _, err := vault.DeriveAddress(user, testProgramID)
	require.NoError(t, err)
	return addr
}

func balance(t *testing.T, vm *VM, addr ids.ID) uint64 {
	account, err := vm.GetAccount(addr)
	require.NoError(t, err)
	return account.Lamports
}

func initialize(t *testing.T, vm *VM, user ids.ID) *Receipt {
	ix, err := vault.NewInitializeAccountInstruction(testProgramID, user)
	require.NoError(t, err)
	receipt, err := execute(vm, []ids.ID{user}, ix)
	require.NoError(t, err)
	return receipt
}

func TestGenesis(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	db := memdb.New()
	vm := newTestVMWithDB(t, db)

	ok, err := vm.state.IsInitialized()
	require.NoError(err)
	assert.True(ok)

	lastAccepted, height, err := vm.LastAccepted()
	require.NoError(err)
	assert.Equal(ids.Empty, lastAccepted)
	assert.Zero(height)

	for _, programID := range []ids.ID{system.ID, testProgramID} {
		account, err := vm.GetAccount(programID)
		require.NoError(err)
		assert.True(account.Executable)
		assert.Equal(LoaderID, account.Owner)
	}

	account, err := vm.GetAccount(alice)
	require.NoError(err)
	assert.Equal(uint64(initialBalance), account.Lamports)
	assert.Equal(system.ID, account.Owner)
	assert.False(account.Executable)

	// Unknown addresses read as empty system accounts.
	account, err = vm.GetAccount(ids.ID{'n', 'o', 'b', 'o', 'd', 'y'})
	require.NoError(err)
	assert.Equal(EmptyAccount(), account)

	initialize(t, vm, alice)

	// Genesis is only applied to an empty database.
	vm = newTestVMWithDB(t, db)
	assert.Equal(uint64(initialBalance-reserve), balance(t, vm, alice))
	_, height, err = vm.LastAccepted()
	require.NoError(err)
	assert.Equal(uint64(1), height)
}

func TestBadGenesis(t *testing.T) {
	tests := []struct {
		name    string
		genesis string
	}{
		{
			name:    "not json",
			genesis: "{",
		},
		{
			name:    "bad address",
			genesis: `{"accounts":[{"address":"0OIl","lamports":1}]}`,
		},
		{
			name:    "duplicate address",
			genesis: fmt.Sprintf(`{"accounts":[{"address":%q,"lamports":1},{"address":%q,"lamports":2}]}`, program.AddressString(alice), program.AddressString(alice)),
		},
		{
			name:    "funds a program",
			genesis: fmt.Sprintf(`{"accounts":[{"address":%q,"lamports":1}]}`, program.AddressString(testProgramID)),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			vm, err := (&Factory{ProgramID: testProgramID}).New()
			require.NoError(err)
			db := memdb.New()
			require.Error(vm.Initialize(db, []byte(test.genesis), DefaultConfig(testProgramID), prometheus.NewRegistry()))

			// Nothing from the failed genesis reached the database.
			it := db.NewIterator()
			defer it.Release()
			require.False(it.Next())
		})
	}
}

func TestRegisterProgram(t *testing.T) {
	require := require.New(t)

	vm, err := (&Factory{ProgramID: testProgramID}).New()
	require.NoError(err)
	require.ErrorIs(vm.RegisterProgram(testProgramID, vault.Process), errProgramRegistered)
	require.ErrorIs(vm.RegisterProgram(system.ID, vault.Process), errReservedProgramID)
	require.ErrorIs(vm.RegisterProgram(LoaderID, vault.Process), errReservedProgramID)

	_, err = (&Factory{ProgramID: system.ID}).New()
	require.ErrorIs(err, errReservedProgramID)
}

func TestNotInitialized(t *testing.T) {
	require := require.New(t)

	vm := New()
	_, err := vm.Execute(&Transaction{})
	require.ErrorIs(err, errNotInitialized)
	_, err = vm.GetAccount(alice)
	require.ErrorIs(err, errNotInitialized)
	require.NoError(vm.Shutdown())
}

func TestVaultLifecycle(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t)
	vaultAddr := vaultOf(t, alice)
	vaultName := program.AddressString(testProgramID)
	systemName := program.AddressString(system.ID)

	receipt := initialize(t, vm, alice)
	require.Equal(uint64(1), receipt.Height)
	require.Equal([]string{
		"Program " + vaultName + " invoke [1]",
		"Program log: Instruction: InitializeAccount",
		"Program " + systemName + " invoke [2]",
		"Program log: Instruction: CreateAccount",
		"Program " + systemName + " success",
		"Program " + vaultName + " success",
	}, receipt.Logs)

	account, err := vm.GetAccount(vaultAddr)
	require.NoError(err)
	require.Equal(uint64(reserve), account.Lamports)
	require.Equal(testProgramID, account.Owner)
	require.Empty(account.Data)
	require.Equal(uint64(initialBalance-reserve), balance(t, vm, alice))

	deposit, err := vault.NewDepositInstruction(testProgramID, alice, 10_000_000)
	require.NoError(err)
	receipt, err = execute(vm, []ids.ID{alice}, deposit)
	require.NoError(err)
	require.Equal(uint64(2), receipt.Height)
	require.Contains(receipt.Logs, "Program log: Instruction: Deposit amount=10000000")
	require.Contains(receipt.Logs, "Program log: Instruction: Transfer")
	require.Equal(uint64(reserve+10_000_000), balance(t, vm, vaultAddr))
	require.Equal(uint64(initialBalance-reserve-10_000_000), balance(t, vm, alice))

	// Withdrawals need no signature.
	withdraw, err := vault.NewWithdrawInstruction(testProgramID, alice, 5_000_000)
	require.NoError(err)
	receipt, err = execute(vm, nil, withdraw)
	require.NoError(err)
	require.Equal([]string{
		"Program " + vaultName + " invoke [1]",
		"Program log: Instruction: Withdraw amount=5000000",
		"Program " + vaultName + " success",
	}, receipt.Logs)
	require.Equal(uint64(reserve+5_000_000), balance(t, vm, vaultAddr))
	require.Equal(uint64(994_109_120), balance(t, vm, alice))

	lastAccepted, height, err := vm.LastAccepted()
	require.NoError(err)
	require.Equal(receipt.TxID, lastAccepted)
	require.Equal(uint64(3), height)

	stored, err := vm.GetReceipt(receipt.TxID)
	require.NoError(err)
	require.Equal(receipt, stored)
}

func TestInitializeTwice(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t)
	initialize(t, vm, alice)

	ix, err := vault.NewInitializeAccountInstruction(testProgramID, alice)
	require.NoError(err)
	_, err = execute(vm, []ids.ID{alice}, ix)
	require.ErrorIs(err, system.ErrAccountAlreadyInUse)

	require.Equal(uint64(reserve), balance(t, vm, vaultOf(t, alice)))
	require.Equal(uint64(initialBalance-reserve), balance(t, vm, alice))
	_, height, err := vm.LastAccepted()
	require.NoError(err)
	require.Equal(uint64(1), height)
}

func TestDepositZero(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t)
	deposit, err := vault.NewDepositInstruction(testProgramID, alice, 0)
	require.NoError(err)

	_, err = execute(vm, []ids.ID{alice}, deposit)
	require.ErrorIs(err, vault.ErrInvalidAmount)

	initialize(t, vm, alice)
	_, err = execute(vm, []ids.ID{alice}, deposit)
	require.ErrorIs(err, vault.ErrInvalidAmount)
	require.Equal(uint64(reserve), balance(t, vm, vaultOf(t, alice)))
}

func TestDepositRequiresSignature(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t)
	initialize(t, vm, alice)

	deposit, err := vault.NewDepositInstruction(testProgramID, alice, 10)
	require.NoError(err)
	_, err = execute(vm, []ids.ID{bob}, deposit)
	require.ErrorIs(err, program.ErrMissingRequiredSignature)

	// Dropping the signer flag does not help: the transfer escalates.
	deposit.Accounts[0].IsSigner = false
	_, err = execute(vm, nil, deposit)
	require.ErrorIs(err, ErrPrivilegeEscalation)
	require.Equal(uint64(reserve), balance(t, vm, vaultOf(t, alice)))
}

func TestDepositInsufficientFunds(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t)
	initialize(t, vm, alice)

	deposit, err := vault.NewDepositInstruction(testProgramID, alice, initialBalance)
	require.NoError(err)
	_, err = execute(vm, []ids.ID{alice}, deposit)
	require.ErrorIs(err, vault.ErrInsufficientFunds)
	require.ErrorIs(err, system.ErrResultWithNegativeLamports)
	require.ErrorIs(err, program.ErrInsufficientFunds)
	require.Equal(uint64(initialBalance-reserve), balance(t, vm, alice))
}

func TestWithdraw(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t)
	vaultAddr := vaultOf(t, alice)

	withdraw, err := vault.NewWithdrawInstruction(testProgramID, alice, 0)
	require.NoError(err)
	_, err = execute(vm, nil, withdraw)
	require.ErrorIs(err, vault.ErrWrongOwner)

	initialize(t, vm, alice)

	_, err = execute(vm, nil, withdraw)
	require.NoError(err)
	require.Equal(uint64(reserve), balance(t, vm, vaultAddr))
	require.Equal(uint64(initialBalance-reserve), balance(t, vm, alice))

	withdraw, err = vault.NewWithdrawInstruction(testProgramID, alice, reserve+1)
	require.NoError(err)
	_, err = execute(vm, nil, withdraw)
	require.ErrorIs(err, vault.ErrInsufficientFunds)
	require.Equal(uint64(reserve), balance(t, vm, vaultAddr))

	// Draining the vault removes it, after which it can be created again.
	withdraw, err = vault.NewWithdrawInstruction(testProgramID, alice, reserve)
	require.NoError(err)
	_, err = execute(vm, nil, withdraw)
	require.NoError(err)
	require.Equal(uint64(initialBalance), balance(t, vm, alice))
	_, err = vm.state.GetAccount(vaultAddr)
	require.ErrorIs(err, database.ErrNotFound)

	initialize(t, vm, alice)
	require.Equal(uint64(reserve), balance(t, vm, vaultAddr))
}

func TestAddressMismatch(t *testing.T) {
	vm := newTestVM(t)
	initialize(t, vm, alice)
	initialize(t, vm, bob)
	bobVault := vaultOf(t, bob)

	tests := []struct {
		name    string
		kind    vault.Kind
		amount  uint64
		signers []ids.ID
	}{
		{
			name:    "initialize",
			kind:    vault.KindInitializeAccount,
			signers: []ids.ID{alice},
		},
		{
			name:    "deposit",
			kind:    vault.KindDeposit,
			amount:  10,
			signers: []ids.ID{alice},
		},
		{
			name:   "withdraw",
			kind:   vault.KindWithdraw,
			amount: 10,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			metas := []program.AccountMeta{
				program.NewAccountMeta(alice, test.kind != vault.KindWithdraw),
				program.NewAccountMeta(bobVault, false),
			}
			if test.kind != vault.KindWithdraw {
				metas = append(metas, program.NewReadonlyAccountMeta(system.ID, false))
			}
			ix := program.Instruction{
				ProgramID: testProgramID,
				Accounts:  metas,
				Data:      vault.Instruction{Kind: test.kind, Amount: test.amount}.Bytes(),
			}

			_, err := execute(vm, test.signers, ix)
			require.ErrorIs(err, vault.ErrAddressMismatch)
			require.Equal(uint64(reserve), balance(t, vm, bobVault))
			require.Equal(uint64(initialBalance-reserve), balance(t, vm, alice))
		})
	}
}

func TestTransactionAtomicity(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t)
	initialize(t, vm, alice)

	good, err := vault.NewDepositInstruction(testProgramID, alice, 10)
	require.NoError(err)
	bad, err := vault.NewDepositInstruction(testProgramID, alice, 0)
	require.NoError(err)

	_, err = execute(vm, []ids.ID{alice}, good, bad)
	require.ErrorIs(err, vault.ErrInvalidAmount)
	require.Contains(err.Error(), "instruction 1")
	require.Equal(uint64(reserve), balance(t, vm, vaultOf(t, alice)))
	require.Equal(uint64(initialBalance-reserve), balance(t, vm, alice))

	receipt, err := execute(vm, []ids.ID{alice}, good, good)
	require.NoError(err)
	require.Equal(uint64(2), receipt.Height)
	require.Equal(uint64(reserve+20), balance(t, vm, vaultOf(t, alice)))

	require.Equal(float64(2), testutil.ToFloat64(vm.metrics.txAccepted))
	require.Equal(float64(1), testutil.ToFloat64(vm.metrics.txRejected))
	require.Equal(float64(1), testutil.ToFloat64(
		vm.metrics.instructions.WithLabelValues(program.AddressString(testProgramID), resultFailure),
	))
}

func TestUnknownProgramMetrics(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t)
	for i := byte(1); i <= 3; i++ {
		_, err := execute(vm, nil, program.Instruction{ProgramID: ids.ID{'x', i}})
		require.ErrorIs(err, ErrUnsupportedProgramID)
	}

	require.Equal(1, testutil.CollectAndCount(vm.metrics.instructions))
	require.Equal(float64(3), testutil.ToFloat64(
		vm.metrics.instructions.WithLabelValues(unknownProgram, resultFailure),
	))
}

func TestMalformedTransactions(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t)

	_, err := execute(vm, nil)
	require.ErrorIs(err, errEmptyTransaction)

	deposit, err := vault.NewDepositInstruction(testProgramID, alice, 1)
	require.NoError(err)
	_, err = execute(vm, []ids.ID{alice, alice}, deposit)
	require.ErrorIs(err, errDuplicateSigner)

	_, err = execute(vm, nil, program.Instruction{ProgramID: ids.ID{'n', 'o', 'p', 'e'}})
	require.ErrorIs(err, ErrUnsupportedProgramID)

	_, err = execute(vm, nil, program.Instruction{ProgramID: testProgramID, Data: []byte{9}})
	require.ErrorIs(err, vault.ErrMalformedRequest)
}

func TestTransactionID(t *testing.T) {
	require := require.New(t)

	vm := newTestVM(t)
	deposit, err := vault.NewDepositInstruction(testProgramID, alice, 1)
	require.NoError(err)
	tx := &Transaction{Instructions: []program.Instruction{deposit}, Signers: []ids.ID{alice}}

	id1, err := tx.ID(1)
	require.NoError(err)
	id2, err := tx.ID(2)
	require.NoError(err)
	require.NotEqual(id1, id2)

	initialize(t, vm, alice)
	receipt, err := vm.Execute(tx)
	require.NoError(err)
	require.Equal(id2, receipt.TxID)
}
