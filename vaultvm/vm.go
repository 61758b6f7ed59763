// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/rpc/v2"
	"github.com/prometheus/client_golang/prometheus"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/vaultvm/sdk/program"
	"github.com/ava-labs/vaultvm/sdk/system"
)

const (
	Name = "vault"

	// Lamports held by every program account created at genesis.
	programAccountLamports = 1
)

var (
	// Version is reported by the node binary and the service.
	Version = "v0.1.0"

	// LoaderID owns the executable program accounts.
	LoaderID = ids.ID{'l', 'o', 'a', 'd', 'e', 'r'}

	errNotInitialized     = errors.New("vm not initialized")
	errProgramRegistered  = errors.New("program already registered")
	errReservedProgramID  = errors.New("program id is reserved")
	errGenesisProgramAddr = errors.New("genesis funds a program account")
)

// VM hosts programs over a persistent account ledger. Transactions are
// executed one at a time and either fully applied or not at all.
type VM struct {
	lock sync.Mutex

	config   Config
	state    State
	metrics  *metrics
	programs map[ids.ID]program.Entrypoint
}

// New returns a VM with only the system program registered.
func New() *VM {
	return &VM{
		programs: map[ids.ID]program.Entrypoint{
			system.ID: system.Process,
		},
	}
}

// RegisterProgram deploys [entry] at [programID]. Programs must be
// registered before Initialize so that genesis creates their accounts.
func (vm *VM) RegisterProgram(programID ids.ID, entry program.Entrypoint) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if programID == system.ID || programID == LoaderID {
		return errReservedProgramID
	}
	if _, ok := vm.programs[programID]; ok {
		return fmt.Errorf("%w: %s", errProgramRegistered, program.AddressString(programID))
	}
	vm.programs[programID] = entry
	return nil
}

// Initialize this vm
// [db] is this vm's database
// [genesisBytes] is the JSON genesis applied the first time [db] is used
// [registerer] receives the vm's metrics
func (vm *VM) Initialize(
	db database.Database,
	genesisBytes []byte,
	config Config,
	registerer prometheus.Registerer,
) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	log.Info("Initializing Vault VM", "Version", Version, "program", program.AddressString(config.ProgramID))

	if config.Rent == (program.Rent{}) {
		config.Rent = program.DefaultRent
	}
	if config.MaxInvokeDepth <= 0 {
		config.MaxInvokeDepth = DefaultMaxInvokeDepth
	}
	vm.config = config

	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	m, err := newMetrics(Name, registerer)
	if err != nil {
		return err
	}
	vm.metrics = m

	vm.state, err = NewState(db, config.AccountCacheSize, registerer)
	if err != nil {
		return err
	}

	initialized, err := vm.state.IsInitialized()
	if err != nil {
		return err
	}
	if initialized {
		return nil
	}
	if err := vm.initGenesis(genesisBytes); err != nil {
		vm.state.Abort()
		log.Error("error while applying genesis", "err", err)
		return err
	}
	return nil
}

func (vm *VM) initGenesis(genesisBytes []byte) error {
	genesis, err := ParseGenesis(genesisBytes)
	if err != nil {
		return err
	}
	allocations, err := genesis.Allocations()
	if err != nil {
		return err
	}

	for programID := range vm.programs {
		if _, ok := allocations[programID]; ok {
			return fmt.Errorf("%w: %s", errGenesisProgramAddr, program.AddressString(programID))
		}
		if err := vm.state.PutAccount(programID, &Account{
			Lamports:   programAccountLamports,
			Owner:      LoaderID,
			Executable: true,
		}); err != nil {
			return err
		}
	}
	for addr, lamports := range allocations {
		if lamports == 0 {
			continue
		}
		if err := vm.state.PutAccount(addr, &Account{
			Lamports: lamports,
			Owner:    system.ID,
		}); err != nil {
			return err
		}
	}

	if err := vm.state.SetInitialized(); err != nil {
		return fmt.Errorf("error while setting db to initialized: %w", err)
	}
	// Flush VM's database to underlying db
	return vm.state.Commit()
}

// Execute runs [tx] and, if every instruction succeeds, commits its effects
// and returns its receipt. On failure nothing is written.
func (vm *VM) Execute(tx *Transaction) (*Receipt, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.state == nil {
		return nil, errNotInitialized
	}

	receipt, err := vm.execute(tx)
	if err != nil {
		vm.state.Abort()
		vm.metrics.txRejected.Inc()
		log.Debug("transaction rejected", "err", err)
		return nil, err
	}
	vm.metrics.txAccepted.Inc()
	log.Debug("transaction accepted", "txID", receipt.TxID, "height", receipt.Height)
	return receipt, nil
}

func (vm *VM) execute(tx *Transaction) (*Receipt, error) {
	if err := tx.Verify(); err != nil {
		return nil, err
	}
	_, lastHeight, err := vm.state.GetLastAccepted()
	if err != nil {
		return nil, err
	}
	height := lastHeight + 1
	txID, err := tx.ID(height)
	if err != nil {
		return nil, err
	}

	c := newTxContext(vm, tx)
	for i, ix := range tx.Instructions {
		err := c.processInstruction(ix)
		_, registered := vm.programs[ix.ProgramID]
		vm.metrics.instruction(ix.ProgramID, registered, err)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
	}

	// Accounts drained to zero are removed from the ledger.
	for _, addr := range c.loaded {
		account := c.accounts[addr]
		if account.Lamports == 0 {
			if err := vm.state.DeleteAccount(addr); err != nil {
				return nil, err
			}
			continue
		}
		if err := vm.state.PutAccount(addr, account); err != nil {
			return nil, err
		}
	}

	receipt := &Receipt{
		TxID:   txID,
		Height: height,
		Logs:   c.logs,
	}
	if err := vm.state.PutReceipt(receipt); err != nil {
		return nil, err
	}
	if err := vm.state.SetLastAccepted(txID, height); err != nil {
		return nil, err
	}
	return receipt, vm.state.Commit()
}

// GetAccount returns the account at [addr]. Unused addresses read as an
// empty system-owned account.
func (vm *VM) GetAccount(addr ids.ID) (*Account, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.state == nil {
		return nil, errNotInitialized
	}
	account, err := vm.state.GetAccount(addr)
	if err == database.ErrNotFound {
		return EmptyAccount(), nil
	}
	return account, err
}

// SetAccount overwrites the account at [addr] outside of any transaction.
func (vm *VM) SetAccount(addr ids.ID, account *Account) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.state == nil {
		return errNotInitialized
	}
	if err := vm.state.PutAccount(addr, account); err != nil {
		vm.state.Abort()
		return err
	}
	return vm.state.Commit()
}

// GetReceipt returns the receipt of the accepted transaction [txID].
func (vm *VM) GetReceipt(txID ids.ID) (*Receipt, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.state == nil {
		return nil, errNotInitialized
	}
	return vm.state.GetReceipt(txID)
}

// LastAccepted returns the id and height of the last accepted transaction.
func (vm *VM) LastAccepted() (ids.ID, uint64, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.state == nil {
		return ids.Empty, 0, errNotInitialized
	}
	return vm.state.GetLastAccepted()
}

// Rent returns the rent parameters in effect.
func (vm *VM) Rent() program.Rent { return vm.config.Rent }

// ProgramID returns the address of the vault program.
func (vm *VM) ProgramID() ids.ID { return vm.config.ProgramID }

// Shutdown closes the ledger.
func (vm *VM) Shutdown() error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.state == nil {
		return nil
	}
	return vm.state.Close()
}

// CreateHandlers returns a map where:
// Keys: The path extension for this VM's API (empty in this case)
// Values: The handler for the API
func (vm *VM) CreateHandlers() (map[string]http.Handler, error) {
	server := newServer()
	return map[string]http.Handler{
		"": server,
	}, server.RegisterService(&Service{vm: vm}, Name)
}

// CreateStaticHandlers returns a map where:
// Keys: The path extension for this VM's static API
// Values: The handler for that static API
func (vm *VM) CreateStaticHandlers() (map[string]http.Handler, error) {
	server := newServer()
	return map[string]http.Handler{
		"": server,
	}, server.RegisterService(CreateStaticService(), Name)
}

func newServer() *rpc.Server {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return server
}
