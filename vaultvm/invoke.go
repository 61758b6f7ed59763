// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/vaultvm/sdk/program"
)

var (
	ErrUnsupportedProgramID = errors.New("unsupported program id")
	ErrCallDepth            = errors.New("cross-program invocation call depth too deep")
	ErrMissingAccount       = errors.New("an account required by the instruction is missing")
	ErrPrivilegeEscalation  = errors.New("cross-program invocation with unauthorized signer or writable account")
	ErrModifiedAccountKey   = errors.New("instruction changed the key of an account")

	_ program.Runtime = &frame{}
)

// txContext is the working set of one transaction. Accounts are loaded once
// and only written back to state if every instruction succeeds.
type txContext struct {
	vm *VM

	signers  map[ids.ID]struct{}
	accounts map[ids.ID]*Account
	// Load order, so that commits are deterministic.
	loaded []ids.ID

	logger log.Logger
	logs   []string
}

func newTxContext(vm *VM, tx *Transaction) *txContext {
	c := &txContext{
		vm:       vm,
		signers:  make(map[ids.ID]struct{}, len(tx.Signers)),
		accounts: make(map[ids.ID]*Account),
	}
	for _, signer := range tx.Signers {
		c.signers[signer] = struct{}{}
	}

	c.logger = log.New()
	c.logger.SetHandler(log.MultiHandler(
		log.FuncHandler(func(r *log.Record) error {
			c.logs = append(c.logs, formatRecord(r))
			return nil
		}),
		log.Root().GetHandler(),
	))
	return c
}

// formatRecord renders [r] as a receipt log line.
func formatRecord(r *log.Record) string {
	var b strings.Builder
	b.WriteString(r.Msg)
	for i := 0; i+1 < len(r.Ctx); i += 2 {
		fmt.Fprintf(&b, " %v=%v", r.Ctx[i], r.Ctx[i+1])
	}
	return b.String()
}

func (c *txContext) account(addr ids.ID) (*Account, error) {
	if account, ok := c.accounts[addr]; ok {
		return account, nil
	}
	account, err := c.vm.state.GetAccount(addr)
	switch {
	case err == database.ErrNotFound:
		account = EmptyAccount()
	case err != nil:
		return nil, err
	}
	c.accounts[addr] = account
	c.loaded = append(c.loaded, addr)
	return account, nil
}

// processInstruction runs a top level instruction against the working set.
func (c *txContext) processInstruction(ix program.Instruction) error {
	entry, ok := c.vm.programs[ix.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedProgramID, program.AddressString(ix.ProgramID))
	}

	// Duplicate metas share one view whose privileges are the union of
	// theirs.
	views := make(map[ids.ID]*program.AccountInfo, len(ix.Accounts))
	infos := make([]*program.AccountInfo, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		if _, signed := c.signers[meta.Key]; meta.IsSigner && !signed {
			return fmt.Errorf("%s: %w", program.AddressString(meta.Key), program.ErrMissingRequiredSignature)
		}
		view, ok := views[meta.Key]
		if !ok {
			account, err := c.account(meta.Key)
			if err != nil {
				return err
			}
			view = toAccountInfo(meta.Key, account)
			views[meta.Key] = view
		}
		view.IsSigner = view.IsSigner || meta.IsSigner
		view.IsWritable = view.IsWritable || meta.IsWritable
		infos[i] = view
	}

	if err := c.execute(1, ix.ProgramID, entry, infos, ix.Data); err != nil {
		return err
	}

	for key, view := range views {
		account := c.accounts[key]
		account.Lamports = view.Lamports
		account.Data = view.Data
		account.Owner = view.Owner
		account.Executable = view.Executable
	}
	return nil
}

// execute runs [entry] in a new frame at [depth] and verifies what it did to
// [infos].
func (c *txContext) execute(depth int, programID ids.ID, entry program.Entrypoint, infos []*program.AccountInfo, data []byte) error {
	name := program.AddressString(programID)
	c.logger.Debug(fmt.Sprintf("Program %s invoke [%d]", name, depth))

	f := &frame{
		tx:        c,
		programID: programID,
		depth:     depth,
		infos:     append([]*program.AccountInfo(nil), infos...),
		metas:     make(map[*program.AccountInfo]program.AccountMeta, len(infos)),
		pre:       snapshot(infos),
	}
	for _, info := range infos {
		f.metas[info] = program.AccountMeta{
			Key:        info.Key,
			IsSigner:   info.IsSigner,
			IsWritable: info.IsWritable,
		}
	}
	err := entry(f, programID, infos, data)
	if err == nil {
		err = f.verify()
	}
	if err != nil {
		c.logger.Debug(fmt.Sprintf("Program %s failed: %s", name, err))
		return err
	}
	c.logger.Debug(fmt.Sprintf("Program %s success", name))
	return nil
}

// frame is the runtime handed to one executing program.
//
// [infos] and [metas] are the host's record of the views the program was
// given. A program can rewrite any field of a view, so keys and privileges
// are always read from [metas].
type frame struct {
	tx        *txContext
	programID ids.ID
	depth     int
	infos     []*program.AccountInfo
	metas     map[*program.AccountInfo]program.AccountMeta
	pre       map[ids.ID]*preAccount
}

func (f *frame) Invoke(ix program.Instruction, accounts []*program.AccountInfo) error {
	return f.InvokeSigned(ix, accounts, nil)
}

func (f *frame) InvokeSigned(ix program.Instruction, accounts []*program.AccountInfo, signerSeeds [][][]byte) error {
	if f.depth >= f.tx.vm.config.MaxInvokeDepth {
		return ErrCallDepth
	}
	entry, ok := f.tx.vm.programs[ix.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedProgramID, program.AddressString(ix.ProgramID))
	}

	// Changes made so far must hold before the callee sees them.
	if err := f.verify(); err != nil {
		return err
	}

	// Only views this frame was handed can be passed on.
	caller := make(map[ids.ID]*program.AccountInfo, len(accounts))
	for _, account := range accounts {
		meta, ok := f.metas[account]
		if !ok {
			return fmt.Errorf("%s: %w", program.AddressString(account.Key), ErrMissingAccount)
		}
		caller[meta.Key] = account
	}
	if _, ok := caller[ix.ProgramID]; !ok {
		return fmt.Errorf("program %s: %w", program.AddressString(ix.ProgramID), ErrMissingAccount)
	}

	derived := make(map[ids.ID]struct{}, len(signerSeeds))
	for _, seeds := range signerSeeds {
		addr, err := program.CreateProgramAddress(seeds, f.programID)
		if err != nil {
			return err
		}
		derived[addr] = struct{}{}
	}

	views := make(map[ids.ID]*program.AccountInfo, len(ix.Accounts))
	infos := make([]*program.AccountInfo, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		from, ok := caller[meta.Key]
		if !ok {
			return fmt.Errorf("%s: %w", program.AddressString(meta.Key), ErrMissingAccount)
		}
		granted := f.metas[from]
		if meta.IsWritable && !granted.IsWritable {
			return fmt.Errorf("%s is read-only: %w", program.AddressString(meta.Key), ErrPrivilegeEscalation)
		}
		if _, ok := derived[meta.Key]; meta.IsSigner && !granted.IsSigner && !ok {
			return fmt.Errorf("%s did not sign: %w", program.AddressString(meta.Key), ErrPrivilegeEscalation)
		}

		view, ok := views[meta.Key]
		if !ok {
			copied := *from
			copied.IsSigner = false
			copied.IsWritable = false
			view = &copied
			views[meta.Key] = view
		}
		view.IsSigner = view.IsSigner || meta.IsSigner
		view.IsWritable = view.IsWritable || meta.IsWritable
		infos[i] = view
	}

	if err := f.tx.execute(f.depth+1, ix.ProgramID, entry, infos, ix.Data); err != nil {
		return err
	}

	// The callee frame already verified its changes, so they become the
	// caller's new baseline.
	for key, view := range views {
		from := caller[key]
		from.Lamports = view.Lamports
		from.Data = view.Data
		from.Owner = view.Owner
		from.Executable = view.Executable
		if pre, ok := f.pre[key]; ok {
			pre.update(view)
		}
	}
	return nil
}

func (f *frame) Rent() program.Rent { return f.tx.vm.config.Rent }

func (f *frame) Log(msg string, ctx ...interface{}) {
	f.tx.logger.Debug("Program log: "+msg, ctx...)
}

// verify checks the frame's accounts against their state on entry.
func (f *frame) verify() error {
	return verifyAccounts(f.programID, f.pre, f.metas, f.infos)
}

func toAccountInfo(key ids.ID, account *Account) *program.AccountInfo {
	return &program.AccountInfo{
		Key:        key,
		Lamports:   account.Lamports,
		Data:       account.Data,
		Owner:      account.Owner,
		Executable: account.Executable,
	}
}
