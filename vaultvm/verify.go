// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	safemath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/vaultvm/sdk/program"
)

var (
	ErrReadonlyLamportChange       = errors.New("instruction changed the balance of a read-only account")
	ErrReadonlyDataModified        = errors.New("instruction modified data of a read-only account")
	ErrExternalAccountLamportSpend = errors.New("instruction spent from the balance of an account it does not own")
	ErrExternalAccountDataModified = errors.New("instruction modified data of an account it does not own")
	ErrModifiedProgramID           = errors.New("instruction illegally modified the program id of an account")
	ErrExecutableModified          = errors.New("instruction changed executable bit of an account")
	ErrUnbalancedInstruction       = errors.New("sum of account balances before and after instruction do not match")
)

// preAccount is an account as a frame first saw it.
type preAccount struct {
	lamports   uint64
	data       []byte
	owner      ids.ID
	executable bool
}

func newPreAccount(info *program.AccountInfo) *preAccount {
	pre := &preAccount{}
	pre.update(info)
	return pre
}

func (p *preAccount) update(info *program.AccountInfo) {
	p.lamports = info.Lamports
	p.data = append(p.data[:0], info.Data...)
	p.owner = info.Owner
	p.executable = info.Executable
}

// snapshot records the state of every distinct account in [infos].
func snapshot(infos []*program.AccountInfo) map[ids.ID]*preAccount {
	pre := make(map[ids.ID]*preAccount, len(infos))
	for _, info := range infos {
		if _, ok := pre[info.Key]; !ok {
			pre[info.Key] = newPreAccount(info)
		}
	}
	return pre
}

// verify checks the change from [p] to [post] is one [programID] may make.
// [writable] is the privilege the host granted, whatever [post] claims.
func (p *preAccount) verify(programID ids.ID, writable bool, post *program.AccountInfo) error {
	if p.executable != post.Executable {
		return ErrExecutableModified
	}

	if p.owner != post.Owner && (!writable || p.owner != programID) {
		return ErrModifiedProgramID
	}

	if p.lamports != post.Lamports {
		if !writable {
			return ErrReadonlyLamportChange
		}
		if post.Lamports < p.lamports && p.owner != programID {
			return ErrExternalAccountLamportSpend
		}
	}

	if !bytes.Equal(p.data, post.Data) {
		if !writable {
			return ErrReadonlyDataModified
		}
		if p.owner != programID {
			return ErrExternalAccountDataModified
		}
	}
	return nil
}

// verifyAccounts checks every account [programID] touched and that no
// lamports were created or destroyed. [metas] holds the key and privileges
// the host issued with each view in [infos].
func verifyAccounts(
	programID ids.ID,
	pre map[ids.ID]*preAccount,
	metas map[*program.AccountInfo]program.AccountMeta,
	infos []*program.AccountInfo,
) error {
	var (
		preTotal, postTotal uint64
		err                 error
		seen                = make(map[ids.ID]struct{}, len(pre))
	)
	for _, info := range infos {
		meta, ok := metas[info]
		if !ok {
			return fmt.Errorf("%s: %w", program.AddressString(info.Key), ErrMissingAccount)
		}
		if info.Key != meta.Key {
			return fmt.Errorf("%s: %w", program.AddressString(meta.Key), ErrModifiedAccountKey)
		}
		if _, ok := seen[meta.Key]; ok {
			continue
		}
		seen[meta.Key] = struct{}{}

		before, ok := pre[meta.Key]
		if !ok {
			return fmt.Errorf("%s: %w", program.AddressString(meta.Key), ErrMissingAccount)
		}
		if err := before.verify(programID, meta.IsWritable, info); err != nil {
			return fmt.Errorf("%s: %w", program.AddressString(meta.Key), err)
		}
		if preTotal, err = safemath.Add64(preTotal, before.lamports); err != nil {
			return ErrUnbalancedInstruction
		}
		if postTotal, err = safemath.Add64(postTotal, info.Lamports); err != nil {
			return ErrUnbalancedInstruction
		}
	}
	if preTotal != postTotal {
		return ErrUnbalancedInstruction
	}
	return nil
}
