// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"encoding/binary"
	"errors"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/vaultvm/sdk/program"
	"github.com/ava-labs/vaultvm/sdk/system"
)

var (
	errEmptyTransaction = errors.New("transaction has no instructions")
	errDuplicateSigner  = errors.New("transaction lists a signer twice")
)

// Account is the persisted state of an address.
// A missing account reads as an empty, system-owned account.
type Account struct {
	Lamports   uint64 `serialize:"true" json:"lamports"`
	Data       []byte `serialize:"true" json:"data"`
	Owner      ids.ID `serialize:"true" json:"owner"`
	Executable bool   `serialize:"true" json:"executable"`
}

// EmptyAccount returns the account every unused address holds.
func EmptyAccount() *Account {
	return &Account{Owner: system.ID}
}

func (a *Account) clone() *Account {
	c := *a
	if a.Data != nil {
		c.Data = append([]byte(nil), a.Data...)
	}
	return &c
}

// Transaction is an ordered list of instructions executed atomically.
//
// Signers are the addresses that authorized the transaction. The host trusts
// this list; authenticating it is the job of whatever submits transactions.
type Transaction struct {
	Instructions []program.Instruction `serialize:"true" json:"instructions"`
	Signers      []ids.ID              `serialize:"true" json:"signers"`
}

// Verify checks the transaction is well formed.
func (tx *Transaction) Verify() error {
	if len(tx.Instructions) == 0 {
		return errEmptyTransaction
	}
	seen := make(map[ids.ID]struct{}, len(tx.Signers))
	for _, signer := range tx.Signers {
		if _, ok := seen[signer]; ok {
			return errDuplicateSigner
		}
		seen[signer] = struct{}{}
	}
	return nil
}

// Bytes returns the canonical encoding of [tx].
func (tx *Transaction) Bytes() ([]byte, error) {
	return Codec.Marshal(CodecVersion, tx)
}

// ID returns the identifier [tx] gets when accepted at [height]. The height
// is mixed in so that resubmitting the same instructions yields a new id.
func (tx *Transaction) ID(height uint64) (ids.ID, error) {
	txBytes, err := tx.Bytes()
	if err != nil {
		return ids.Empty, err
	}
	buf := make([]byte, wrappers.LongLen+len(txBytes))
	binary.BigEndian.PutUint64(buf, height)
	copy(buf[wrappers.LongLen:], txBytes)
	return ids.ID(hashing.ComputeHash256Array(buf)), nil
}

// Receipt records an accepted transaction.
type Receipt struct {
	TxID   ids.ID   `serialize:"true" json:"txID"`
	Height uint64   `serialize:"true" json:"height"`
	Logs   []string `serialize:"true" json:"logs"`
}
