// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"encoding/binary"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/vaultvm/sdk/program"
	"github.com/ava-labs/vaultvm/sdk/system"
)

// Kind tags an instruction. It is the first byte on the wire.
type Kind byte

const (
	KindInitializeAccount Kind = 0
	KindDeposit           Kind = 1
	KindWithdraw          Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindInitializeAccount:
		return "InitializeAccount"
	case KindDeposit:
		return "Deposit"
	case KindWithdraw:
		return "Withdraw"
	default:
		return fmt.Sprintf("Unknown(%d)", byte(k))
	}
}

// KindFromString parses the name returned by Kind.String.
func KindFromString(s string) (Kind, error) {
	for _, k := range []Kind{KindInitializeAccount, KindDeposit, KindWithdraw} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown instruction kind %q", s)
}

// Instruction is a decoded vault request. Amount is only meaningful for
// Deposit and Withdraw.
type Instruction struct {
	Kind   Kind
	Amount uint64
}

// ParseInstruction decodes [data].
//
// Layout: 1 byte kind, followed for Deposit and Withdraw by an 8 byte little
// endian amount. Trailing bytes are ignored.
func ParseInstruction(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return Instruction{}, ErrMalformedRequest
	}
	kind, rest := Kind(data[0]), data[1:]
	switch kind {
	case KindInitializeAccount:
		return Instruction{Kind: kind}, nil
	case KindDeposit, KindWithdraw:
		if len(rest) < wrappers.LongLen {
			return Instruction{}, ErrMalformedRequest
		}
		return Instruction{Kind: kind, Amount: binary.LittleEndian.Uint64(rest)}, nil
	default:
		return Instruction{}, ErrMalformedRequest
	}
}

// Bytes returns the wire encoding of [ix].
func (ix Instruction) Bytes() []byte {
	if ix.Kind == KindInitializeAccount {
		return []byte{byte(ix.Kind)}
	}
	data := make([]byte, 1+wrappers.LongLen)
	data[0] = byte(ix.Kind)
	binary.LittleEndian.PutUint64(data[1:], ix.Amount)
	return data
}

// NewInitializeAccountInstruction builds the instruction creating the vault
// of [user].
func NewInitializeAccountInstruction(programID, user ids.ID) (program.Instruction, error) {
	vault, _, err := DeriveAddress(user, programID)
	if err != nil {
		return program.Instruction{}, err
	}
	return program.Instruction{
		ProgramID: programID,
		Accounts: []program.AccountMeta{
			program.NewAccountMeta(user, true),
			program.NewAccountMeta(vault, false),
			program.NewReadonlyAccountMeta(system.ID, false),
		},
		Data: Instruction{Kind: KindInitializeAccount}.Bytes(),
	}, nil
}

// NewDepositInstruction builds the instruction moving [amount] from [user]
// into its vault.
func NewDepositInstruction(programID, user ids.ID, amount uint64) (program.Instruction, error) {
	vault, _, err := DeriveAddress(user, programID)
	if err != nil {
		return program.Instruction{}, err
	}
	return program.Instruction{
		ProgramID: programID,
		Accounts: []program.AccountMeta{
			program.NewAccountMeta(user, true),
			program.NewAccountMeta(vault, false),
			program.NewReadonlyAccountMeta(system.ID, false),
		},
		Data: Instruction{Kind: KindDeposit, Amount: amount}.Bytes(),
	}, nil
}

// NewWithdrawInstruction builds the instruction moving [amount] from the
// vault of [user] back to [user].
func NewWithdrawInstruction(programID, user ids.ID, amount uint64) (program.Instruction, error) {
	vault, _, err := DeriveAddress(user, programID)
	if err != nil {
		return program.Instruction{}, err
	}
	return program.Instruction{
		ProgramID: programID,
		Accounts: []program.AccountMeta{
			program.NewAccountMeta(user, false),
			program.NewAccountMeta(vault, false),
		},
		Data: Instruction{Kind: KindWithdraw, Amount: amount}.Bytes(),
	}, nil
}
