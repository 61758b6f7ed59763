// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package system implements the native program that creates accounts and
// moves lamports between accounts it owns.
package system

import (
	"encoding/binary"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/vaultvm/sdk/program"
)

// ID of the system program. Accounts that were never created are owned by it.
var ID = ids.Empty

// InstructionType is the 4 byte little endian tag leading every system
// instruction.
type InstructionType uint32

const (
	InstructionCreateAccount InstructionType = 0
	InstructionTransfer      InstructionType = 2
)

const (
	tagLen               = wrappers.IntLen
	createAccountDataLen = tagLen + wrappers.LongLen*2 + 32
	transferDataLen      = tagLen + wrappers.LongLen

	// MaxPermittedDataLength caps the space of a created account.
	MaxPermittedDataLength uint64 = 10 * 1024 * 1024
)

func (t InstructionType) String() string {
	switch t {
	case InstructionCreateAccount:
		return "CreateAccount"
	case InstructionTransfer:
		return "Transfer"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(t))
	}
}

// CreateAccountArgs is the payload of a CreateAccount instruction.
type CreateAccountArgs struct {
	Lamports uint64
	Space    uint64
	Owner    ids.ID
}

// TransferArgs is the payload of a Transfer instruction.
type TransferArgs struct {
	Lamports uint64
}

// CreateAccount returns an instruction creating [to] with [space] bytes of
// data, funded with [lamports] from [from] and assigned to [owner].
// Both [from] and [to] must sign; a derived [to] signs through its seeds.
func CreateAccount(from, to ids.ID, lamports, space uint64, owner ids.ID) program.Instruction {
	data := make([]byte, createAccountDataLen)
	binary.LittleEndian.PutUint32(data, uint32(InstructionCreateAccount))
	binary.LittleEndian.PutUint64(data[tagLen:], lamports)
	binary.LittleEndian.PutUint64(data[tagLen+wrappers.LongLen:], space)
	copy(data[tagLen+wrappers.LongLen*2:], owner[:])
	return program.Instruction{
		ProgramID: ID,
		Accounts: []program.AccountMeta{
			program.NewAccountMeta(from, true),
			program.NewAccountMeta(to, true),
		},
		Data: data,
	}
}

// Transfer returns an instruction moving [lamports] from [from] to [to].
func Transfer(from, to ids.ID, lamports uint64) program.Instruction {
	data := make([]byte, transferDataLen)
	binary.LittleEndian.PutUint32(data, uint32(InstructionTransfer))
	binary.LittleEndian.PutUint64(data[tagLen:], lamports)
	return program.Instruction{
		ProgramID: ID,
		Accounts: []program.AccountMeta{
			program.NewAccountMeta(from, true),
			program.NewAccountMeta(to, false),
		},
		Data: data,
	}
}

// parseInstruction splits [data] into its tag and decoded payload.
func parseInstruction(data []byte) (InstructionType, interface{}, error) {
	if len(data) < tagLen {
		return 0, nil, program.ErrInvalidInstructionData
	}
	kind := InstructionType(binary.LittleEndian.Uint32(data))
	switch kind {
	case InstructionCreateAccount:
		if len(data) < createAccountDataLen {
			return kind, nil, program.ErrInvalidInstructionData
		}
		args := &CreateAccountArgs{
			Lamports: binary.LittleEndian.Uint64(data[tagLen:]),
			Space:    binary.LittleEndian.Uint64(data[tagLen+wrappers.LongLen:]),
		}
		copy(args.Owner[:], data[tagLen+wrappers.LongLen*2:createAccountDataLen])
		return kind, args, nil
	case InstructionTransfer:
		if len(data) < transferDataLen {
			return kind, nil, program.ErrInvalidInstructionData
		}
		return kind, &TransferArgs{Lamports: binary.LittleEndian.Uint64(data[tagLen:])}, nil
	default:
		return kind, nil, program.ErrInvalidInstructionData
	}
}
