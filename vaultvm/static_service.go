// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/vaultvm/vault"
)

// StaticService encodes and decodes vault instructions without touching
// any vm state
type StaticService struct{}

// CreateStaticService ...
func CreateStaticService() *StaticService {
	return &StaticService{}
}

// EncodeInstructionArgs are arguments for EncodeInstruction
type EncodeInstructionArgs struct {
	// Kind is InitializeAccount, Deposit or Withdraw
	Kind   string      `json:"kind"`
	Amount json.Uint64 `json:"amount"`
}

// EncodeInstructionReply is the reply from EncodeInstruction
type EncodeInstructionReply struct {
	Bytes string `json:"bytes"`
}

// EncodeInstruction returns the hex encoded instruction data
func (ss *StaticService) EncodeInstruction(_ *http.Request, args *EncodeInstructionArgs, reply *EncodeInstructionReply) error {
	kind, err := vault.KindFromString(args.Kind)
	if err != nil {
		return err
	}
	ix := vault.Instruction{Kind: kind, Amount: uint64(args.Amount)}
	bytes, err := formatting.EncodeWithChecksum(formatting.Hex, ix.Bytes())
	if err != nil {
		return fmt.Errorf("couldn't encode instruction as string: %s", err)
	}
	reply.Bytes = bytes
	return nil
}

// DecodeInstructionArgs are arguments for DecodeInstruction
type DecodeInstructionArgs struct {
	Bytes string `json:"bytes"`
}

// DecodeInstructionReply is the reply from DecodeInstruction
type DecodeInstructionReply struct {
	Kind   string      `json:"kind"`
	Amount json.Uint64 `json:"amount"`
}

// DecodeInstruction parses hex encoded instruction data
func (ss *StaticService) DecodeInstruction(_ *http.Request, args *DecodeInstructionArgs, reply *DecodeInstructionReply) error {
	bytes, err := formatting.Decode(formatting.Hex, args.Bytes)
	if err != nil {
		return fmt.Errorf("couldn't decode data as string: %s", err)
	}
	ix, err := vault.ParseInstruction(bytes)
	if err != nil {
		return err
	}
	reply.Kind = ix.Kind.String()
	reply.Amount = json.Uint64(ix.Amount)
	return nil
}
