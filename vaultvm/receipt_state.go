// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
)

var _ ReceiptState = &receiptState{}

// ReceiptState stores the receipts of accepted transactions.
type ReceiptState interface {
	GetReceipt(txID ids.ID) (*Receipt, error)
	PutReceipt(receipt *Receipt) error
}

type receiptState struct {
	receiptDB database.Database
}

func NewReceiptState(db database.Database) ReceiptState {
	return &receiptState{receiptDB: db}
}

func (s *receiptState) GetReceipt(txID ids.ID) (*Receipt, error) {
	receiptBytes, err := s.receiptDB.Get(txID[:])
	if err != nil {
		return nil, err
	}
	receipt := &Receipt{}
	parsedVersion, err := Codec.Unmarshal(receiptBytes, receipt)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errWrongVersion
	}
	return receipt, nil
}

func (s *receiptState) PutReceipt(receipt *Receipt) error {
	bytes, err := Codec.Marshal(CodecVersion, receipt)
	if err != nil {
		return err
	}
	return s.receiptDB.Put(receipt.TxID[:], bytes)
}
