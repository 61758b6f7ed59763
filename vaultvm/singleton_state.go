// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
)

const (
	IsInitializedKey byte = iota
	LastAcceptedKey
)

var (
	isInitializedKey = []byte{IsInitializedKey}
	lastAcceptedKey  = []byte{LastAcceptedKey}

	errWrongVersion = errors.New("wrong codec version")

	_ SingletonState = (*singletonState)(nil)
)

// SingletonState is a thin wrapper around a database to provide
// serialization, and de-serialization of the chain wide values: the
// initialization status and the last accepted transaction.
type SingletonState interface {
	IsInitialized() (bool, error)
	SetInitialized() error

	// GetLastAccepted returns the last accepted transaction and its height.
	// Before any transaction is accepted it returns ids.Empty at height 0.
	GetLastAccepted() (ids.ID, uint64, error)
	SetLastAccepted(txID ids.ID, height uint64) error
}

type lastAccepted struct {
	TxID   ids.ID `serialize:"true"`
	Height uint64 `serialize:"true"`
}

type singletonState struct {
	singletonDB database.Database
}

func NewSingletonState(db database.Database) SingletonState {
	return &singletonState{
		singletonDB: db,
	}
}

func (s *singletonState) IsInitialized() (bool, error) {
	return s.singletonDB.Has(isInitializedKey)
}

func (s *singletonState) SetInitialized() error {
	return s.singletonDB.Put(isInitializedKey, nil)
}

func (s *singletonState) GetLastAccepted() (ids.ID, uint64, error) {
	b, err := s.singletonDB.Get(lastAcceptedKey)
	if errors.Is(err, database.ErrNotFound) {
		return ids.Empty, 0, nil
	}
	if err != nil {
		return ids.Empty, 0, err
	}
	la := lastAccepted{}
	parsedVersion, err := Codec.Unmarshal(b, &la)
	if err != nil {
		return ids.Empty, 0, err
	}
	if parsedVersion != CodecVersion {
		return ids.Empty, 0, errWrongVersion
	}
	return la.TxID, la.Height, nil
}

func (s *singletonState) SetLastAccepted(txID ids.ID, height uint64) error {
	b, err := Codec.Marshal(CodecVersion, &lastAccepted{TxID: txID, Height: height})
	if err != nil {
		return err
	}
	return s.singletonDB.Put(lastAcceptedKey, b)
}
