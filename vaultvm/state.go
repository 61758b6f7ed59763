// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	singletonStatePrefix = []byte("singleton")
	accountStatePrefix   = []byte("account")
	receiptStatePrefix   = []byte("receipt")

	_ State = &state{}
)

// State is a wrapper around SingletonState, AccountState and ReceiptState.
// State also exposes a few methods needed for managing database commits and close.
type State interface {
	SingletonState
	AccountState
	ReceiptState

	// Commit flushes pending writes to the underlying database.
	Commit() error
	// Abort drops pending writes.
	Abort()
	Close() error
}

type state struct {
	SingletonState
	AccountState
	ReceiptState

	baseDB *versiondb.Database
}

// NewState returns the ledger stored in [db]. Account cache metrics are
// registered on [registerer].
func NewState(db database.Database, cacheSize int, registerer prometheus.Registerer) (State, error) {
	// create a new baseDB
	baseDB := versiondb.New(db)

	singletonDB := prefixdb.New(singletonStatePrefix, baseDB)
	accountDB := prefixdb.New(accountStatePrefix, baseDB)
	receiptDB := prefixdb.New(receiptStatePrefix, baseDB)

	accountState, err := NewAccountState(accountDB, cacheSize, registerer)
	if err != nil {
		return nil, err
	}

	return &state{
		SingletonState: NewSingletonState(singletonDB),
		AccountState:   accountState,
		ReceiptState:   NewReceiptState(receiptDB),
		baseDB:         baseDB,
	}, nil
}

// Commit commits pending operations to baseDB
func (s *state) Commit() error {
	return s.baseDB.Commit()
}

// Abort discards pending operations. Cached accounts may reflect the
// discarded writes, so the cache is dropped too.
func (s *state) Abort() {
	s.baseDB.Abort()
	s.AccountState.ClearCache()
}

// Close closes the underlying base database
func (s *state) Close() error {
	return s.baseDB.Close()
}
