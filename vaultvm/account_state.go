// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaultvm

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/cache/metercacher"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
)

const (
	defaultAccountCacheSize = 8192
)

var _ AccountState = &accountState{}

// AccountState stores accounts by address.
type AccountState interface {
	// GetAccount returns a copy of the account at [addr], or
	// database.ErrNotFound.
	GetAccount(addr ids.ID) (*Account, error)
	PutAccount(addr ids.ID, account *Account) error
	DeleteAccount(addr ids.ID) error

	ClearCache()
}

type accountState struct {
	// Caches *Account, or nil for addresses known to be empty.
	accountCache cache.Cacher
	accountDB    database.Database
}

func NewAccountState(db database.Database, cacheSize int, registerer prometheus.Registerer) (AccountState, error) {
	if cacheSize <= 0 {
		cacheSize = defaultAccountCacheSize
	}
	accountCache, err := metercacher.New(
		"account_cache",
		registerer,
		&cache.LRU{Size: cacheSize},
	)
	if err != nil {
		return nil, err
	}
	return &accountState{
		accountCache: accountCache,
		accountDB:    db,
	}, nil
}

func (s *accountState) GetAccount(addr ids.ID) (*Account, error) {
	if accountIntf, ok := s.accountCache.Get(addr); ok {
		if accountIntf == nil {
			return nil, database.ErrNotFound
		}
		return accountIntf.(*Account).clone(), nil
	}

	accountBytes, err := s.accountDB.Get(addr[:])
	if err == database.ErrNotFound {
		s.accountCache.Put(addr, nil)
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	account := &Account{}
	parsedVersion, err := Codec.Unmarshal(accountBytes, account)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errWrongVersion
	}

	s.accountCache.Put(addr, account)
	return account.clone(), nil
}

func (s *accountState) PutAccount(addr ids.ID, account *Account) error {
	bytes, err := Codec.Marshal(CodecVersion, account)
	if err != nil {
		return err
	}

	s.accountCache.Put(addr, account.clone())
	return s.accountDB.Put(addr[:], bytes)
}

func (s *accountState) DeleteAccount(addr ids.ID) error {
	s.accountCache.Put(addr, nil)
	return s.accountDB.Delete(addr[:])
}

func (s *accountState) ClearCache() {
	s.accountCache.Flush()
}
