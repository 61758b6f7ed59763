// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRentMinimumBalance(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint64(890_880), DefaultRent.MinimumBalance(0))
	assert.Equal(uint64(1_113_600), DefaultRent.MinimumBalance(32))

	rent := Rent{LamportsPerByteYear: 10, ExemptionThreshold: 1}
	assert.Equal(uint64(1280), rent.MinimumBalance(0))

	assert.True(DefaultRent.IsExempt(890_880, 0))
	assert.False(DefaultRent.IsExempt(890_879, 0))
}

func TestAccountIterator(t *testing.T) {
	assert := assert.New(t)

	a, b := &AccountInfo{Key: [32]byte{1}}, &AccountInfo{Key: [32]byte{2}}
	it := NewAccountIterator([]*AccountInfo{a, b})

	got, err := it.Next()
	assert.NoError(err)
	assert.Same(a, got)

	got, err = it.Next()
	assert.NoError(err)
	assert.Same(b, got)

	_, err = it.Next()
	assert.ErrorIs(err, ErrNotEnoughAccountKeys)
}
