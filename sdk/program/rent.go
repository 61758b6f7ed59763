// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

const (
	// AccountStorageOverhead is the number of bytes charged for an account
	// on top of its data.
	AccountStorageOverhead uint64 = 128

	DefaultLamportsPerByteYear uint64  = 3480
	DefaultExemptionThreshold  float64 = 2.0
)

// DefaultRent is the rent configuration used when none is supplied.
var DefaultRent = Rent{
	LamportsPerByteYear: DefaultLamportsPerByteYear,
	ExemptionThreshold:  DefaultExemptionThreshold,
}

// Rent describes the minimum balance an account must hold to be exempt from
// rent collection.
type Rent struct {
	LamportsPerByteYear uint64  `json:"lamportsPerByteYear"`
	ExemptionThreshold  float64 `json:"exemptionThreshold"`
}

// MinimumBalance returns the rent-exempt reserve for an account holding
// [dataLen] bytes of data.
func (r Rent) MinimumBalance(dataLen uint64) uint64 {
	bytes := AccountStorageOverhead + dataLen
	return uint64(float64(bytes*r.LamportsPerByteYear) * r.ExemptionThreshold)
}

// IsExempt reports whether [balance] covers the reserve for [dataLen] bytes.
func (r Rent) IsExempt(balance uint64, dataLen uint64) bool {
	return balance >= r.MinimumBalance(dataLen)
}
