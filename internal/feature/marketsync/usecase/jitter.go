package usecase

import (
	"crypto/md5"
	"math/big"
)

// IntervalDays returns how many days a symbol's snapshot stays fresh.
//
// The interval is baseDays plus the symbol's MD5 digest, read as an unsigned
// 128-bit integer, modulo spreadDays. The digest is stable across processes
// and machines, so a symbol keeps its slot and refreshes of the whole
// universe spread over spreadDays consecutive days.
func IntervalDays(symbol string, baseDays, spreadDays int) int {
	if spreadDays <= 1 {
		return baseDays
	}
	sum := md5.Sum([]byte(symbol))
	n := new(big.Int).SetBytes(sum[:])
	offset := new(big.Int).Mod(n, big.NewInt(int64(spreadDays)))
	return baseDays + int(offset.Int64())
}
