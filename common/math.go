package common

import (
	"math/big"
)

var gwei = big.NewFloat(1e9)

// GweiToWei converts a gwei amount from the nodes' gas suggestions to wei,
// truncating anything below one wei.
func GweiToWei(n float64) *big.Int {
	wei, _ := new(big.Float).Mul(big.NewFloat(n), gwei).Int(nil)
	return wei
}

// BigToFloat scales b down by 10^decimal, e.g. BigToFloat(1100, 3) = 1.1.
func BigToFloat(b *big.Int, decimal uint64) float64 {
	power := new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(decimal), nil)
	result, _ := new(big.Float).Quo(new(big.Float).SetInt(b), new(big.Float).SetInt(power)).Float64()
	return result
}
