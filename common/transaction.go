package common

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// RawTxToHash returns the transaction hash of a hex encoded signed tx.
func RawTxToHash(data string) string {
	return crypto.Keccak256Hash(hexutil.MustDecode(data)).Hex()
}

// BuildExactTx builds an unsigned contract call. A zero tipGwei builds a
// legacy tx, anything else a dynamic fee tx.
func BuildExactTx(
	nonce uint64,
	to common.Address,
	value *big.Int,
	gasLimit uint64,
	priceGwei float64,
	tipGwei float64,
	data []byte,
	chainID uint64,
) *types.Transaction {
	if value == nil {
		value = big.NewInt(0)
	}
	gasPrice := GweiToWei(priceGwei)
	if tipGwei > 0 {
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   new(big.Int).SetUint64(chainID),
			Nonce:     nonce,
			GasTipCap: GweiToWei(tipGwei),
			GasFeeCap: gasPrice,
			Gas:       gasLimit,
			To:        &to,
			Value:     value,
			Data:      data,
		})
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    value,
		Data:     data,
	})
}
