package account_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/ensprefs/util/account"
)

// well known hardhat account #0
const (
	testKey  = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestHexSignerAddress(t *testing.T) {
	s, err := account.NewHexSigner(testKey)
	require.NoError(t, err)
	require.Equal(t, testAddr, s.Address().Hex())

	s, err = account.NewHexSigner(testKey[2:])
	require.NoError(t, err)
	require.Equal(t, testAddr, s.Address().Hex())
}

func TestHexSignerRejectsGarbage(t *testing.T) {
	_, err := account.NewHexSigner("0xnotakey")
	require.Error(t, err)
}

func TestSignTxRecoversSender(t *testing.T) {
	s, err := account.NewHexSigner(testKey)
	require.NoError(t, err)

	chainID := big.NewInt(11155111)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     7,
		Gas:       60000,
		GasFeeCap: big.NewInt(2e9),
		GasTipCap: big.NewInt(1e9),
	})
	signed, err := s.SignTx(tx, chainID)
	require.NoError(t, err)

	from, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	require.Equal(t, s.Address(), from)
}
