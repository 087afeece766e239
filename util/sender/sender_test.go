package sender_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/ensprefs/util/account"
	"github.com/tranvictor/ensprefs/util/sender"
)

const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type fakeChain struct {
	nonce   uint64
	gas     uint64
	price   float64
	tip     float64
	gasErr  error
	estFrom common.Address
}

func (f *fakeChain) EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	f.estFrom = from
	return f.gas, f.gasErr
}

func (f *fakeChain) GetPendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeChain) SuggestedGasSettings(ctx context.Context) (float64, float64, error) {
	return f.price, f.tip, nil
}

type fakeBroadcaster struct {
	sent []*types.Transaction
	ok   bool
	err  error
}

func (f *fakeBroadcaster) BroadcastTx(ctx context.Context, tx *types.Transaction) (common.Hash, bool, error) {
	f.sent = append(f.sent, tx)
	return tx.Hash(), f.ok, f.err
}

func newSigner(t *testing.T) *account.KeySigner {
	s, err := account.NewHexSigner(testKey)
	require.NoError(t, err)
	return s
}

func TestSubmitBuildsSignedDynamicFeeTx(t *testing.T) {
	chain := &fakeChain{nonce: 4, gas: 100000, price: 30, tip: 2}
	b := &fakeBroadcaster{ok: true}
	signer := newSigner(t)
	s := sender.NewTxSender(chain, signer, b, 11155111, nil)

	to := common.HexToAddress("0x231b0Ee14048e9dCcD1d247744d114a4EB5E8E63")
	hash, err := s.Submit(context.Background(), to, []byte{0xac, 0x96, 0x50, 0xd8})
	require.NoError(t, err)
	require.Len(t, b.sent, 1)

	tx := b.sent[0]
	require.Equal(t, hash, tx.Hash())
	require.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	require.Equal(t, uint64(4), tx.Nonce())
	require.Equal(t, uint64(120000), tx.Gas())
	require.Equal(t, to, *tx.To())
	require.Equal(t, signer.Address(), chain.estFrom)

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(11155111)), tx)
	require.NoError(t, err)
	require.Equal(t, signer.Address(), from)
}

func TestSubmitLegacyWithoutTip(t *testing.T) {
	b := &fakeBroadcaster{ok: true}
	s := sender.NewTxSender(&fakeChain{gas: 50000, price: 5}, newSigner(t), b, 1, nil)
	_, err := s.Submit(context.Background(), common.Address{1}, nil)
	require.NoError(t, err)
	require.Equal(t, uint8(types.LegacyTxType), b.sent[0].Type())
}

func TestSubmitFailsOnEstimateError(t *testing.T) {
	b := &fakeBroadcaster{ok: true}
	s := sender.NewTxSender(&fakeChain{gasErr: errors.New("execution reverted")}, newSigner(t), b, 1, nil)
	_, err := s.Submit(context.Background(), common.Address{1}, nil)
	require.ErrorContains(t, err, "execution reverted")
	require.Empty(t, b.sent)
}

func TestSubmitFailsWhenNoNodeAccepts(t *testing.T) {
	b := &fakeBroadcaster{ok: false, err: errors.New("nonce too low")}
	s := sender.NewTxSender(&fakeChain{gas: 50000, price: 5}, newSigner(t), b, 1, nil)
	_, err := s.Submit(context.Background(), common.Address{1}, nil)
	require.ErrorContains(t, err, "nonce too low")
}
