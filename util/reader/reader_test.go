package reader_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	jarviscommon "github.com/tranvictor/ensprefs/common"
	"github.com/tranvictor/ensprefs/ens/enstest"
	"github.com/tranvictor/ensprefs/util/reader"
)

type fakeNode struct {
	name    string
	callOut []byte
	callErr error
	header  *types.Header
	tx      *jarviscommon.Transaction
	pending bool
	txErr   error
	receipt *types.Receipt
}

func (f *fakeNode) NodeName() string { return f.name }
func (f *fakeNode) NodeURL() string  { return "http://" + f.name }

func (f *fakeNode) CallContract(ctx context.Context, from, to common.Address, data []byte) ([]byte, error) {
	return f.callOut, f.callErr
}

func (f *fakeNode) EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	return 21000, nil
}

func (f *fakeNode) GetPendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	return 7, nil
}

func (f *fakeNode) SuggestedGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(10_000_000_000), nil
}

func (f *fakeNode) SuggestedGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeNode) HeaderByNumber(ctx context.Context, number int64) (*types.Header, error) {
	return f.header, nil
}

func (f *fakeNode) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if f.receipt == nil {
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

func (f *fakeNode) TransactionByHash(ctx context.Context, hash common.Hash) (*jarviscommon.Transaction, bool, error) {
	return f.tx, f.pending, f.txErr
}

func newReader(nodes ...*fakeNode) *reader.EthReader {
	m := map[string]reader.EthereumNode{}
	for _, n := range nodes {
		m[n.name] = n
	}
	return reader.NewEthReaderWithNodes(m)
}

func TestCallContractFirstSuccessWins(t *testing.T) {
	r := newReader(
		&fakeNode{name: "down", callErr: enstest.ErrUnreachable},
		&fakeNode{name: "up", callOut: []byte{0x01}},
	)
	out, err := r.CallContract(context.Background(), common.Address{}, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, out)
}

func TestCallContractAllFailed(t *testing.T) {
	r := newReader(
		&fakeNode{name: "a", callErr: enstest.ErrUnreachable},
		&fakeNode{name: "b", callErr: enstest.ErrUnreachable},
	)
	_, err := r.CallContract(context.Background(), common.Address{}, nil)
	require.ErrorIs(t, err, enstest.ErrUnreachable)
	require.Contains(t, err.Error(), "a: ")
	require.Contains(t, err.Error(), "b: ")
	require.False(t, reader.NodeAnswered(err))
}

func TestNodeAnsweredSeesRevertThroughJoin(t *testing.T) {
	r := newReader(
		&fakeNode{name: "a", callErr: enstest.ErrUnreachable},
		&fakeNode{name: "b", callErr: &enstest.RevertError{Reason: "nope"}},
	)
	_, err := r.CallContract(context.Background(), common.Address{}, nil)
	require.Error(t, err)
	require.True(t, reader.NodeAnswered(err))
	require.False(t, reader.NodeAnswered(errors.New("plain")))
}

func TestNoNodes(t *testing.T) {
	_, err := newReader().CallContract(context.Background(), common.Address{}, nil)
	require.ErrorIs(t, err, reader.ErrNoNodes)
}

func TestSuggestedGasSettings(t *testing.T) {
	legacy := newReader(&fakeNode{name: "a", header: &types.Header{Number: big.NewInt(1)}})
	price, tip, err := legacy.SuggestedGasSettings(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 15.0, price, 1e-9)
	require.Zero(t, tip)

	london := newReader(&fakeNode{name: "a", header: &types.Header{Number: big.NewInt(1), BaseFee: big.NewInt(7)}})
	price, tip, err = london.SuggestedGasSettings(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 15.0, price, 1e-9)
	require.InDelta(t, 1.2, tip, 1e-9)
}

func TestTxInfoFromHash(t *testing.T) {
	hash := common.HexToHash("0x01")
	tx := &jarviscommon.Transaction{Transaction: types.NewTx(&types.LegacyTx{})}

	info, err := newReader(&fakeNode{name: "a", txErr: ethereum.NotFound}).TxInfoFromHash(context.Background(), hash)
	require.NoError(t, err)
	require.Equal(t, jarviscommon.TxStatusNotFound, info.Status)

	info, err = newReader(&fakeNode{name: "a", tx: tx, pending: true}).TxInfoFromHash(context.Background(), hash)
	require.NoError(t, err)
	require.Equal(t, jarviscommon.TxStatusPending, info.Status)

	info, err = newReader(&fakeNode{name: "a", tx: tx, receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}}).
		TxInfoFromHash(context.Background(), hash)
	require.NoError(t, err)
	require.Equal(t, jarviscommon.TxStatusDone, info.Status)

	info, err = newReader(&fakeNode{name: "a", tx: tx, receipt: &types.Receipt{Status: types.ReceiptStatusFailed}}).
		TxInfoFromHash(context.Background(), hash)
	require.NoError(t, err)
	require.Equal(t, jarviscommon.TxStatusReverted, info.Status)
}
