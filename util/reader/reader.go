package reader

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	jarviscommon "github.com/tranvictor/ensprefs/common"
)

var DEFAULT_ADDRESS = common.Address{}

var ErrNoNodes = errors.New("no nodes configured")

// Reader is what the rest of the module needs from the chain.
type Reader interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error)
	GetPendingNonce(ctx context.Context, address common.Address) (uint64, error)
	SuggestedGasSettings(ctx context.Context) (maxGasPriceGwei, maxTipGwei float64, err error)
	HeaderByNumber(ctx context.Context, number int64) (*types.Header, error)
	TxInfoFromHash(ctx context.Context, hash common.Hash) (jarviscommon.TxInfo, error)
}

// EthReader sends every request to all of its nodes at once and returns
// the first successful answer.
type EthReader struct {
	nodes map[string]EthereumNode
}

func NewEthReaderGeneric(nodes map[string]string, timeout time.Duration) *EthReader {
	ns := map[string]EthereumNode{}
	for name, c := range nodes {
		ns[name] = NewOneNodeReader(name, c, timeout)
	}
	return NewEthReaderWithNodes(ns)
}

func NewEthReaderWithNodes(nodes map[string]EthereumNode) *EthReader {
	return &EthReader{
		nodes: nodes,
	}
}

func (er *EthReader) NodeNames() []string {
	names := make([]string, 0, len(er.nodes))
	for name := range er.nodes {
		names = append(names, name)
	}
	return names
}

func wrapError(e error, name string) error {
	if e == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, e)
}

type nodeResponse[T any] struct {
	Result T
	Error  error
}

// firstSuccess runs fn against every node concurrently. It returns the
// first nil-error result, or every node's error joined when all failed.
func firstSuccess[T any](er *EthReader, fn func(n EthereumNode) (T, error)) (T, error) {
	var zero T
	if len(er.nodes) == 0 {
		return zero, ErrNoNodes
	}
	resCh := make(chan nodeResponse[T], len(er.nodes))
	for i := range er.nodes {
		n := er.nodes[i]
		go func() {
			result, err := fn(n)
			resCh <- nodeResponse[T]{
				Result: result,
				Error:  wrapError(err, n.NodeName()),
			}
		}()
	}
	errs := []error{}
	for i := 0; i < len(er.nodes); i++ {
		result := <-resCh
		if result.Error == nil {
			return result.Result, nil
		}
		errs = append(errs, result.Error)
	}
	return zero, fmt.Errorf("couldn't read from any nodes: %w", errors.Join(errs...))
}

func (er *EthReader) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return firstSuccess(er, func(n EthereumNode) ([]byte, error) {
		return n.CallContract(ctx, DEFAULT_ADDRESS, to, data)
	})
}

func (er *EthReader) EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	return firstSuccess(er, func(n EthereumNode) (uint64, error) {
		return n.EstimateGas(ctx, from, to, data)
	})
}

func (er *EthReader) GetPendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	return firstSuccess(er, func(n EthereumNode) (uint64, error) {
		return n.GetPendingNonce(ctx, address)
	})
}

func (er *EthReader) HeaderByNumber(ctx context.Context, number int64) (*types.Header, error) {
	return firstSuccess(er, func(n EthereumNode) (*types.Header, error) {
		return n.HeaderByNumber(ctx, number)
	})
}

func (er *EthReader) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return firstSuccess(er, func(n EthereumNode) (*types.Receipt, error) {
		return n.TransactionReceipt(ctx, hash)
	})
}

type txByHash struct {
	tx        *jarviscommon.Transaction
	isPending bool
}

func (er *EthReader) TransactionByHash(ctx context.Context, hash common.Hash) (*jarviscommon.Transaction, bool, error) {
	res, err := firstSuccess(er, func(n EthereumNode) (txByHash, error) {
		tx, isPending, err := n.TransactionByHash(ctx, hash)
		return txByHash{tx, isPending}, err
	})
	return res.tx, res.isPending, err
}

// CheckDynamicFeeTxAvailable reports whether the latest block carries a
// base fee, which is how we tell the chain accepts EIP-1559 txs.
func (er *EthReader) CheckDynamicFeeTxAvailable(ctx context.Context) (bool, error) {
	header, err := er.HeaderByNumber(ctx, -1)
	if err != nil {
		return false, err
	}
	return header.BaseFee != nil && header.BaseFee.Cmp(common.Big0) > 0, nil
}

// add 50% to max gas price because the next blocks based price can be increased
// according to ethereum protocol
func (er *EthReader) RecommendedGasPrice(ctx context.Context) (float64, error) {
	price, err := firstSuccess(er, func(n EthereumNode) (*big.Int, error) {
		return n.SuggestedGasPrice(ctx)
	})
	if err != nil {
		return 0, err
	}
	return jarviscommon.BigToFloat(price, 9) * 1.5, nil
}

// add 20% tip to miners compared to what returned from the node
func (er *EthReader) GetSuggestedGasTipCap(ctx context.Context) (float64, error) {
	tip, err := firstSuccess(er, func(n EthereumNode) (*big.Int, error) {
		return n.SuggestedGasTipCap(ctx)
	})
	if err != nil {
		return 0, err
	}
	return jarviscommon.BigToFloat(tip, 9) * 1.2, nil
}

// SuggestedGasSettings returns a zero tip on chains without dynamic fees.
func (er *EthReader) SuggestedGasSettings(ctx context.Context) (maxGasPriceGwei, maxTipGwei float64, err error) {
	isDynamicFeeAvailable, err := er.CheckDynamicFeeTxAvailable(ctx)
	if err != nil {
		return 0, 0, err
	}
	maxGasPriceGwei, err = er.RecommendedGasPrice(ctx)
	if err != nil {
		return 0, 0, err
	}
	if isDynamicFeeAvailable {
		maxTipGwei, err = er.GetSuggestedGasTipCap(ctx)
		if err != nil {
			return 0, 0, err
		}
	}
	return maxGasPriceGwei, maxTipGwei, nil
}

func (er *EthReader) TxInfoFromHash(ctx context.Context, hash common.Hash) (jarviscommon.TxInfo, error) {
	txObj, isPending, err := er.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return jarviscommon.TxInfo{Status: jarviscommon.TxStatusNotFound}, nil
		}
		return jarviscommon.TxInfo{Status: jarviscommon.TxStatusError}, err
	}
	if isPending {
		return jarviscommon.TxInfo{Status: jarviscommon.TxStatusPending, Tx: txObj}, nil
	}

	receipt, err := er.TransactionReceipt(ctx, hash)
	if receipt == nil {
		return jarviscommon.TxInfo{Status: jarviscommon.TxStatusPending, Tx: txObj}, err
	}
	// only byzantium has status field. if PostState is a hash, it is
	// pre-byzantium and all txs with PostState are considered done
	if len(receipt.PostState) == len(common.Hash{}) || receipt.Status == types.ReceiptStatusSuccessful {
		return jarviscommon.TxInfo{Status: jarviscommon.TxStatusDone, Tx: txObj, Receipt: receipt}, nil
	}
	return jarviscommon.TxInfo{Status: jarviscommon.TxStatusReverted, Tx: txObj, Receipt: receipt}, nil
}

// NodeAnswered reports whether err carries a JSON-RPC error from a node,
// meaning the transport worked and the node refused the request (a revert,
// a bad parameter). Anything else is a transport failure.
func NodeAnswered(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}
