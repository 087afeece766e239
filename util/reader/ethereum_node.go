package reader

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	jarviscommon "github.com/tranvictor/ensprefs/common"
)

// EthereumNode is one JSON-RPC endpoint. EthReader fans every request out
// to all of its nodes.
type EthereumNode interface {
	NodeName() string
	NodeURL() string
	CallContract(ctx context.Context, from, to common.Address, data []byte) ([]byte, error)
	EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error)
	GetPendingNonce(ctx context.Context, address common.Address) (uint64, error)
	SuggestedGasPrice(ctx context.Context) (*big.Int, error)
	SuggestedGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number int64) (*types.Header, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *jarviscommon.Transaction, isPending bool, err error)
}
