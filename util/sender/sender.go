package sender

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	jarviscommon "github.com/tranvictor/ensprefs/common"
	"github.com/tranvictor/ensprefs/util/account"
)

// GasLimitMultiplier pads the node's estimate. Estimates on resolvers with
// many records tend to be tight.
const GasLimitMultiplier = 1.2

type ChainReader interface {
	EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error)
	GetPendingNonce(ctx context.Context, address common.Address) (uint64, error)
	SuggestedGasSettings(ctx context.Context) (maxGasPriceGwei, maxTipGwei float64, err error)
}

type Broadcaster interface {
	BroadcastTx(ctx context.Context, tx *types.Transaction) (common.Hash, bool, error)
}

// TxSender builds, signs and broadcasts a single contract call.
type TxSender struct {
	reader      ChainReader
	signer      account.Signer
	broadcaster Broadcaster
	chainID     uint64
	logger      *slog.Logger
}

func NewTxSender(
	r ChainReader,
	s account.Signer,
	b Broadcaster,
	chainID uint64,
	logger *slog.Logger,
) *TxSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &TxSender{
		reader:      r,
		signer:      s,
		broadcaster: b,
		chainID:     chainID,
		logger:      logger,
	}
}

func (ts *TxSender) From() common.Address {
	return ts.signer.Address()
}

func (ts *TxSender) Submit(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	from := ts.signer.Address()

	nonce, err := ts.reader.GetPendingNonce(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("couldn't get nonce of %s: %w", from.Hex(), err)
	}
	gas, err := ts.reader.EstimateGas(ctx, from, to, data)
	if err != nil {
		return common.Hash{}, fmt.Errorf("couldn't estimate gas: %w", err)
	}
	gasLimit := uint64(float64(gas) * GasLimitMultiplier)

	priceGwei, tipGwei, err := ts.reader.SuggestedGasSettings(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("couldn't get gas settings: %w", err)
	}

	tx := jarviscommon.BuildExactTx(nonce, to, big.NewInt(0), gasLimit, priceGwei, tipGwei, data, ts.chainID)
	signed, err := ts.signer.SignTx(tx, new(big.Int).SetUint64(ts.chainID))
	if err != nil {
		return common.Hash{}, fmt.Errorf("couldn't sign tx: %w", err)
	}

	hash, ok, err := ts.broadcaster.BroadcastTx(ctx, signed)
	if !ok {
		return common.Hash{}, fmt.Errorf("couldn't broadcast tx %s: %w", hash.Hex(), err)
	}
	if err != nil {
		// accepted by at least one node
		ts.logger.Warn("some nodes rejected the tx", "tx", hash.Hex(), "error", err)
	}
	ts.logger.Info("tx broadcasted",
		"tx", hash.Hex(),
		"from", from.Hex(),
		"to", to.Hex(),
		"nonce", nonce,
		"gas_limit", gasLimit,
		"gas_price_gwei", priceGwei,
		"tip_gwei", tipGwei,
	)
	return hash, nil
}
