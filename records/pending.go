package records

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/tranvictor/ensprefs/ens"
)

var ErrNoConfirmer = errors.New("no confirmer configured")

// PendingWrite tracks one batched write from submission to confirmation.
type PendingWrite struct {
	node      ens.Node
	resolver  common.Address
	call      ens.MulticallCall
	calldata  []byte
	confirmer Confirmer
	logger    *slog.Logger

	accepted chan struct{}
	hash     common.Hash
	err      error
}

func (p *PendingWrite) submit(ctx context.Context, sub Submitter) {
	defer close(p.accepted)
	hash, err := sub.Submit(ctx, p.resolver, p.calldata)
	if err != nil {
		if ctx.Err() != nil {
			p.err = ctx.Err()
			return
		}
		p.err = &SubmissionError{Hash: hash, Err: err}
		return
	}
	p.hash = hash
	p.logger.Info("preferences submitted",
		"node", p.node.Hex(),
		"resolver", p.resolver.Hex(),
		"tx", hash.Hex(),
		"keys", len(p.call.Calls),
	)
}

func (p *PendingWrite) Node() ens.Node {
	return p.node
}

func (p *PendingWrite) Resolver() common.Address {
	return p.resolver
}

// Calldata is the encoded multicall sent to the resolver.
func (p *PendingWrite) Calldata() []byte {
	return append([]byte(nil), p.calldata...)
}

func (p *PendingWrite) Call() ens.MulticallCall {
	return p.call
}

// Accepted blocks until a node accepted the transaction or submission
// failed.
func (p *PendingWrite) Accepted(ctx context.Context) (common.Hash, error) {
	select {
	case <-p.accepted:
		return p.hash, p.err
	case <-ctx.Done():
		return common.Hash{}, ctx.Err()
	}
}

// Wait blocks until the transaction is mined. A mined tx with a failed
// status is a *RevertedError; a tx that disappears is a *SubmissionError.
func (p *PendingWrite) Wait(ctx context.Context) error {
	hash, err := p.Accepted(ctx)
	if err != nil {
		return err
	}
	if p.confirmer == nil {
		return ErrNoConfirmer
	}
	receipt, err := p.confirmer.WaitMined(ctx, hash)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &SubmissionError{Hash: hash, Err: err}
	}
	if receipt != nil && receipt.Status == types.ReceiptStatusFailed {
		return &RevertedError{Hash: hash, Receipt: receipt}
	}
	p.logger.Info("preferences confirmed", "node", p.node.Hex(), "tx", hash.Hex())
	return nil
}
