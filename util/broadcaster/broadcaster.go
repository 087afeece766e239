package broadcaster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	jarviscommon "github.com/tranvictor/ensprefs/common"
)

const DEFAULT_TIMEOUT = 4 * time.Second

// RawCaller is the slice of *rpc.Client the broadcaster uses.
type RawCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// Broadcaster takes a signed tx and try to broadcast it to all
// nodes that it manages as fast as possible. The tx counts as
// broadcasted when at least 1 node accepted it; the returned error
// still carries the rejections of the other nodes.
type Broadcaster struct {
	clients map[string]RawCaller
	timeout time.Duration
}

func (b *Broadcaster) broadcast(ctx context.Context, client RawCaller, name, data string) error {
	if err := client.CallContext(ctx, nil, "eth_sendRawTransaction", data); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (b *Broadcaster) BroadcastTx(ctx context.Context, tx *types.Transaction) (common.Hash, bool, error) {
	data, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, false, fmt.Errorf("tx is not valid, couldn't use rlp to encode it: %w", err)
	}
	return b.Broadcast(ctx, hexutil.Encode(data))
}

// data must be hex encoded of the signed tx
func (b *Broadcaster) Broadcast(ctx context.Context, data string) (common.Hash, bool, error) {
	hash := common.HexToHash(jarviscommon.RawTxToHash(data))
	if len(b.clients) == 0 {
		return hash, false, fmt.Errorf("no nodes to broadcast to")
	}
	timeout, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	parallelTasks := []func() error{}
	for name := range b.clients {
		name, cli := name, b.clients[name]
		parallelTasks = append(parallelTasks, func() error {
			return b.broadcast(timeout, cli, name, data)
		})
	}
	numErrs, err := jarviscommon.RunParallel(parallelTasks...)
	return hash, numErrs < len(b.clients), err
}

func NewGenericBroadcaster(nodes map[string]string, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	clients := map[string]RawCaller{}
	for name, c := range nodes {
		client, err := rpc.Dial(c)
		if err != nil {
			logger.Warn("couldn't connect to node", "node", name, "error", err)
		} else {
			clients[name] = client
		}
	}
	return NewBroadcasterWithClients(clients)
}

func NewBroadcasterWithClients(clients map[string]RawCaller) *Broadcaster {
	return &Broadcaster{
		clients: clients,
		timeout: DEFAULT_TIMEOUT,
	}
}
