package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	jarviscommon "github.com/tranvictor/ensprefs/common"
)

const (
	DEFAULT_POLL_INTERVAL = 5 * time.Second
	DEFAULT_LOST_AFTER    = 3 * time.Minute
)

var ErrTxLost = errors.New("tx was never seen by any node")

type TxInfoReader interface {
	TxInfoFromHash(ctx context.Context, hash common.Hash) (jarviscommon.TxInfo, error)
}

// TxMonitor polls nodes until a tx is mined, reverted or considered lost.
type TxMonitor struct {
	reader       TxInfoReader
	pollInterval time.Duration
	lostAfter    time.Duration
}

func NewGenericTxMonitor(r TxInfoReader, pollInterval, lostAfter time.Duration) *TxMonitor {
	if pollInterval <= 0 {
		pollInterval = DEFAULT_POLL_INTERVAL
	}
	if lostAfter <= 0 {
		lostAfter = DEFAULT_LOST_AFTER
	}
	return &TxMonitor{
		reader:       r,
		pollInterval: pollInterval,
		lostAfter:    lostAfter,
	}
}

func (m *TxMonitor) periodicCheck(ctx context.Context, tx common.Hash, info chan<- jarviscommon.TxInfo) {
	defer close(info)
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	startTime := time.Now()
	isOnNode := false
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			txinfo, _ := m.reader.TxInfoFromHash(ctx, tx)
			switch txinfo.Status {
			case jarviscommon.TxStatusError:
				continue
			case jarviscommon.TxStatusNotFound:
				// a tx we saw once and then lost is still probably being
				// replaced or re-propagated, keep waiting for it
				if t.Sub(startTime) > m.lostAfter && !isOnNode {
					info <- jarviscommon.TxInfo{Status: jarviscommon.TxStatusLost}
					return
				}
			case jarviscommon.TxStatusPending:
				isOnNode = true
			case jarviscommon.TxStatusReverted, jarviscommon.TxStatusDone:
				info <- txinfo
				return
			}
		}
	}
}

// MakeWaitChannel returns a channel that receives the final TxInfo of tx.
// It is closed without a value if ctx ends first.
func (m *TxMonitor) MakeWaitChannel(ctx context.Context, tx common.Hash) <-chan jarviscommon.TxInfo {
	result := make(chan jarviscommon.TxInfo, 1)
	go m.periodicCheck(ctx, tx, result)
	return result
}

func (m *TxMonitor) BlockingWait(ctx context.Context, tx common.Hash) (jarviscommon.TxInfo, error) {
	info, ok := <-m.MakeWaitChannel(ctx, tx)
	if !ok {
		return jarviscommon.TxInfo{}, ctx.Err()
	}
	return info, nil
}

// WaitMined returns the receipt of a mined tx whatever its status, or
// ErrTxLost.
func (m *TxMonitor) WaitMined(ctx context.Context, tx common.Hash) (*types.Receipt, error) {
	info, err := m.BlockingWait(ctx, tx)
	if err != nil {
		return nil, err
	}
	if info.Status == jarviscommon.TxStatusLost {
		return nil, ErrTxLost
	}
	return info.Receipt, nil
}
