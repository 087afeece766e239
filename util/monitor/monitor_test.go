package monitor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	jarviscommon "github.com/tranvictor/ensprefs/common"
	"github.com/tranvictor/ensprefs/util/monitor"
)

type scriptedReader struct {
	mu       sync.Mutex
	statuses []string
	receipt  *types.Receipt
}

func (s *scriptedReader) TxInfoFromHash(ctx context.Context, hash common.Hash) (jarviscommon.TxInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := s.statuses[0]
	if len(s.statuses) > 1 {
		s.statuses = s.statuses[1:]
	}
	return jarviscommon.TxInfo{Status: status, Receipt: s.receipt}, nil
}

func TestWaitMinedDone(t *testing.T) {
	r := &scriptedReader{
		statuses: []string{jarviscommon.TxStatusNotFound, jarviscommon.TxStatusPending, jarviscommon.TxStatusDone},
		receipt:  &types.Receipt{Status: types.ReceiptStatusSuccessful},
	}
	m := monitor.NewGenericTxMonitor(r, time.Millisecond, time.Minute)

	receipt, err := m.WaitMined(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
}

func TestWaitMinedReverted(t *testing.T) {
	r := &scriptedReader{
		statuses: []string{jarviscommon.TxStatusReverted},
		receipt:  &types.Receipt{Status: types.ReceiptStatusFailed},
	}
	m := monitor.NewGenericTxMonitor(r, time.Millisecond, time.Minute)

	receipt, err := m.WaitMined(context.Background(), common.HexToHash("0x01"))
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusFailed, receipt.Status)
}

func TestWaitMinedLost(t *testing.T) {
	r := &scriptedReader{statuses: []string{jarviscommon.TxStatusNotFound}}
	m := monitor.NewGenericTxMonitor(r, time.Millisecond, 5*time.Millisecond)

	_, err := m.WaitMined(context.Background(), common.HexToHash("0x01"))
	require.ErrorIs(t, err, monitor.ErrTxLost)
}

func TestWaitMinedCancelled(t *testing.T) {
	r := &scriptedReader{statuses: []string{jarviscommon.TxStatusPending}}
	m := monitor.NewGenericTxMonitor(r, time.Millisecond, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.WaitMined(ctx, common.HexToHash("0x01"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
