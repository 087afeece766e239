package broadcaster_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/ensprefs/util/broadcaster"
)

type fakeClient struct {
	err  error
	sent []string
}

func (f *fakeClient) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if method != "eth_sendRawTransaction" {
		return errors.New("unexpected method " + method)
	}
	f.sent = append(f.sent, args[0].(string))
	return f.err
}

func TestBroadcastSucceedsWhenOneNodeAccepts(t *testing.T) {
	good := &fakeClient{}
	bad := &fakeClient{err: errors.New("nonce too low")}
	b := broadcaster.NewBroadcasterWithClients(map[string]broadcaster.RawCaller{"good": good, "bad": bad})

	tx := types.NewTx(&types.LegacyTx{Nonce: 1})
	hash, ok, err := b.BroadcastTx(context.Background(), tx)
	require.True(t, ok)
	require.ErrorContains(t, err, "nonce too low")
	require.Equal(t, tx.Hash(), hash)
	require.Len(t, good.sent, 1)
	require.Len(t, bad.sent, 1)
}

func TestBroadcastFailsWhenEveryNodeRejects(t *testing.T) {
	b := broadcaster.NewBroadcasterWithClients(map[string]broadcaster.RawCaller{
		"a": &fakeClient{err: errors.New("insufficient funds")},
		"b": &fakeClient{err: errors.New("insufficient funds")},
	})
	_, ok, err := b.BroadcastTx(context.Background(), types.NewTx(&types.LegacyTx{}))
	require.False(t, ok)
	require.ErrorContains(t, err, "insufficient funds")
}
