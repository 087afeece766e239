package records_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/ensprefs/ens"
	"github.com/tranvictor/ensprefs/ens/enstest"
	"github.com/tranvictor/ensprefs/prefs"
	"github.com/tranvictor/ensprefs/records"
)

var alice = common.HexToAddress("0x1111111111111111111111111111111111111111")

type chainSubmitter struct {
	chain *enstest.Chain
	mu    sync.Mutex
	sent  [][]byte
	to    []common.Address
	err   error
	block chan struct{}
}

func (s *chainSubmitter) Submit(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return common.Hash{}, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return common.Hash{}, s.err
	}
	s.sent = append(s.sent, data)
	s.to = append(s.to, to)
	return common.BytesToHash(data[len(data)-32:]), nil
}

type chainConfirmer struct {
	chain  *enstest.Chain
	sub    *chainSubmitter
	status uint64
	err    error
}

func (c *chainConfirmer) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.status == types.ReceiptStatusSuccessful {
		c.sub.mu.Lock()
		data := c.sub.sent[len(c.sub.sent)-1]
		c.sub.mu.Unlock()
		if err := c.chain.Apply(data); err != nil {
			return nil, err
		}
	}
	return &types.Receipt{Status: c.status, TxHash: hash}, nil
}

func setup(t *testing.T) (*enstest.Chain, ens.Node, *chainSubmitter, *chainConfirmer, *records.Store) {
	t.Helper()
	chain := enstest.NewChain()
	node := chain.Register(alice, "alice.eth")
	sub := &chainSubmitter{chain: chain}
	conf := &chainConfirmer{chain: chain, sub: sub, status: types.ReceiptStatusSuccessful}
	store := records.NewStore(
		ens.NewClient(chain, common.Address{}),
		records.WithSubmitter(sub),
		records.WithConfirmer(conf),
	)
	return chain, node, sub, conf, store
}

func TestReadPreferences(t *testing.T) {
	chain, node, _, _, store := setup(t)
	chain.SetText(node, string(prefs.KeyPreferredDEX), "uniswap")
	chain.SetText(node, string(prefs.KeyRisk), "medium")

	res, err := store.ReadPreferences(context.Background(), node, prefs.Keys())
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, prefs.Value{Text: "uniswap", Set: true}, res[prefs.KeyPreferredDEX].Value)
	assert.Equal(t, prefs.Value{}, res[prefs.KeySlippage].Value)
	assert.NoError(t, res[prefs.KeySlippage].Err)
	assert.Equal(t, prefs.Value{Text: "medium", Set: true}, res[prefs.KeyRisk].Value)
	assert.Empty(t, res.Failed())
	assert.Equal(t, 3, chain.Calls("text"))
}

func TestReadPreferencesPartialFailure(t *testing.T) {
	chain, node, _, _, store := setup(t)
	chain.SetText(node, string(prefs.KeyPreferredDEX), "uniswap")
	chain.TextErrors[string(prefs.KeySlippage)] = &enstest.RevertError{Reason: "boom"}

	res, err := store.ReadPreferences(context.Background(), node, prefs.Keys())
	require.NoError(t, err)
	assert.Equal(t, []prefs.Key{prefs.KeySlippage}, res.Failed())

	var fetchErr *records.KeyFetchError
	require.ErrorAs(t, res[prefs.KeySlippage].Err, &fetchErr)
	assert.Equal(t, prefs.KeySlippage, fetchErr.Key)
	assert.ErrorIs(t, res[prefs.KeySlippage].Err, records.ErrKeyFetch)
	assert.Equal(t, "uniswap", res[prefs.KeyPreferredDEX].Value.Text)
}

func TestReadPreferencesOneTransportFailureIsPerKey(t *testing.T) {
	chain, node, _, _, store := setup(t)
	chain.TextErrors[string(prefs.KeyRisk)] = enstest.ErrUnreachable

	res, err := store.ReadPreferences(context.Background(), node, prefs.Keys())
	require.NoError(t, err)
	assert.Equal(t, []prefs.Key{prefs.KeyRisk}, res.Failed())
}

func TestReadPreferencesEveryKeyUnreachable(t *testing.T) {
	chain, node, _, _, store := setup(t)
	for _, k := range prefs.Keys() {
		chain.TextErrors[string(k)] = enstest.ErrUnreachable
	}
	_, err := store.ReadPreferences(context.Background(), node, prefs.Keys())
	var unavailable *records.StoreUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, node, unavailable.Node)
	assert.ErrorIs(t, err, records.ErrStoreUnavailable)
}

func TestReadPreferencesRegistryUnreachable(t *testing.T) {
	chain, node, _, _, store := setup(t)
	chain.Unreachable = true
	_, err := store.ReadPreferences(context.Background(), node, prefs.Keys())
	require.ErrorIs(t, err, records.ErrStoreUnavailable)
	assert.Zero(t, chain.Calls("text"))
}

func TestReadPreferencesWithoutResolver(t *testing.T) {
	chain, _, _, _, store := setup(t)
	node := ens.ComputeNode("nobody.eth")
	res, err := store.ReadPreferences(context.Background(), node, prefs.Keys())
	require.NoError(t, err)
	for _, k := range prefs.Keys() {
		assert.False(t, res[k].Value.Set)
	}
	assert.Zero(t, chain.Calls("text"))
}

func TestReadPreferencesUnknownKey(t *testing.T) {
	chain, node, _, _, store := setup(t)
	_, err := store.ReadPreferences(context.Background(), node, []prefs.Key{"defi.leverage"})
	var encErr *records.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, prefs.Key("defi.leverage"), encErr.Key)
	assert.Zero(t, chain.Calls("resolver"))
}

func TestReadPreferencesFixedResolver(t *testing.T) {
	chain := enstest.NewChain()
	node := chain.Register(alice, "alice.eth")
	chain.SetText(node, string(prefs.KeyRisk), "low")
	store := records.NewStore(ens.NewClient(chain, common.Address{}), records.WithResolver(enstest.DefaultResolver))

	res, err := store.ReadPreferences(context.Background(), node, []prefs.Key{prefs.KeyRisk})
	require.NoError(t, err)
	assert.Equal(t, "low", res[prefs.KeyRisk].Value.Text)
	assert.Zero(t, chain.Calls("resolver"))
}

func TestWritePreferencesBatchesInOrder(t *testing.T) {
	chain, node, sub, _, store := setup(t)
	edits := []prefs.Edit{
		{Key: prefs.KeyPreferredDEX, Value: "uniswap"},
		{Key: prefs.KeySlippage, Value: ""},
		{Key: prefs.KeyRisk, Value: "medium"},
	}
	pw, err := store.WritePreferences(context.Background(), node, edits)
	require.NoError(t, err)

	hash, err := pw.Accepted(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, hash)
	require.Len(t, sub.sent, 1)
	assert.Equal(t, enstest.DefaultResolver, sub.to[0])
	assert.Equal(t, pw.Calldata(), sub.sent[0])

	call, err := ens.DecodeCall(pw.Calldata())
	require.NoError(t, err)
	multi, ok := call.(ens.MulticallCall)
	require.True(t, ok)
	require.Len(t, multi.Calls, 3)
	for i, inner := range multi.Calls {
		set := inner.(ens.SetTextCall)
		assert.Equal(t, node, set.Node)
		assert.Equal(t, string(edits[i].Key), set.Key)
		assert.Equal(t, edits[i].Value, set.Value)
	}

	require.NoError(t, pw.Wait(context.Background()))
	assert.Equal(t, "uniswap", chain.TextOf(node, string(prefs.KeyPreferredDEX)))
	assert.Equal(t, "medium", chain.TextOf(node, string(prefs.KeyRisk)))
}

func TestWritePreferencesReverted(t *testing.T) {
	chain, node, _, conf, store := setup(t)
	conf.status = types.ReceiptStatusFailed

	pw, err := store.WritePreferences(context.Background(), node, []prefs.Edit{{Key: prefs.KeyRisk, Value: "high"}})
	require.NoError(t, err)
	err = pw.Wait(context.Background())

	var reverted *records.RevertedError
	require.ErrorAs(t, err, &reverted)
	assert.ErrorIs(t, err, records.ErrReverted)
	assert.Equal(t, "", chain.TextOf(node, string(prefs.KeyRisk)))
}

func TestWritePreferencesRejected(t *testing.T) {
	_, node, sub, _, store := setup(t)
	sub.err = errors.New("insufficient funds for gas")

	pw, err := store.WritePreferences(context.Background(), node, []prefs.Edit{{Key: prefs.KeyRisk, Value: "high"}})
	require.NoError(t, err)
	_, err = pw.Accepted(context.Background())
	require.ErrorIs(t, err, records.ErrSubmission)
	require.ErrorIs(t, pw.Wait(context.Background()), records.ErrSubmission)
}

func TestWritePreferencesLost(t *testing.T) {
	_, node, _, conf, store := setup(t)
	conf.err = errors.New("tx was never seen by any node")

	pw, err := store.WritePreferences(context.Background(), node, []prefs.Edit{{Key: prefs.KeyRisk, Value: "high"}})
	require.NoError(t, err)
	var subErr *records.SubmissionError
	require.ErrorAs(t, pw.Wait(context.Background()), &subErr)
	assert.NotEqual(t, common.Hash{}, subErr.Hash)
}

func TestWritePreferencesCancelled(t *testing.T) {
	_, node, sub, _, store := setup(t)
	sub.block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	pw, err := store.WritePreferences(ctx, node, []prefs.Edit{{Key: prefs.KeyRisk, Value: "high"}})
	require.NoError(t, err)
	cancel()

	waitCtx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	_, err = pw.Accepted(waitCtx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWritePreferencesValidation(t *testing.T) {
	_, node, sub, _, store := setup(t)

	_, err := store.WritePreferences(context.Background(), node, []prefs.Edit{{Key: "defi.leverage", Value: "10"}})
	require.ErrorIs(t, err, records.ErrEncoding)

	_, err = store.WritePreferences(context.Background(), node, nil)
	require.ErrorIs(t, err, records.ErrNoEdits)

	_, err = store.WritePreferences(context.Background(), ens.ComputeNode("nobody.eth"), []prefs.Edit{{Key: prefs.KeyRisk}})
	require.ErrorIs(t, err, records.ErrNoResolver)
	assert.Empty(t, sub.sent)

	readOnly := records.NewStore(ens.NewClient(enstest.NewChain(), common.Address{}))
	_, err = readOnly.WritePreferences(context.Background(), node, []prefs.Edit{{Key: prefs.KeyRisk}})
	require.ErrorIs(t, err, records.ErrReadOnly)
}
