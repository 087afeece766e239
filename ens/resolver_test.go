package ens_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/ensprefs/ens"
	"github.com/tranvictor/ensprefs/ens/enstest"
)

var alice = common.HexToAddress("0xAbC0000000000000000000000000000000000001")

func newResolver(chain *enstest.Chain, opts ...ens.ResolverOption) *ens.Resolver {
	return ens.NewResolver(ens.NewClient(chain, ens.RegistryAddress), opts...)
}

func TestResolveNameFound(t *testing.T) {
	chain := enstest.NewChain()
	chain.Register(alice, "alice.eth")

	name, found, err := newResolver(chain).ResolveName(context.Background(), alice)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "alice.eth", name)
}

func TestResolveNameWithoutRecordIsNotAnError(t *testing.T) {
	chain := enstest.NewChain()

	name, found, err := newResolver(chain).ResolveName(context.Background(), alice)
	require.NoError(t, err)
	require.False(t, found)
	require.Empty(t, name)
	require.Zero(t, chain.Calls("name"))
}

func TestResolveNameUnreachable(t *testing.T) {
	chain := enstest.NewChain()
	chain.Register(alice, "alice.eth")
	chain.Unreachable = true

	_, found, err := newResolver(chain).ResolveName(context.Background(), alice)
	require.False(t, found)
	require.ErrorIs(t, err, ens.ErrResolution)
	require.ErrorIs(t, err, enstest.ErrUnreachable)

	var resErr *ens.ResolutionError
	require.ErrorAs(t, err, &resErr)
	require.Equal(t, alice, resErr.Address)
}

func TestResolveNameRequiresForwardMatch(t *testing.T) {
	chain := enstest.NewChain()
	// claims vitalik.eth without owning it
	chain.SetReverse(alice, "vitalik.eth")

	_, found, err := newResolver(chain).ResolveName(context.Background(), alice)
	require.NoError(t, err)
	require.False(t, found)

	name, found, err := newResolver(chain, ens.WithForwardVerification(false)).
		ResolveName(context.Background(), alice)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "vitalik.eth", name)
}

func TestResolveNameCancelled(t *testing.T) {
	chain := enstest.NewChain()
	chain.Register(alice, "alice.eth")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := newResolver(chain).ResolveName(ctx, alice)
	require.ErrorIs(t, err, context.Canceled)
}
