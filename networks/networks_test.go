package networks_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/ensprefs/networks"
)

func TestBuiltins(t *testing.T) {
	r, err := networks.NewRegistry("", nil)
	require.NoError(t, err)

	n, err := r.Get("ETH")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n.GetChainID())

	n, err = r.GetByID(11155111)
	require.NoError(t, err)
	assert.Equal(t, "sepolia", n.GetName())
	assert.Contains(t, r.Names(), "sepolia-testnet")

	_, err = r.Get("ropsten")
	require.ErrorIs(t, err, networks.ErrNetworkNotFound)
}

func TestCustomNetworksRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r, err := networks.NewRegistry(dir, nil)
	require.NoError(t, err)

	holesky := networks.NewGenericNetwork(networks.GenericNetworkConfig{
		Name:         "holesky",
		ChainID:      17000,
		BlockTime:    12,
		DefaultNodes: map[string]string{"holesky-publicnode": "https://ethereum-holesky-rpc.publicnode.com"},
		ENSRegistry:  common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"),
	})
	require.NoError(t, r.Add(holesky))
	require.FileExists(t, filepath.Join(dir, "holesky.json"))

	// a broken file is skipped
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))

	reloaded, err := networks.NewRegistry(dir, nil)
	require.NoError(t, err)
	n, err := reloaded.Get("holesky")
	require.NoError(t, err)
	assert.Equal(t, uint64(17000), n.GetChainID())
	assert.Equal(t, holesky.GetENSRegistry(), n.GetENSRegistry())
	assert.Len(t, reloaded.All(), 3)
}

func TestNodesIncludesEnvOverride(t *testing.T) {
	t.Setenv(networks.ETHEREUM_SEPOLIA_NODE_VAR, " http://localhost:8545 ")
	nodes := networks.Nodes(networks.Sepolia)
	assert.Equal(t, "http://localhost:8545", nodes["custom-node"])
	assert.Contains(t, nodes, "sepolia-publicnode")
}
