package networks

import (
	"github.com/ethereum/go-ethereum/common"
)

const ETHEREUM_MAINNET_NODE_VAR = "ETHEREUM_MAINNET_NODE"

var EthereumMainnet Network = NewGenericNetwork(GenericNetworkConfig{
	Name:             "mainnet",
	AlternativeNames: []string{"ethereum", "eth"},
	ChainID:          1,
	BlockTime:        12,
	NodeVariableName: ETHEREUM_MAINNET_NODE_VAR,
	DefaultNodes: map[string]string{
		"mainnet-publicnode": "https://ethereum-rpc.publicnode.com",
		"mainnet-llamarpc":   "https://eth.llamarpc.com",
	},
	ENSRegistry:    common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"),
	PublicResolver: common.HexToAddress("0x231b0Ee14048e9dCcD1d247744d114a4EB5E8E63"),
})
