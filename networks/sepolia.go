package networks

import (
	"github.com/ethereum/go-ethereum/common"
)

const ETHEREUM_SEPOLIA_NODE_VAR = "ETHEREUM_SEPOLIA_NODE"

var Sepolia Network = NewGenericNetwork(GenericNetworkConfig{
	Name:             "sepolia",
	AlternativeNames: []string{"sepolia-testnet"},
	ChainID:          11155111,
	BlockTime:        12,
	NodeVariableName: ETHEREUM_SEPOLIA_NODE_VAR,
	DefaultNodes: map[string]string{
		"sepolia-publicnode": "https://ethereum-sepolia-rpc.publicnode.com",
	},
	ENSRegistry:    common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"),
	PublicResolver: common.HexToAddress("0x8FADE66B79cC9f707aB26799354482EB93a5B7dD"),
})
