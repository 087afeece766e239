package ens

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// RegistryAddress is the ENS registry with fallback, deployed at the same
// address on mainnet and the public testnets.
var RegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

const registryABIJSON = `[
	{"type":"function","name":"resolver","stateMutability":"view",
	 "inputs":[{"name":"node","type":"bytes32"}],
	 "outputs":[{"name":"","type":"address"}]}
]`

const resolverABIJSON = `[
	{"type":"function","name":"name","stateMutability":"view",
	 "inputs":[{"name":"node","type":"bytes32"}],
	 "outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"addr","stateMutability":"view",
	 "inputs":[{"name":"node","type":"bytes32"}],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"text","stateMutability":"view",
	 "inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"}],
	 "outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"setText","stateMutability":"nonpayable",
	 "inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"},{"name":"value","type":"string"}],
	 "outputs":[]},
	{"type":"function","name":"multicall","stateMutability":"nonpayable",
	 "inputs":[{"name":"data","type":"bytes[]"}],
	 "outputs":[{"name":"results","type":"bytes[]"}]}
]`

var (
	registryABI = mustParseABI(registryABIJSON)
	resolverABI = mustParseABI(resolverABIJSON)
)

func mustParseABI(body string) *abi.ABI {
	result, err := abi.JSON(strings.NewReader(body))
	if err != nil {
		panic(err)
	}
	return &result
}

// RegistryABI returns the subset of the ENS registry this package calls.
func RegistryABI() *abi.ABI {
	return registryABI
}

// ResolverABI returns the subset of the public resolver this package calls.
func ResolverABI() *abi.ABI {
	return resolverABI
}
