package networks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type GenericNetworkConfig struct {
	Name             string            `json:"name"`
	AlternativeNames []string          `json:"alternative_names"`
	ChainID          uint64            `json:"chain_id"`
	BlockTime        uint64            `json:"block_time"`
	NodeVariableName string            `json:"node_variable_name"`
	DefaultNodes     map[string]string `json:"default_nodes"`
	ENSRegistry      common.Address    `json:"ens_registry"`
	PublicResolver   common.Address    `json:"public_resolver"`
}

// GenericNetwork is a network fully described by its config. Built-in and
// custom networks are both GenericNetworks.
type GenericNetwork struct {
	config GenericNetworkConfig
}

func NewGenericNetwork(config GenericNetworkConfig) *GenericNetwork {
	return &GenericNetwork{config: config}
}

func NewNetworkFromJSON(content []byte) (Network, error) {
	networkConfig := GenericNetworkConfig{}
	if err := json.Unmarshal(content, &networkConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal network config: %w", err)
	}
	if networkConfig.Name == "" {
		return nil, fmt.Errorf("network config has no name")
	}
	if networkConfig.ChainID == 0 {
		return nil, fmt.Errorf("network %s has no chain id", networkConfig.Name)
	}
	return NewGenericNetwork(networkConfig), nil
}

func (gn *GenericNetwork) GetName() string {
	return gn.config.Name
}

func (gn *GenericNetwork) GetChainID() uint64 {
	return gn.config.ChainID
}

func (gn *GenericNetwork) GetAlternativeNames() []string {
	return gn.config.AlternativeNames
}

func (gn *GenericNetwork) GetBlockTime() time.Duration {
	return time.Duration(gn.config.BlockTime) * time.Second
}

func (gn *GenericNetwork) GetNodeVariableName() string {
	return gn.config.NodeVariableName
}

func (gn *GenericNetwork) GetDefaultNodes() map[string]string {
	return gn.config.DefaultNodes
}

func (gn *GenericNetwork) GetENSRegistry() common.Address {
	return gn.config.ENSRegistry
}

func (gn *GenericNetwork) GetPublicResolver() common.Address {
	return gn.config.PublicResolver
}

func (gn *GenericNetwork) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(gn.config, "", "  ")
}
