package networks

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Network interface {
	GetName() string
	GetChainID() uint64
	GetAlternativeNames() []string
	GetBlockTime() time.Duration

	GetNodeVariableName() string
	GetDefaultNodes() map[string]string

	// GetENSRegistry is the name service registry on this chain.
	GetENSRegistry() common.Address
	GetPublicResolver() common.Address

	MarshalJSON() ([]byte, error)
}
