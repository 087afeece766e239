// Package enstest provides an in-memory name service for tests.
package enstest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/ensprefs/ens"
)

// ErrUnreachable mimics a connection refused from every node.
var ErrUnreachable = errors.New("dial tcp 127.0.0.1:8545: connect: connection refused")

// RevertError looks like the JSON-RPC error a node returns for a reverted
// eth_call, so it satisfies go-ethereum's rpc.Error.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string  { return "execution reverted: " + e.Reason }
func (e *RevertError) ErrorCode() int { return 3 }

// DefaultResolver is the resolver address Register uses.
var DefaultResolver = common.HexToAddress("0x231b0Ee14048e9dCcD1d247744d114a4EB5E8E63")

// Chain is a registry and a set of resolvers held in memory. It implements
// ens.Caller.
type Chain struct {
	mu        sync.Mutex
	resolvers map[ens.Node]common.Address
	names     map[ens.Node]string
	addrs     map[ens.Node]common.Address
	texts     map[ens.Node]map[string]string

	// TextErrors fails text reads of the given keys.
	TextErrors map[string]error
	// Unreachable fails every call with ErrUnreachable.
	Unreachable bool
	// Hook runs before every call while the lock is not held.
	Hook func(method string)

	calls map[string]int
}

func NewChain() *Chain {
	return &Chain{
		resolvers:  map[ens.Node]common.Address{},
		names:      map[ens.Node]string{},
		addrs:      map[ens.Node]common.Address{},
		texts:      map[ens.Node]map[string]string{},
		TextErrors: map[string]error{},
		calls:      map[string]int{},
	}
}

// Register makes name the verified primary name of addr.
func (c *Chain) Register(addr common.Address, name string) ens.Node {
	normalized, err := ens.Normalize(name)
	if err != nil {
		panic(err)
	}
	node := ens.ComputeNode(normalized)
	reverse := ens.ReverseNode(addr)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolvers[reverse] = DefaultResolver
	c.names[reverse] = name
	c.resolvers[node] = DefaultResolver
	c.addrs[node] = addr
	return node
}

// SetReverse sets only the reverse record, leaving the forward record
// untouched.
func (c *Chain) SetReverse(addr common.Address, name string) {
	reverse := ens.ReverseNode(addr)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolvers[reverse] = DefaultResolver
	c.names[reverse] = name
}

func (c *Chain) SetText(node ens.Node, key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setTextLocked(node, key, value)
}

func (c *Chain) setTextLocked(node ens.Node, key, value string) {
	if c.texts[node] == nil {
		c.texts[node] = map[string]string{}
	}
	c.texts[node][key] = value
}

func (c *Chain) TextOf(node ens.Node, key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.texts[node][key]
}

// Calls returns how many times method was called.
func (c *Chain) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// Apply executes a resolver transaction. A multicall is applied all or
// nothing.
func (c *Chain) Apply(data []byte) error {
	call, err := ens.DecodeCall(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var sets []ens.SetTextCall
	switch v := call.(type) {
	case ens.SetTextCall:
		sets = append(sets, v)
	case ens.MulticallCall:
		for _, inner := range v.Calls {
			set, ok := inner.(ens.SetTextCall)
			if !ok {
				return fmt.Errorf("unsupported call %s in multicall", inner.Method())
			}
			sets = append(sets, set)
		}
	default:
		return fmt.Errorf("unsupported call %s", call.Method())
	}
	for _, set := range sets {
		c.setTextLocked(set.Node, set.Key, set.Value)
	}
	return nil
}

func (c *Chain) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, &RevertError{Reason: "short calldata"}
	}

	if to == ens.RegistryAddress {
		method, err := ens.RegistryABI().MethodById(data[:4])
		if err != nil {
			return nil, &RevertError{Reason: err.Error()}
		}
		if c.Hook != nil {
			c.Hook(method.Name)
		}
		args, err := method.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, &RevertError{Reason: err.Error()}
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		c.calls[method.Name]++
		if c.Unreachable {
			return nil, ErrUnreachable
		}
		return method.Outputs.Pack(c.resolvers[ens.Node(args[0].([32]byte))])
	}

	method, err := ens.ResolverABI().MethodById(data[:4])
	if err != nil {
		return nil, &RevertError{Reason: err.Error()}
	}
	if c.Hook != nil {
		c.Hook(method.Name)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, &RevertError{Reason: err.Error()}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[method.Name]++
	if c.Unreachable {
		return nil, ErrUnreachable
	}
	node := ens.Node(args[0].([32]byte))
	switch method.Name {
	case "name":
		return method.Outputs.Pack(c.names[node])
	case "addr":
		return method.Outputs.Pack(c.addrs[node])
	case "text":
		key := args[1].(string)
		if err := c.TextErrors[key]; err != nil {
			return nil, err
		}
		return method.Outputs.Pack(c.texts[node][key])
	}
	return nil, &RevertError{Reason: "not a view function: " + method.Name}
}
