package ens

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller executes a read-only contract call. util/reader.EthReader is the
// production implementation.
type Caller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// Client is the read side of the name service: the registry plus whatever
// resolver a node points at. It holds no mutable state and is safe for
// concurrent use.
type Client struct {
	caller   Caller
	registry common.Address
}

func NewClient(caller Caller, registry common.Address) *Client {
	if registry == (common.Address{}) {
		registry = RegistryAddress
	}
	return &Client{
		caller:   caller,
		registry: registry,
	}
}

func (c *Client) Registry() common.Address {
	return c.registry
}

func (c *Client) call(
	ctx context.Context,
	to common.Address,
	a *abi.ABI,
	method string,
	args ...interface{},
) ([]interface{}, error) {
	data, err := a.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}
	out, err := c.caller.CallContract(ctx, to, data)
	if err != nil {
		return nil, err
	}
	result, err := a.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s from %s: %w", method, to.Hex(), err)
	}
	return result, nil
}

// Resolver returns the resolver the registry has for node. The zero
// address means none is set.
func (c *Client) Resolver(ctx context.Context, node Node) (common.Address, error) {
	out, err := c.call(ctx, c.registry, registryABI, "resolver", [32]byte(node))
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (c *Client) Name(ctx context.Context, resolver common.Address, node Node) (string, error) {
	out, err := c.call(ctx, resolver, resolverABI, "name", [32]byte(node))
	if err != nil {
		return "", err
	}
	return out[0].(string), nil
}

func (c *Client) Addr(ctx context.Context, resolver common.Address, node Node) (common.Address, error) {
	out, err := c.call(ctx, resolver, resolverABI, "addr", [32]byte(node))
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// Text reads one text record. An unset record comes back as "".
func (c *Client) Text(ctx context.Context, resolver common.Address, node Node, key string) (string, error) {
	data, err := TextCall{Node: node, Key: key}.Encode()
	if err != nil {
		return "", fmt.Errorf("packing text: %w", err)
	}
	out, err := c.caller.CallContract(ctx, resolver, data)
	if err != nil {
		return "", err
	}
	value, err := DecodeText(out)
	if err != nil {
		return "", fmt.Errorf("unpacking text %q from %s: %w", key, resolver.Hex(), err)
	}
	return value, nil
}
