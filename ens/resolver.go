package ens

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Resolver turns addresses into names and names into nodes.
type Resolver struct {
	client        *Client
	verifyForward bool
}

type ResolverOption func(*Resolver)

// WithForwardVerification controls whether a reverse record is only
// trusted when the name's addr record points back at the address.
// Enabled by default.
func WithForwardVerification(enabled bool) ResolverOption {
	return func(r *Resolver) {
		r.verifyForward = enabled
	}
}

func NewResolver(client *Client, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:        client,
		verifyForward: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Client() *Client {
	return r.client
}

// ResolveName performs reverse resolution. found is false, with a nil
// error, when the address has no usable primary name. Transport failures
// come back as *ResolutionError.
func (r *Resolver) ResolveName(ctx context.Context, addr common.Address) (name string, found bool, err error) {
	reverse := ReverseNode(addr)
	resolver, err := r.client.Resolver(ctx, reverse)
	if err != nil {
		return "", false, &ResolutionError{Address: addr, Err: err}
	}
	if resolver == (common.Address{}) {
		return "", false, nil
	}

	name, err = r.client.Name(ctx, resolver, reverse)
	if err != nil {
		return "", false, &ResolutionError{Address: addr, Err: err}
	}
	if name == "" {
		return "", false, nil
	}

	normalized, err := Normalize(name)
	if err != nil {
		// a primary name that cannot be normalized cannot be used either
		return "", false, nil
	}
	if !r.verifyForward {
		return name, true, nil
	}

	node := ComputeNode(normalized)
	forwardResolver, err := r.client.Resolver(ctx, node)
	if err != nil {
		return "", false, &ResolutionError{Address: addr, Err: err}
	}
	if forwardResolver == (common.Address{}) {
		return "", false, nil
	}
	pointsTo, err := r.client.Addr(ctx, forwardResolver, node)
	if err != nil {
		return "", false, &ResolutionError{Address: addr, Err: err}
	}
	if pointsTo != addr {
		return "", false, nil
	}
	return name, true, nil
}

func (r *Resolver) Normalize(name string) (string, error) {
	return Normalize(name)
}

func (r *Resolver) ComputeNode(normalized string) Node {
	return ComputeNode(normalized)
}
