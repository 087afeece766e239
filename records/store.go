// Package records reads and writes preference text records on the
// resolver of a name.
package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/tranvictor/ensprefs/ens"
	"github.com/tranvictor/ensprefs/prefs"
	"github.com/tranvictor/ensprefs/util/reader"
)

// Submitter signs and broadcasts a call to a contract. util/sender.TxSender
// is the production implementation.
type Submitter interface {
	Submit(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
}

// Confirmer waits until a tx is mined. util/monitor.TxMonitor is the
// production implementation.
type Confirmer interface {
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

type Result struct {
	Value prefs.Value
	Err   error
}

type Results map[prefs.Key]Result

func (r Results) Failed() []prefs.Key {
	var out []prefs.Key
	for _, k := range prefs.Keys() {
		if res, ok := r[k]; ok && res.Err != nil {
			out = append(out, k)
		}
	}
	return out
}

type Store struct {
	client    *ens.Client
	resolver  common.Address
	submitter Submitter
	confirmer Confirmer
	logger    *slog.Logger
}

type Option func(*Store)

// WithResolver pins every read and write to one resolver instead of asking
// the registry.
func WithResolver(addr common.Address) Option {
	return func(s *Store) { s.resolver = addr }
}

func WithSubmitter(sub Submitter) Option {
	return func(s *Store) { s.submitter = sub }
}

func WithConfirmer(c Confirmer) Option {
	return func(s *Store) { s.confirmer = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func NewStore(client *ens.Client, opts ...Option) *Store {
	s := &Store{client: client}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Store) CanWrite() bool {
	return s.submitter != nil
}

func (s *Store) resolverOf(ctx context.Context, node ens.Node) (common.Address, error) {
	if s.resolver != (common.Address{}) {
		return s.resolver, nil
	}
	return s.client.Resolver(ctx, node)
}

func validateKeys[T any](items []T, key func(T) prefs.Key) error {
	for _, item := range items {
		if k := key(item); !k.Valid() {
			return &EncodingError{Key: k, Err: prefs.ErrUnknownKey}
		}
	}
	return nil
}

// ReadPreferences reads every key concurrently. A failing key never aborts
// the others; its failure is reported in its Result. The call itself only
// fails when the name service cannot be reached at all.
func (s *Store) ReadPreferences(ctx context.Context, node ens.Node, keys []prefs.Key) (Results, error) {
	if err := validateKeys(keys, func(k prefs.Key) prefs.Key { return k }); err != nil {
		return nil, err
	}
	resolver, err := s.resolverOf(ctx, node)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &StoreUnavailableError{Node: node, Err: fmt.Errorf("looking up resolver: %w", err)}
	}

	results := make(Results, len(keys))
	if resolver == (common.Address{}) {
		for _, k := range keys {
			results[k] = Result{}
		}
		return results, nil
	}

	values := make([]Result, len(keys))
	var g errgroup.Group
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			text, err := s.client.Text(ctx, resolver, node, string(k))
			if err != nil {
				values[i] = Result{Err: &KeyFetchError{Key: k, Err: err}}
			} else {
				values[i] = Result{Value: prefs.ValueOf(text)}
			}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var transportErrs []error
	for i, k := range keys {
		results[k] = values[i]
		if err := values[i].Err; err != nil {
			s.logger.Debug("preference read failed", "node", node.Hex(), "key", k, "error", err)
			if !reader.NodeAnswered(err) {
				transportErrs = append(transportErrs, err)
			}
		}
	}
	if len(keys) > 0 && len(transportErrs) == len(keys) {
		return nil, &StoreUnavailableError{Node: node, Err: errors.Join(transportErrs...)}
	}
	return results, nil
}

// WritePreferences bundles edits, in order, into one multicall on the
// node's resolver and starts submitting it. Validation and encoding errors
// are returned right away; everything after that is reported through the
// returned handle.
func (s *Store) WritePreferences(ctx context.Context, node ens.Node, edits []prefs.Edit) (*PendingWrite, error) {
	if s.submitter == nil {
		return nil, ErrReadOnly
	}
	if len(edits) == 0 {
		return nil, ErrNoEdits
	}
	if err := validateKeys(edits, func(e prefs.Edit) prefs.Key { return e.Key }); err != nil {
		return nil, err
	}

	call := ens.MulticallCall{}
	for _, e := range edits {
		call.Calls = append(call.Calls, ens.SetTextCall{Node: node, Key: string(e.Key), Value: e.Value})
	}
	data, err := call.Encode()
	if err != nil {
		return nil, &EncodingError{Err: err}
	}

	resolver, err := s.resolverOf(ctx, node)
	if err != nil {
		return nil, &StoreUnavailableError{Node: node, Err: fmt.Errorf("looking up resolver: %w", err)}
	}
	if resolver == (common.Address{}) {
		return nil, fmt.Errorf("%w: %s", ErrNoResolver, node.Hex())
	}

	pw := &PendingWrite{
		node:      node,
		resolver:  resolver,
		call:      call,
		calldata:  data,
		confirmer: s.confirmer,
		logger:    s.logger,
		accepted:  make(chan struct{}),
	}
	go pw.submit(ctx, s.submitter)
	return pw, nil
}
