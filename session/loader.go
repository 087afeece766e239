// Package session assembles preference snapshots and drives the load,
// edit, save and confirm cycle of a single wallet.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/ensprefs/ens"
	"github.com/tranvictor/ensprefs/prefs"
	"github.com/tranvictor/ensprefs/records"
)

type NameResolver interface {
	ResolveName(ctx context.Context, addr common.Address) (name string, found bool, err error)
}

type PreferenceReader interface {
	ReadPreferences(ctx context.Context, node ens.Node, keys []prefs.Key) (records.Results, error)
}

// Loader builds snapshots. It holds no per-address state and can be
// shared by any number of controllers and HTTP handlers.
type Loader struct {
	names  NameResolver
	store  PreferenceReader
	logger *slog.Logger
	now    func() time.Time
}

func NewLoader(names NameResolver, store PreferenceReader, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		names:  names,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// LoadSnapshot resolves addr and reads all preferences of its name. An
// address without a name yields a snapshot with no name and no values,
// and no record is read. Per-key failures end up in FetchErrors; only
// resolution and store-wide failures are returned as errors.
func (l *Loader) LoadSnapshot(ctx context.Context, addr common.Address) (prefs.Snapshot, error) {
	snap := prefs.NewSnapshot(addr)

	name, found, err := l.names.ResolveName(ctx, addr)
	if err != nil {
		return snap, err
	}
	if !found {
		l.logger.Debug("address has no name", "address", addr.Hex())
		snap.LoadedAt = l.now()
		return snap, nil
	}

	normalized, err := ens.Normalize(name)
	if err != nil {
		return snap, err
	}
	node := ens.ComputeNode(normalized)

	results, err := l.store.ReadPreferences(ctx, node, prefs.Keys())
	if err != nil {
		return snap, err
	}

	snap.Name = &name
	snap.Node = &node
	for _, k := range prefs.Keys() {
		res, ok := results[k]
		switch {
		case !ok:
			continue
		case res.Err != nil:
			snap.FetchErrors[k] = res.Err
		case res.Value.Set:
			snap.Values[k] = res.Value.Text
		}
	}
	snap.LoadedAt = l.now()

	if !snap.Complete() {
		l.logger.Warn("some preferences could not be read",
			"address", addr.Hex(),
			"name", normalized,
			"failed", len(snap.FetchErrors),
		)
	}
	return snap, nil
}
