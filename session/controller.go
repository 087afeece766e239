package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/ensprefs/ens"
	"github.com/tranvictor/ensprefs/prefs"
	"github.com/tranvictor/ensprefs/records"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseEditing
	PhaseSaving
	PhaseConfirming
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseEditing:
		return "editing"
	case PhaseSaving:
		return "saving"
	case PhaseConfirming:
		return "confirming"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

func (p Phase) busy() bool {
	return p == PhaseSaving || p == PhaseConfirming
}

type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, addr common.Address) (prefs.Snapshot, error)
}

type PreferenceWriter interface {
	WritePreferences(ctx context.Context, node ens.Node, edits []prefs.Edit) (*records.PendingWrite, error)
}

// State is a copy of the controller at one point in time. Snapshot is the
// last successfully loaded one and survives failures.
type State struct {
	Phase    Phase
	Address  common.Address
	Snapshot *prefs.Snapshot
	Pending  map[prefs.Key]string
	Err      error
	TxHash   common.Hash
}

// Controller coordinates load, edit, save and confirm for one address at
// a time. Loading another address supersedes whatever is in flight; the
// results of superseded operations are dropped.
type Controller struct {
	loader SnapshotLoader
	writer PreferenceWriter
	policy prefs.SavePolicy
	logger *slog.Logger

	base       context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu       sync.Mutex
	phase    Phase
	address  common.Address
	snapshot *prefs.Snapshot
	pending  *prefs.PendingEdit
	err      error
	txHash   common.Hash
	gen      uint64
	cancel   context.CancelFunc
	closed   bool
	onChange []func(State)
}

type ControllerOption func(*Controller)

func WithSavePolicy(p prefs.SavePolicy) ControllerOption {
	return func(c *Controller) { c.policy = p }
}

func WithControllerLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

func NewController(loader SnapshotLoader, writer PreferenceWriter, opts ...ControllerOption) *Controller {
	base, cancel := context.WithCancel(context.Background())
	c := &Controller{
		loader:     loader,
		writer:     writer,
		policy:     prefs.SaveAll,
		base:       base,
		baseCancel: cancel,
		pending:    prefs.NewPendingEdit(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// OnChange registers fn to receive every state transition. Hooks run on
// the goroutine that caused the transition, after the controller lock is
// released.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	st := State{
		Phase:   c.phase,
		Address: c.address,
		Pending: c.pending.Values(),
		Err:     c.err,
		TxHash:  c.txHash,
	}
	if c.snapshot != nil {
		snap := c.snapshot.Clone()
		st.Snapshot = &snap
	}
	return st
}

// setLocked moves to phase and returns what the hooks should see.
func (c *Controller) setLocked(phase Phase, err error) (State, []func(State)) {
	c.phase = phase
	c.err = err
	hooks := append([]func(State){}, c.onChange...)
	return c.stateLocked(), hooks
}

func notify(st State, hooks []func(State)) {
	for _, fn := range hooks {
		fn(st)
	}
}

// beginLocked starts a new generation bound to the controller's lifetime,
// cancelling the previous one.
func (c *Controller) beginLocked() (uint64, context.Context) {
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	return c.gen, ctx
}

func (c *Controller) endLocked(gen uint64) {
	if c.gen == gen && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Load replaces the snapshot with a fresh one for addr. Loading the
// address a save is running for is rejected; loading any other address
// cancels that save and drops its edits.
func (c *Controller) Load(ctx context.Context, addr common.Address) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.phase.busy() && c.address == addr {
		c.mu.Unlock()
		return ErrSaveInProgress
	}
	if c.address != addr {
		c.snapshot = nil
		c.pending.Clear()
		c.txHash = common.Hash{}
	}
	c.address = addr
	gen, opCtx := c.beginLocked()
	st, hooks := c.setLocked(PhaseLoading, nil)
	c.mu.Unlock()
	notify(st, hooks)

	stop := context.AfterFunc(ctx, func() { c.cancelGen(gen) })
	snap, err := c.loader.LoadSnapshot(opCtx, addr)
	stop()
	err = callerErr(ctx, err)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.endLocked(gen)
	if err != nil {
		c.logger.Error("loading preferences failed", "address", addr.Hex(), "error", err)
		st, hooks = c.setLocked(PhaseFailed, err)
		c.mu.Unlock()
		notify(st, hooks)
		return err
	}
	c.snapshot = &snap
	switch {
	case !snap.HasName():
		st, hooks = c.setLocked(PhaseFailed, ErrNoName)
		err = ErrNoName
	case c.pending.Empty():
		st, hooks = c.setLocked(PhaseLoaded, nil)
	default:
		st, hooks = c.setLocked(PhaseEditing, nil)
	}
	c.mu.Unlock()
	notify(st, hooks)
	return err
}

// callerErr reports the caller's own ctx error, e.g. DeadlineExceeded,
// instead of the Canceled it caused on the internal context.
func callerErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (c *Controller) cancelGen(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endLocked(gen)
}

func (c *Controller) editableLocked() error {
	switch {
	case c.closed:
		return ErrClosed
	case c.phase.busy():
		return ErrSaveInProgress
	case c.phase == PhaseIdle || c.phase == PhaseLoading || c.snapshot == nil:
		return ErrNotLoaded
	case !c.snapshot.HasName():
		return ErrNoName
	}
	return nil
}

// Edit records a new value for key. Nothing is written until Save.
func (c *Controller) Edit(key prefs.Key, value string) error {
	if err := prefs.ValidateValue(key, value); err != nil {
		return err
	}
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.pending.Set(key, value); err != nil {
		c.mu.Unlock()
		return err
	}
	st, hooks := c.setLocked(PhaseEditing, nil)
	c.mu.Unlock()
	notify(st, hooks)
	return nil
}

func (c *Controller) Discard() error {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.pending.Clear()
	st, hooks := c.setLocked(PhaseLoaded, nil)
	c.mu.Unlock()
	notify(st, hooks)
	return nil
}

// Confirmation reports the outcome of a save that was accepted by the
// network.
type Confirmation struct {
	Hash common.Hash
	done chan struct{}
	err  error
}

func (cf *Confirmation) finish(err error) {
	cf.err = err
	close(cf.done)
}

func (cf *Confirmation) Done() <-chan struct{} {
	return cf.done
}

// Wait blocks until the write is mined and the snapshot reloaded.
func (cf *Confirmation) Wait(ctx context.Context) error {
	select {
	case <-cf.done:
		return cf.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Save submits the pending edit as one batched write and returns once a
// node accepted it. Confirmation and the reload that follows run in the
// background. On failure the controller moves to PhaseFailed and keeps the
// pending edit for a retry.
// Plan returns the request Save would submit right now, or the error Save
// would fail with before submitting anything.
func (c *Controller) Plan() (prefs.WriteRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return prefs.WriteRequest{}, err
	}
	return c.planLocked()
}

func (c *Controller) planLocked() (prefs.WriteRequest, error) {
	snap := c.snapshot.Clone()
	if c.policy == prefs.SaveAll {
		if missing := prefs.Unverified(snap, c.pending); len(missing) > 0 {
			return prefs.WriteRequest{}, &IncompleteSnapshotError{Keys: missing}
		}
	}
	req := prefs.BuildWriteRequest(*snap.Node, snap, c.pending, c.policy)
	if len(req.Edits) == 0 {
		return prefs.WriteRequest{}, ErrNothingToSave
	}
	return req, nil
}

func (c *Controller) Save(ctx context.Context) (*Confirmation, error) {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	req, err := c.planLocked()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	addr := c.address
	gen, opCtx := c.beginLocked()
	c.txHash = common.Hash{}
	st, hooks := c.setLocked(PhaseSaving, nil)
	c.mu.Unlock()
	notify(st, hooks)

	c.logger.Info("saving preferences",
		"address", addr.Hex(),
		"node", req.Node.Hex(),
		"keys", len(req.Edits),
		"policy", c.policy.String(),
	)

	// The caller's ctx only bounds submission. Once a node accepted the tx
	// it is confirmed on opCtx, which the caller cannot cancel.
	submitCtx, cancelSubmit := context.WithCancel(opCtx)
	defer cancelSubmit()
	stop := context.AfterFunc(ctx, cancelSubmit)
	pw, err := c.writer.WritePreferences(submitCtx, req.Node, req.Edits)
	if err != nil {
		stop()
		return nil, c.failSave(gen, callerErr(ctx, err))
	}
	// submission watches submitCtx, so its outcome always arrives
	hash, err := pw.Accepted(context.Background())
	stop()
	if err != nil {
		return nil, c.failSave(gen, callerErr(ctx, err))
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return nil, ErrSuperseded
	}
	c.txHash = hash
	st, hooks = c.setLocked(PhaseConfirming, nil)
	c.mu.Unlock()
	notify(st, hooks)

	conf := &Confirmation{Hash: hash, done: make(chan struct{})}
	c.wg.Add(1)
	go c.confirm(opCtx, gen, addr, pw, conf)
	return conf, nil
}

func (c *Controller) failSave(gen uint64, err error) error {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.endLocked(gen)
	c.logger.Error("saving preferences failed", "address", c.address.Hex(), "error", err)
	st, hooks := c.setLocked(PhaseFailed, err)
	c.mu.Unlock()
	notify(st, hooks)
	return err
}

func (c *Controller) confirm(ctx context.Context, gen uint64, addr common.Address, pw *records.PendingWrite, conf *Confirmation) {
	defer c.wg.Done()

	if err := pw.Wait(ctx); err != nil {
		conf.finish(c.failSave(gen, err))
		return
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		conf.finish(ErrSuperseded)
		return
	}
	// the edit is on chain now, a failed reload must not resubmit it
	c.pending.Clear()
	c.mu.Unlock()

	snap, err := c.loader.LoadSnapshot(ctx, addr)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		conf.finish(ErrSuperseded)
		return
	}
	c.endLocked(gen)
	var (
		st    State
		hooks []func(State)
	)
	if err != nil {
		c.logger.Error("reloading after save failed", "address", addr.Hex(), "tx", conf.Hash.Hex(), "error", err)
		st, hooks = c.setLocked(PhaseFailed, err)
	} else {
		c.snapshot = &snap
		st, hooks = c.setLocked(PhaseLoaded, nil)
	}
	c.mu.Unlock()
	notify(st, hooks)
	conf.finish(err)
}

// Close cancels everything in flight and waits for background
// confirmations to stop.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.gen++
	c.baseCancel()
	c.cancel = nil
	c.mu.Unlock()
	c.wg.Wait()
}
