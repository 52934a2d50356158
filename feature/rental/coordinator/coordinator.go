package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"umbrella-station/core/channel"
	"umbrella-station/core/logger"
	"umbrella-station/core/reconcile"
	"umbrella-station/feature/rental/archive"
	"umbrella-station/feature/rental/identity"
	"umbrella-station/feature/rental/ledger"
	"umbrella-station/feature/rental/models"

	"go.uber.org/zap"
)

// ErrAuthenticationRequired is returned by direct operations when neither an
// explicit account nor a pending identity is available.
var ErrAuthenticationRequired = errors.New("authentication required")

// ErrEmptySnapshot is returned for occupancy payloads without a single
// readable token.
var ErrEmptySnapshot = errors.New("occupancy payload has no readable slots")

// State is the gate state.
type State int

const (
	// Idle means no identity is pending.
	Idle State = iota
	// AwaitingOccupancy means an identity was resolved and the next
	// occupancy event will be attributed to it.
	AwaitingOccupancy
)

// String returns the state name.
func (s State) String() string {
	if s == AwaitingOccupancy {
		return "awaiting_occupancy"
	}
	return "idle"
}

// Options configures how occupancy payloads are read and applied.
type Options struct {
	Encoding reconcile.Encoding
	Policy   reconcile.Policy
	// TrackUnauthenticated keeps the cached snapshot in line with the
	// sensors even when no identity is pending.
	TrackUnauthenticated bool
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		Encoding:             reconcile.DefaultEncoding,
		Policy:               reconcile.PolicyWithdrawBorrows,
		TrackUnauthenticated: true,
	}
}

// Result describes one processed occupancy event.
type Result struct {
	Plan          *reconcile.Plan     `json:"plan"`
	Outcomes      []reconcile.Outcome `json:"outcomes"`
	Authenticated bool                `json:"authenticated"`
	// SnapshotUpdated is false when the cached snapshot was left alone.
	SnapshotUpdated bool `json:"snapshotUpdated"`
}

// Coordinator correlates identity scans with the following occupancy change
// and drives the ledger. Every operation runs under one lock; the ledger
// lock is only ever taken inside it.
type Coordinator struct {
	mu       sync.Mutex
	pending  string
	resolver *identity.Resolver
	ledger   *ledger.Ledger
	channel  channel.Channel
	journal  archive.Journal
	opts     Options
	logger   *zap.Logger
}

// New creates a coordinator. ch may be nil, in which case direct operations
// do not drive the hardware.
func New(resolver *identity.Resolver, l *ledger.Ledger, ch channel.Channel, journal archive.Journal, opts Options, logger *zap.Logger) *Coordinator {
	if journal == nil {
		journal = archive.Nop{}
	}
	return &Coordinator{
		resolver: resolver,
		ledger:   l,
		channel:  ch,
		journal:  journal,
		opts:     opts,
		logger:   logger,
	}
}

// State returns the current gate state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == "" {
		return Idle
	}
	return AwaitingOccupancy
}

// Pending returns the pending account, if any.
func (c *Coordinator) Pending() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending, c.pending != ""
}

// Run consumes the hardware channel until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	if c.channel == nil {
		return fmt.Errorf("no hardware channel configured")
	}
	c.logger.Info("Consuming station events")
	return c.channel.Subscribe(ctx, c.HandleMessage)
}

// HandleMessage dispatches one channel message. Errors are logged; a bad
// message never stops consumption.
func (c *Coordinator) HandleMessage(ctx context.Context, msg channel.Message) {
	switch msg.Kind {
	case channel.KindIdentity:
		_, _ = c.HandleIdentity(ctx, msg.Payload)
	case channel.KindOccupancy:
		_, _ = c.HandleOccupancy(ctx, msg.Payload)
	default:
		c.logger.Debug("Ignoring message", zap.String("topic", msg.Topic))
	}
}

// HandleIdentity resolves a scanned tag and, on success, makes the account
// the pending identity. The latest successful scan wins. Unknown tags leave
// the gate unchanged.
func (c *Coordinator) HandleIdentity(ctx context.Context, raw []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	event := &archive.Event{Kind: archive.KindIdentity, Payload: string(raw)}
	defer c.record(ctx, event)

	account, err := c.resolver.Resolve(raw)
	if err != nil {
		c.logger.Warn("Unresolved identity", zap.String("tag", identity.Normalize(string(raw))), zap.Error(err))
		event.Error = err.Error()
		return "", err
	}

	if c.pending != "" && c.pending != account {
		c.logger.Info("Replacing pending identity", zap.String("previous", c.pending), zap.String("account", account))
	}
	c.pending = account
	event.Account = account
	logger.WithAccount(c.logger, account).Info("Identity resolved, awaiting occupancy")
	return account, nil
}

// HandleOccupancy diffs a reported snapshot against the cache and applies the
// resulting borrows and returns to the pending account. The pending identity
// is cleared whatever happens.
func (c *Coordinator) HandleOccupancy(ctx context.Context, payload []byte) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	account := c.pending
	c.pending = ""

	event := &archive.Event{Kind: archive.KindOccupancy, Account: account, Payload: string(payload)}
	defer c.record(ctx, event)
	l := logger.WithAccount(c.logger, account)

	plan, err := c.plan(ctx, account, payload)
	if err != nil {
		l.Warn("Dropping occupancy event", zap.ByteString("payload", payload), zap.Error(err))
		event.Error = err.Error()
		return nil, err
	}
	event.Transitions = plan.Transitions
	if plan.Summary.Unreadable > 0 {
		l.Warn("Occupancy payload has unreadable slots",
			zap.ByteString("payload", payload),
			zap.Int("unreadable", plan.Summary.Unreadable),
		)
	}

	result := &Result{Plan: plan, Outcomes: []reconcile.Outcome{}, Authenticated: account != ""}

	if account == "" {
		if len(plan.Transitions) > 0 {
			l.Warn("Unauthenticated state change", zap.Any("transitions", plan.Transitions))
		}
		if c.opts.TrackUnauthenticated {
			c.observe(ctx, plan.Current)
			result.SnapshotUpdated = true
		}
		return result, nil
	}

	result.Outcomes = reconcile.ApplyPlan(ctx, plan, c.ledger.Mutator(), reconcile.ReconcileOptions{})
	for _, failed := range reconcile.Failed(result.Outcomes) {
		l.Error("Ledger update failed",
			zap.String("action", string(failed.Action.Type)),
			zap.Int("unit", failed.Action.Unit),
			zap.String("error", failed.Error),
		)
	}
	event.Outcomes = result.Outcomes
	c.observe(ctx, plan.Current)
	result.SnapshotUpdated = true

	l.Info("Occupancy reconciled",
		zap.Int("transitions", len(plan.Transitions)),
		zap.Int("borrows", plan.Summary.Borrows),
		zap.Int("returns", plan.Summary.Returns),
		zap.Int("failed", len(reconcile.Failed(result.Outcomes))),
	)
	return result, nil
}

// Preview builds the plan an occupancy payload would produce for account
// without touching any state.
func (c *Coordinator) Preview(ctx context.Context, account string, payload []byte) (*reconcile.Plan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plan(ctx, account, payload)
}

func (c *Coordinator) plan(ctx context.Context, account string, payload []byte) (*reconcile.Plan, error) {
	current, valid := c.opts.Encoding.Parse(payload)
	if valid == 0 {
		return nil, ErrEmptySnapshot
	}
	previous, err := c.ledger.CurrentOccupancy(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached snapshot: %w", err)
	}
	return reconcile.BuildPlan(account, previous, current, c.opts.Policy), nil
}

func (c *Coordinator) observe(ctx context.Context, snap reconcile.Snapshot) {
	if err := c.ledger.ObserveSnapshot(ctx, snap); err != nil {
		// The cache is already updated; only the durable mirror lags.
		c.logger.Error("Failed to persist snapshot", zap.Error(err))
	}
}

// Borrow dispenses unit for a direct request. explicitAccount comes from the
// caller's own authentication; when empty the pending identity is consumed.
func (c *Coordinator) Borrow(ctx context.Context, unit int, explicitAccount string) (*models.Receipt, error) {
	return c.direct(ctx, archive.KindBorrow, unit, explicitAccount)
}

// Return accepts unit back for a direct request. ledger.AnyUnit returns the
// account's oldest outstanding unit.
func (c *Coordinator) Return(ctx context.Context, unit int, explicitAccount string) (*models.Receipt, error) {
	return c.direct(ctx, archive.KindReturn, unit, explicitAccount)
}

func (c *Coordinator) direct(ctx context.Context, kind string, unit int, explicitAccount string) (*models.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	account := explicitAccount
	if account == "" {
		if c.pending == "" {
			return nil, ErrAuthenticationRequired
		}
		account = c.pending
		c.pending = ""
	}

	event := &archive.Event{Kind: kind, Account: account, Unit: unit}
	defer c.record(ctx, event)
	l := logger.WithAccount(c.logger, account)

	var (
		receipt *models.Receipt
		err     error
	)
	switch kind {
	case archive.KindBorrow:
		receipt, err = c.ledger.BorrowWith(ctx, account, unit, c.actuator())
	default:
		receipt, err = c.ledger.ReturnWith(ctx, account, unit, c.actuator())
	}
	if err != nil {
		l.Warn("Direct operation rejected", zap.String("kind", kind), zap.Int("unit", unit), zap.Error(err))
		event.Error = err.Error()
		return nil, err
	}
	event.Unit = receipt.Unit
	return receipt, nil
}

func (c *Coordinator) actuator() ledger.Actuator {
	if c.channel == nil {
		return nil
	}
	return c.channel.Send
}

func (c *Coordinator) record(ctx context.Context, event *archive.Event) {
	event.At = time.Now().UTC()
	if err := c.journal.Record(ctx, event); err != nil {
		c.logger.Warn("Failed to journal event", zap.String("kind", event.Kind), zap.Error(err))
	}
}
