package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"umbrella-station/core/reconcile"
	"umbrella-station/feature/rental/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultGracePeriod is the loan length.
const DefaultGracePeriod = 72 * time.Hour

// AnyUnit asks Return to pick the account's oldest outstanding unit.
const AnyUnit = 0

// Actuator drives the physical unlock for a unit. It runs after validation
// and before the ledger write; an error aborts the operation.
type Actuator func(ctx context.Context, unit int) error

// Ledger is the durable rental record plus the cached occupancy snapshot.
// All mutations are serialized by a single lock.
type Ledger struct {
	mu     sync.Mutex
	db     *gorm.DB
	cache  *reconcile.SnapshotCache
	policy reconcile.Policy
	grace  time.Duration
	slots  int
	recent int
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithGracePeriod sets the loan length.
func WithGracePeriod(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.grace = d
		}
	}
}

// WithPolicy sets the transition policy used to flip snapshot entries.
func WithPolicy(p reconcile.Policy) Option {
	return func(l *Ledger) { l.policy = p }
}

// WithSlots sets the minimum snapshot length when nothing is persisted yet.
func WithSlots(n int) Option {
	return func(l *Ledger) { l.slots = n }
}

// WithHistoryLimit sets how many closed rentals HistoryFor returns.
func WithHistoryLimit(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.recent = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// New creates a ledger on db. The tables must already exist (see models.Migrate).
func New(db *gorm.DB, opts ...Option) *Ledger {
	l := &Ledger{
		db:     db,
		policy: reconcile.PolicyWithdrawBorrows,
		grace:  DefaultGracePeriod,
		recent: 10,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.cache = reconcile.NewSnapshotCache(l.loadSnapshot)
	return l
}

// clock returns the current time in UTC so stored timestamps compare
// consistently on every driver.
func (l *Ledger) clock() time.Time {
	return l.now().UTC()
}

// docked is the state of a slot whose unit is not rented. Slots the sensors
// have not reported yet are assumed to hold their unit.
func (l *Ledger) docked() reconcile.State {
	return l.policy.SlotAfter(reconcile.ActionReturn)
}

// Load reads the durable snapshot into the cache.
func (l *Ledger) Load(ctx context.Context) error {
	l.cache.Invalidate()
	_, err := l.cache.Get(ctx)
	return err
}

// Borrow records unit as held by account.
func (l *Ledger) Borrow(ctx context.Context, account string, unit int) (*models.Receipt, error) {
	return l.BorrowWith(ctx, account, unit, nil)
}

// BorrowWith is Borrow with a physical unlock step between validation and
// the ledger write.
func (l *Ledger) BorrowWith(ctx context.Context, account string, unit int, actuate Actuator) (*models.Receipt, error) {
	if unit < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidUnit, unit)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ok, err := l.accountExists(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account)
	}

	held, err := l.findRental(ctx, unit)
	if err != nil {
		return nil, fmt.Errorf("failed to look up unit %d: %w", unit, err)
	}
	if held != nil {
		return nil, fmt.Errorf("%w: unit %d held by %s", ErrAlreadyRented, unit, held.Account)
	}

	snap, err := l.cache.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if actuate != nil {
		if err := actuate(ctx, unit); err != nil {
			return nil, err
		}
	}

	now := l.clock()
	rental := models.Rental{
		Unit:       unit,
		Account:    account,
		BorrowedAt: now,
		DueAt:      now.Add(l.grace),
	}
	after := l.policy.SlotAfter(reconcile.ActionBorrow)
	if err := l.commitBorrow(ctx, rental, models.Slot{Number: unit, State: after.String(), UpdatedAt: now}); err != nil {
		return nil, fmt.Errorf("failed to record borrow of unit %d: %w", unit, err)
	}
	l.cache.Set(snap.With(unit, after, l.docked()))

	l.logger.Info("Unit borrowed",
		zap.String("account", account),
		zap.Int("unit", unit),
		zap.Time("due_at", rental.DueAt),
	)
	return &models.Receipt{
		Account:    account,
		Unit:       unit,
		BorrowedAt: rental.BorrowedAt,
		DueAt:      rental.DueAt,
	}, nil
}

// Return records unit as handed back by account. AnyUnit returns the
// account's oldest outstanding unit; ties go to the lower unit number.
func (l *Ledger) Return(ctx context.Context, account string, unit int) (*models.Receipt, error) {
	return l.ReturnWith(ctx, account, unit, nil)
}

// ReturnWith is Return with a physical unlock step between validation and
// the ledger write.
func (l *Ledger) ReturnWith(ctx context.Context, account string, unit int, actuate Actuator) (*models.Receipt, error) {
	if unit < AnyUnit {
		return nil, fmt.Errorf("%w: %d", ErrInvalidUnit, unit)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ok, err := l.accountExists(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account)
	}

	var rental *models.Rental
	if unit == AnyUnit {
		rental, err = l.oldestRental(ctx, account)
	} else {
		rental, err = l.findRental(ctx, unit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up rental: %w", err)
	}
	if rental == nil || rental.Account != account {
		if unit == AnyUnit {
			return nil, fmt.Errorf("%w: %s holds no units", ErrNotRented, account)
		}
		return nil, fmt.Errorf("%w: unit %d, account %s", ErrNotRented, unit, account)
	}
	unit = rental.Unit

	snap, err := l.cache.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if actuate != nil {
		if err := actuate(ctx, unit); err != nil {
			return nil, err
		}
	}

	now := l.clock()
	history := models.RentalHistory{
		Account:    account,
		Unit:       unit,
		BorrowedAt: rental.BorrowedAt,
		DueAt:      rental.DueAt,
		ReturnedAt: now,
		WasOverdue: rental.IsOverdue(now),
	}
	after := l.policy.SlotAfter(reconcile.ActionReturn)
	if err := l.commitReturn(ctx, *rental, history, models.Slot{Number: unit, State: after.String(), UpdatedAt: now}); err != nil {
		return nil, fmt.Errorf("failed to record return of unit %d: %w", unit, err)
	}
	l.cache.Set(snap.With(unit, after, l.docked()))

	l.logger.Info("Unit returned",
		zap.String("account", account),
		zap.Int("unit", unit),
		zap.Bool("was_overdue", history.WasOverdue),
	)
	return &models.Receipt{
		Account:    account,
		Unit:       unit,
		BorrowedAt: history.BorrowedAt,
		DueAt:      history.DueAt,
		ReturnedAt: &history.ReturnedAt,
		WasOverdue: history.WasOverdue,
	}, nil
}

// CurrentOccupancy returns a copy of the cached snapshot.
func (l *Ledger) CurrentOccupancy(ctx context.Context) (reconcile.Snapshot, error) {
	return l.cache.Get(ctx)
}

// ObserveSnapshot replaces the cached snapshot with a reported one and
// mirrors it to the slots table. The cache is updated even when the write
// fails; the durable copy catches up on the next observation.
func (l *Ledger) ObserveSnapshot(ctx context.Context, snap reconcile.Snapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cache.Set(snap)
	if err := upsertSlots(l.db.WithContext(ctx), slotRows(snap, l.clock())); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}

// HistoryFor returns the held units, overdue subset and recent returns of
// an account.
func (l *Ledger) HistoryFor(ctx context.Context, account string) (*models.RentalView, error) {
	ok, err := l.accountExists(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account)
	}

	rentals, err := l.rentalsFor(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to load rentals: %w", err)
	}
	var closed []models.RentalHistory
	if err := l.db.WithContext(ctx).
		Where("account = ?", account).
		Order("returned_at DESC").
		Limit(l.recent).
		Find(&closed).Error; err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	now := l.clock()
	view := &models.RentalView{
		Account: account,
		Held:    make([]models.HeldUnit, 0, len(rentals)),
		Overdue: []int{},
		Recent:  make([]models.ClosedRental, 0, len(closed)),
	}
	var updated time.Time
	for _, r := range rentals {
		overdue := r.IsOverdue(now)
		view.Held = append(view.Held, models.HeldUnit{
			Unit:       r.Unit,
			BorrowedAt: r.BorrowedAt,
			DueAt:      r.DueAt,
			Overdue:    overdue,
		})
		if overdue {
			view.Overdue = append(view.Overdue, r.Unit)
		}
		if r.BorrowedAt.After(updated) {
			updated = r.BorrowedAt
		}
	}
	for _, h := range closed {
		view.Recent = append(view.Recent, models.ClosedRental{
			Unit:       h.Unit,
			BorrowedAt: h.BorrowedAt,
			DueAt:      h.DueAt,
			ReturnedAt: h.ReturnedAt,
			WasOverdue: h.WasOverdue,
		})
		if h.ReturnedAt.After(updated) {
			updated = h.ReturnedAt
		}
	}
	sort.Ints(view.Overdue)
	if !updated.IsZero() {
		view.UpdatedAt = &updated
	}
	return view, nil
}

// AllActiveRentals lists every outstanding loan ordered by unit.
func (l *Ledger) AllActiveRentals(ctx context.Context) ([]models.ActiveRental, error) {
	var rentals []models.Rental
	if err := l.db.WithContext(ctx).Order("unit ASC").Find(&rentals).Error; err != nil {
		return nil, fmt.Errorf("failed to load rentals: %w", err)
	}
	now := l.clock()
	active := make([]models.ActiveRental, 0, len(rentals))
	for _, r := range rentals {
		active = append(active, models.ActiveRental{
			Account:    r.Account,
			Unit:       r.Unit,
			BorrowedAt: r.BorrowedAt,
			DueAt:      r.DueAt,
			Overdue:    r.IsOverdue(now),
		})
	}
	return active, nil
}

// AccountExists reports whether the account is registered.
func (l *Ledger) AccountExists(ctx context.Context, account string) (bool, error) {
	return l.accountExists(ctx, account)
}

// EnsureAccounts inserts the given accounts when missing.
func (l *Ledger) EnsureAccounts(ctx context.Context, emails []string) error {
	if len(emails) == 0 {
		return nil
	}
	rows := make([]models.Account, 0, len(emails))
	for _, email := range emails {
		rows = append(rows, models.Account{Email: email})
	}
	return l.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&rows).Error
}

// AccountTags returns the RFID tags stored on accounts, tag -> email.
func (l *Ledger) AccountTags(ctx context.Context) (map[string]string, error) {
	var accounts []models.Account
	if err := l.db.WithContext(ctx).Where("rfid_tag <> ?", "").Find(&accounts).Error; err != nil {
		return nil, err
	}
	tags := make(map[string]string, len(accounts))
	for _, a := range accounts {
		tags[a.RFIDTag] = a.Email
	}
	return tags, nil
}

// RefreshOverdue re-derives the cached overdue flag of every outstanding
// rental and returns the number of rows that changed.
func (l *Ledger) RefreshOverdue(ctx context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	db := l.db.WithContext(ctx)
	set := db.Model(&models.Rental{}).Where("due_at <= ? AND overdue = ?", now, false).Update("overdue", true)
	if set.Error != nil {
		return 0, fmt.Errorf("failed to mark overdue rentals: %w", set.Error)
	}
	unset := db.Model(&models.Rental{}).Where("due_at > ? AND overdue = ?", now, true).Update("overdue", false)
	if unset.Error != nil {
		return set.RowsAffected, fmt.Errorf("failed to clear overdue rentals: %w", unset.Error)
	}
	return set.RowsAffected + unset.RowsAffected, nil
}

// Mutator adapts the ledger to reconcile.ApplyPlan. Hardware-observed
// transitions have already happened physically, so no actuator runs.
func (l *Ledger) Mutator() reconcile.Mutator {
	return mutator{l}
}

type mutator struct{ l *Ledger }

func (m mutator) Borrow(ctx context.Context, account string, unit int) error {
	_, err := m.l.Borrow(ctx, account, unit)
	return err
}

func (m mutator) Return(ctx context.Context, account string, unit int) error {
	_, err := m.l.Return(ctx, account, unit)
	return err
}
