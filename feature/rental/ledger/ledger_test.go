package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"umbrella-station/core/database"
	"umbrella-station/core/reconcile"
	"umbrella-station/feature/rental/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func setupLedger(t *testing.T, opts ...Option) (*Ledger, *gorm.DB, *testClock) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	require.NoError(t, db.Create(&[]models.Account{
		{Email: "a@bssm.hs.kr"},
		{Email: "b@bssm.hs.kr"},
	}).Error)

	clock := &testClock{now: t0}
	opts = append([]Option{WithClock(clock.Now), WithSlots(4)}, opts...)
	return New(db, opts...), db, clock
}

func TestBorrow(t *testing.T) {
	ctx := context.Background()
	l, _, _ := setupLedger(t)

	receipt, err := l.Borrow(ctx, "a@bssm.hs.kr", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, receipt.Unit)
	assert.True(t, receipt.BorrowedAt.Equal(t0))
	assert.True(t, receipt.DueAt.Equal(t0.Add(72*time.Hour)))
	assert.Nil(t, receipt.ReturnedAt)

	view, err := l.HistoryFor(ctx, "a@bssm.hs.kr")
	require.NoError(t, err)
	require.Len(t, view.Held, 1)
	assert.Equal(t, 2, view.Held[0].Unit)
	assert.Empty(t, view.Overdue)
	require.NotNil(t, view.UpdatedAt)

	snap, err := l.CurrentOccupancy(ctx)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Snapshot{reconcile.Occupied, reconcile.Vacant, reconcile.Occupied, reconcile.Occupied}, snap)

	t.Run("same account again", func(t *testing.T) {
		_, err := l.Borrow(ctx, "a@bssm.hs.kr", 2)
		assert.ErrorIs(t, err, ErrAlreadyRented)
	})

	t.Run("other account", func(t *testing.T) {
		_, err := l.Borrow(ctx, "b@bssm.hs.kr", 2)
		assert.ErrorIs(t, err, ErrAlreadyRented)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := l.Borrow(ctx, "nobody@bssm.hs.kr", 3)
		assert.ErrorIs(t, err, ErrUnknownAccount)
	})

	t.Run("invalid unit", func(t *testing.T) {
		_, err := l.Borrow(ctx, "a@bssm.hs.kr", 0)
		assert.ErrorIs(t, err, ErrInvalidUnit)
	})

	active, err := l.AllActiveRentals(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestReturnWithoutBorrow(t *testing.T) {
	ctx := context.Background()
	l, _, _ := setupLedger(t)

	_, err := l.Return(ctx, "a@bssm.hs.kr", 1)
	assert.ErrorIs(t, err, ErrNotRented)

	_, err = l.Return(ctx, "a@bssm.hs.kr", AnyUnit)
	assert.ErrorIs(t, err, ErrNotRented)

	_, err = l.Borrow(ctx, "b@bssm.hs.kr", 1)
	require.NoError(t, err)
	_, err = l.Return(ctx, "a@bssm.hs.kr", 1)
	assert.ErrorIs(t, err, ErrNotRented, "a unit held by someone else")

	_, err = l.Return(ctx, "nobody@bssm.hs.kr", 1)
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestBorrowReturnRoundTrip(t *testing.T) {
	ctx := context.Background()
	l, _, clock := setupLedger(t)

	before, err := l.CurrentOccupancy(ctx)
	require.NoError(t, err)
	viewBefore, err := l.HistoryFor(ctx, "a@bssm.hs.kr")
	require.NoError(t, err)

	_, err = l.Borrow(ctx, "a@bssm.hs.kr", 3)
	require.NoError(t, err)
	clock.now = t0.Add(time.Hour)
	receipt, err := l.Return(ctx, "a@bssm.hs.kr", 3)
	require.NoError(t, err)
	assert.False(t, receipt.WasOverdue)
	require.NotNil(t, receipt.ReturnedAt)

	after, err := l.CurrentOccupancy(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	viewAfter, err := l.HistoryFor(ctx, "a@bssm.hs.kr")
	require.NoError(t, err)
	assert.Equal(t, viewBefore.Held, viewAfter.Held)
	assert.Equal(t, viewBefore.Overdue, viewAfter.Overdue)
	require.Len(t, viewAfter.Recent, 1)
	assert.Equal(t, 3, viewAfter.Recent[0].Unit)
	assert.True(t, viewAfter.UpdatedAt.Equal(clock.now))
}

func TestBorrowReturnWithoutSlotCount(t *testing.T) {
	ctx := context.Background()
	O, V := reconcile.Occupied, reconcile.Vacant

	t.Run("empty snapshot", func(t *testing.T) {
		l, db, _ := setupLedger(t, WithSlots(0))
		before, err := l.CurrentOccupancy(ctx)
		require.NoError(t, err)
		assert.Empty(t, before)

		_, err = l.Borrow(ctx, "a@bssm.hs.kr", 3)
		require.NoError(t, err)
		mid, err := l.CurrentOccupancy(ctx)
		require.NoError(t, err)
		assert.Equal(t, reconcile.Snapshot{O, O, V}, mid, "unreported slots hold their unit")

		restarted := New(db)
		require.NoError(t, restarted.Load(ctx))
		reloaded, err := restarted.CurrentOccupancy(ctx)
		require.NoError(t, err)
		assert.Equal(t, mid, reloaded)

		_, err = l.Return(ctx, "a@bssm.hs.kr", 3)
		require.NoError(t, err)
		after, err := l.CurrentOccupancy(ctx)
		require.NoError(t, err)
		assert.Equal(t, reconcile.Snapshot{O, O, O}, after)
	})

	t.Run("unit beyond reported vector", func(t *testing.T) {
		l, _, _ := setupLedger(t, WithSlots(0))
		require.NoError(t, l.ObserveSnapshot(ctx, reconcile.Snapshot{O, O, O}))

		_, err := l.Borrow(ctx, "a@bssm.hs.kr", 5)
		require.NoError(t, err)
		mid, err := l.CurrentOccupancy(ctx)
		require.NoError(t, err)
		assert.Equal(t, reconcile.Snapshot{O, O, O, O, V}, mid)

		active, err := l.AllActiveRentals(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)

		_, err = l.Return(ctx, "a@bssm.hs.kr", 5)
		require.NoError(t, err)
		after, err := l.CurrentOccupancy(ctx)
		require.NoError(t, err)
		assert.Equal(t, reconcile.Snapshot{O, O, O, O, O}, after)
	})

	t.Run("unit inside reported vector", func(t *testing.T) {
		l, _, _ := setupLedger(t, WithSlots(0))
		before := reconcile.Snapshot{O, V, O}
		require.NoError(t, l.ObserveSnapshot(ctx, before))

		_, err := l.Borrow(ctx, "b@bssm.hs.kr", 3)
		require.NoError(t, err)
		_, err = l.Return(ctx, "b@bssm.hs.kr", 3)
		require.NoError(t, err)

		after, err := l.CurrentOccupancy(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestOverdueBoundary(t *testing.T) {
	ctx := context.Background()
	l, _, clock := setupLedger(t)
	due := t0.Add(DefaultGracePeriod)

	_, err := l.Borrow(ctx, "a@bssm.hs.kr", 1)
	require.NoError(t, err)

	clock.now = due.Add(-time.Second)
	view, err := l.HistoryFor(ctx, "a@bssm.hs.kr")
	require.NoError(t, err)
	assert.Empty(t, view.Overdue)

	clock.now = due
	view, err = l.HistoryFor(ctx, "a@bssm.hs.kr")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, view.Overdue)

	clock.now = due.Add(time.Hour)
	receipt, err := l.Return(ctx, "a@bssm.hs.kr", 1)
	require.NoError(t, err)
	assert.True(t, receipt.WasOverdue)

	view, err = l.HistoryFor(ctx, "a@bssm.hs.kr")
	require.NoError(t, err)
	assert.Empty(t, view.Overdue)
	require.Len(t, view.Recent, 1)
	assert.True(t, view.Recent[0].WasOverdue)
}

func TestReturnOldest(t *testing.T) {
	ctx := context.Background()
	l, _, clock := setupLedger(t)
	account := "a@bssm.hs.kr"

	_, err := l.Borrow(ctx, account, 3)
	require.NoError(t, err)
	_, err = l.Borrow(ctx, account, 2)
	require.NoError(t, err)
	clock.now = t0.Add(time.Hour)
	_, err = l.Borrow(ctx, account, 1)
	require.NoError(t, err)

	for _, want := range []int{2, 3, 1} {
		receipt, err := l.Return(ctx, account, AnyUnit)
		require.NoError(t, err)
		assert.Equal(t, want, receipt.Unit)
	}

	_, err = l.Return(ctx, account, AnyUnit)
	assert.ErrorIs(t, err, ErrNotRented)
}

func TestActuator(t *testing.T) {
	ctx := context.Background()
	errNoAck := errors.New("no ack")

	t.Run("failure leaves ledger unchanged", func(t *testing.T) {
		l, _, _ := setupLedger(t)
		before, err := l.CurrentOccupancy(ctx)
		require.NoError(t, err)

		_, err = l.BorrowWith(ctx, "a@bssm.hs.kr", 2, func(context.Context, int) error { return errNoAck })
		assert.ErrorIs(t, err, errNoAck)

		active, err := l.AllActiveRentals(ctx)
		require.NoError(t, err)
		assert.Empty(t, active)
		after, err := l.CurrentOccupancy(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("runs after validation", func(t *testing.T) {
		l, _, _ := setupLedger(t)
		var called []int
		actuate := func(_ context.Context, unit int) error {
			called = append(called, unit)
			return nil
		}

		_, err := l.BorrowWith(ctx, "nobody@bssm.hs.kr", 2, actuate)
		assert.ErrorIs(t, err, ErrUnknownAccount)
		assert.Empty(t, called)

		_, err = l.BorrowWith(ctx, "a@bssm.hs.kr", 2, actuate)
		require.NoError(t, err)
		_, err = l.ReturnWith(ctx, "a@bssm.hs.kr", AnyUnit, actuate)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 2}, called)
	})

	t.Run("return failure keeps rental", func(t *testing.T) {
		l, _, _ := setupLedger(t)
		_, err := l.Borrow(ctx, "a@bssm.hs.kr", 4)
		require.NoError(t, err)

		_, err = l.ReturnWith(ctx, "a@bssm.hs.kr", 4, func(context.Context, int) error { return errNoAck })
		assert.ErrorIs(t, err, errNoAck)

		active, err := l.AllActiveRentals(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, 4, active[0].Unit)
	})
}

func TestRefreshOverdue(t *testing.T) {
	ctx := context.Background()
	l, db, clock := setupLedger(t)

	_, err := l.Borrow(ctx, "a@bssm.hs.kr", 1)
	require.NoError(t, err)
	_, err = l.Borrow(ctx, "b@bssm.hs.kr", 2)
	require.NoError(t, err)

	n, err := l.RefreshOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	clock.now = t0.Add(DefaultGracePeriod)
	n, err = l.RefreshOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var rental models.Rental
	require.NoError(t, db.Where("unit = ?", 1).Take(&rental).Error)
	assert.True(t, rental.Overdue)

	n, err = l.RefreshOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSnapshotPersistence(t *testing.T) {
	ctx := context.Background()

	t.Run("observed snapshot survives restart", func(t *testing.T) {
		l, db, _ := setupLedger(t)
		observed := reconcile.Snapshot{reconcile.Occupied, reconcile.Vacant, reconcile.Occupied, reconcile.Vacant, reconcile.Occupied}
		require.NoError(t, l.ObserveSnapshot(ctx, observed))

		restarted := New(db, WithSlots(4))
		require.NoError(t, restarted.Load(ctx))
		snap, err := restarted.CurrentOccupancy(ctx)
		require.NoError(t, err)
		assert.Equal(t, observed, snap)
	})

	t.Run("missing slot rows derive from rentals", func(t *testing.T) {
		_, db, _ := setupLedger(t)
		require.NoError(t, db.Create(&models.Rental{
			Unit: 2, Account: "a@bssm.hs.kr", BorrowedAt: t0, DueAt: t0.Add(DefaultGracePeriod),
		}).Error)

		l := New(db, WithSlots(3))
		snap, err := l.CurrentOccupancy(ctx)
		require.NoError(t, err)
		assert.Equal(t, reconcile.Snapshot{reconcile.Occupied, reconcile.Vacant, reconcile.Occupied}, snap)
	})

	t.Run("inverse policy", func(t *testing.T) {
		l, _, _ := setupLedger(t, WithPolicy(reconcile.PolicyWithdrawReturns), WithSlots(2))
		_, err := l.Borrow(ctx, "a@bssm.hs.kr", 1)
		require.NoError(t, err)

		snap, err := l.CurrentOccupancy(ctx)
		require.NoError(t, err)
		assert.Equal(t, reconcile.Snapshot{reconcile.Occupied, reconcile.Vacant}, snap)
	})
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	l, db, _ := setupLedger(t)

	require.NoError(t, l.EnsureAccounts(ctx, []string{"a@bssm.hs.kr", "2@bssm.hs.kr"}))
	ok, err := l.AccountExists(ctx, "2@bssm.hs.kr")
	require.NoError(t, err)
	assert.True(t, ok)

	var count int64
	require.NoError(t, db.Model(&models.Account{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	require.NoError(t, db.Model(&models.Account{}).Where("email = ?", "b@bssm.hs.kr").Update("rfid_tag", "0x01 0x02").Error)
	tags, err := l.AccountTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"0x01 0x02": "b@bssm.hs.kr"}, tags)

	_, err = l.HistoryFor(ctx, "nobody@bssm.hs.kr")
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestMutator(t *testing.T) {
	ctx := context.Background()
	l, _, _ := setupLedger(t)

	plan := reconcile.BuildPlan("a@bssm.hs.kr",
		reconcile.Snapshot{reconcile.Occupied, reconcile.Occupied, reconcile.Occupied},
		reconcile.Snapshot{reconcile.Vacant, reconcile.Occupied, reconcile.Vacant},
		reconcile.PolicyWithdrawBorrows,
	)
	outcomes := reconcile.ApplyPlan(ctx, plan, l.Mutator(), reconcile.ReconcileOptions{})
	require.Len(t, outcomes, 2)
	assert.Empty(t, reconcile.Failed(outcomes))

	view, err := l.HistoryFor(ctx, "a@bssm.hs.kr")
	require.NoError(t, err)
	require.Len(t, view.Held, 2)
	assert.Equal(t, 1, view.Held[0].Unit)
	assert.Equal(t, 3, view.Held[1].Unit)
}

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestBorrowDatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `accounts`").
		WithArgs("a@bssm.hs.kr").
		WillReturnError(errors.New("connection reset"))

	l := New(db)
	_, err := l.Borrow(context.Background(), "a@bssm.hs.kr", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NotErrorIs(t, err, ErrUnknownAccount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshOverdueQueries(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `rentals` SET `overdue`=\\? WHERE due_at <= \\? AND overdue = \\?").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `rentals` SET `overdue`=\\? WHERE due_at > \\? AND overdue = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	l := New(db, WithClock(func() time.Time { return t0 }))
	n, err := l.RefreshOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
