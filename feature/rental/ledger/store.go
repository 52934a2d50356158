package ledger

import (
	"context"
	"errors"
	"time"

	"umbrella-station/core/reconcile"
	"umbrella-station/feature/rental/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Persistence helpers. Callers hold the ledger lock.

func (l *Ledger) accountExists(ctx context.Context, account string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.Account{}).Where("email = ?", account).Count(&count).Error
	return count > 0, err
}

func (l *Ledger) findRental(ctx context.Context, unit int) (*models.Rental, error) {
	var rental models.Rental
	err := l.db.WithContext(ctx).Where("unit = ?", unit).Take(&rental).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

func (l *Ledger) oldestRental(ctx context.Context, account string) (*models.Rental, error) {
	var rental models.Rental
	err := l.db.WithContext(ctx).
		Where("account = ?", account).
		Order("borrowed_at ASC").
		Order("unit ASC").
		Take(&rental).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

func (l *Ledger) rentalsFor(ctx context.Context, account string) ([]models.Rental, error) {
	var rentals []models.Rental
	err := l.db.WithContext(ctx).
		Where("account = ?", account).
		Order("borrowed_at ASC").
		Order("unit ASC").
		Find(&rentals).Error
	return rentals, err
}

func upsertSlots(tx *gorm.DB, slots []models.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "number"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&slots).Error
}

// refreshAccountOverdue re-derives the cached overdue flag for one account.
func refreshAccountOverdue(tx *gorm.DB, account string, now time.Time) error {
	if err := tx.Model(&models.Rental{}).
		Where("account = ? AND due_at <= ? AND overdue = ?", account, now, false).
		Update("overdue", true).Error; err != nil {
		return err
	}
	return tx.Model(&models.Rental{}).
		Where("account = ? AND due_at > ? AND overdue = ?", account, now, true).
		Update("overdue", false).Error
}

func (l *Ledger) commitBorrow(ctx context.Context, rental models.Rental, slot models.Slot) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rental).Error; err != nil {
			return err
		}
		if err := upsertSlots(tx, []models.Slot{slot}); err != nil {
			return err
		}
		return refreshAccountOverdue(tx, rental.Account, rental.BorrowedAt)
	})
}

func (l *Ledger) commitReturn(ctx context.Context, rental models.Rental, history models.RentalHistory, slot models.Slot) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("unit = ? AND account = ?", rental.Unit, rental.Account).Delete(&models.Rental{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotRented
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		if err := upsertSlots(tx, []models.Slot{slot}); err != nil {
			return err
		}
		return refreshAccountOverdue(tx, rental.Account, history.ReturnedAt)
	})
}

// loadSnapshot rebuilds the snapshot from the slots table. Slots without a
// row are derived from the rentals table: rented units are withdrawn, the
// rest docked.
func (l *Ledger) loadSnapshot(ctx context.Context) (reconcile.Snapshot, error) {
	var slots []models.Slot
	if err := l.db.WithContext(ctx).Order("number ASC").Find(&slots).Error; err != nil {
		return nil, err
	}
	var units []int
	if err := l.db.WithContext(ctx).Model(&models.Rental{}).Pluck("unit", &units).Error; err != nil {
		return nil, err
	}

	size := l.slots
	for _, s := range slots {
		size = max(size, s.Number)
	}
	for _, u := range units {
		size = max(size, u)
	}

	snap := make(reconcile.Snapshot, size)
	for i := range snap {
		snap[i] = l.docked()
	}
	for _, u := range units {
		if u >= 1 {
			snap[u-1] = l.policy.SlotAfter(reconcile.ActionBorrow)
		}
	}
	for _, s := range slots {
		st, err := reconcile.ParseState(s.State)
		if err != nil || st == reconcile.Unknown || s.Number < 1 {
			continue
		}
		snap[s.Number-1] = st
	}
	return snap, nil
}

func slotRows(snap reconcile.Snapshot, now time.Time) []models.Slot {
	rows := make([]models.Slot, 0, len(snap))
	for i, st := range snap {
		if st == reconcile.Unknown {
			continue
		}
		rows = append(rows, models.Slot{Number: i + 1, State: st.String(), UpdatedAt: now})
	}
	return rows
}
