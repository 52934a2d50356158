package models

import (
	"time"

	"gorm.io/gorm"
)

// Account is a registered user that can hold units. Rows are created by the
// registration service; the station only reads them (and seeds the accounts
// its tag table refers to).
type Account struct {
	ID        uint      `gorm:"column:id;primaryKey"`
	Email     string    `gorm:"column:email;size:191;uniqueIndex;not null"`
	RFIDTag   string    `gorm:"column:rfid_tag;size:64"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Account) TableName() string {
	return "accounts"
}

// Rental is one outstanding loan. The unit is the primary key, so a unit can
// never be held by two accounts.
type Rental struct {
	Unit       int       `gorm:"column:unit;primaryKey;autoIncrement:false"`
	Account    string    `gorm:"column:account;size:191;index;not null"`
	BorrowedAt time.Time `gorm:"column:borrowed_at;not null"`
	DueAt      time.Time `gorm:"column:due_at;index;not null"`
	Overdue    bool      `gorm:"column:overdue;not null;default:false"` // cached, see Ledger.RefreshOverdue
}

// TableName overrides the table name.
func (Rental) TableName() string {
	return "rentals"
}

// IsOverdue derives the overdue flag at now.
func (r Rental) IsOverdue(now time.Time) bool {
	return !now.Before(r.DueAt)
}

// Slot mirrors one entry of the cached occupancy snapshot.
type Slot struct {
	Number    int       `gorm:"column:number;primaryKey;autoIncrement:false"`
	State     string    `gorm:"column:state;size:16;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Slot) TableName() string {
	return "slots"
}

// RentalHistory is a closed loan.
type RentalHistory struct {
	ID         uint      `gorm:"column:id;primaryKey"`
	Account    string    `gorm:"column:account;size:191;index;not null"`
	Unit       int       `gorm:"column:unit;not null"`
	BorrowedAt time.Time `gorm:"column:borrowed_at;not null"`
	DueAt      time.Time `gorm:"column:due_at;not null"`
	ReturnedAt time.Time `gorm:"column:returned_at;index;not null"`
	WasOverdue bool      `gorm:"column:was_overdue;not null;default:false"`
}

// TableName overrides the table name.
func (RentalHistory) TableName() string {
	return "rental_history"
}

// RequiredColumns lists the columns the ledger reads and writes, per table.
var RequiredColumns = map[string][]string{
	"accounts":       {"id", "email", "rfid_tag"},
	"rentals":        {"unit", "account", "borrowed_at", "due_at", "overdue"},
	"slots":          {"number", "state", "updated_at"},
	"rental_history": {"id", "account", "unit", "borrowed_at", "due_at", "returned_at", "was_overdue"},
}

// Migrate creates or updates the ledger tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Account{}, &Rental{}, &Slot{}, &RentalHistory{})
}
