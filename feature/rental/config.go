package rental

import (
	"fmt"
	"time"

	"umbrella-station/core/reconcile"
)

// Config holds the rental rules and the occupancy wire format.
type Config struct {
	// Slots is the minimum snapshot length before any report is persisted.
	Slots int `mapstructure:"slots" default:"0"`
	// GracePeriod is the loan length.
	GracePeriod time.Duration `mapstructure:"grace_period" default:"72h"`
	// OccupiedValue is the payload digit meaning "unit docked" (0 or 1).
	OccupiedValue int `mapstructure:"occupied_value" default:"1"`
	// TransitionPolicy selects what a withdrawn unit means
	// (withdraw-borrows, withdraw-returns).
	TransitionPolicy string `mapstructure:"transition_policy" default:"withdraw-borrows"`
	// TrackUnauthenticated updates the cached snapshot for occupancy changes
	// that arrive without a pending identity.
	TrackUnauthenticated bool `mapstructure:"track_unauthenticated" default:"true"`
	// OverdueCron schedules the overdue sweep (seconds precision, UTC).
	OverdueCron string `mapstructure:"overdue_cron" default:"0 */5 * * * *"`
	// HistoryLimit caps the closed rentals returned per account.
	HistoryLimit int `mapstructure:"history_limit" default:"10"`
}

// Encoding returns the occupancy payload encoding.
func (c Config) Encoding() reconcile.Encoding {
	return reconcile.Encoding{OccupiedValue: c.OccupiedValue}
}

// Policy returns the transition policy.
func (c Config) Policy() reconcile.Policy {
	return reconcile.Policy(c.TransitionPolicy)
}

// Validate checks the enumerated values.
func (c Config) Validate() error {
	if err := c.Encoding().Validate(); err != nil {
		return err
	}
	if err := c.Policy().Validate(); err != nil {
		return err
	}
	if c.GracePeriod <= 0 {
		return fmt.Errorf("grace period must be positive, got %s", c.GracePeriod)
	}
	if c.Slots < 0 {
		return fmt.Errorf("slots must not be negative, got %d", c.Slots)
	}
	return nil
}
