package rental

import (
	"context"
	"time"

	"umbrella-station/core/reconcile"
	"umbrella-station/feature/rental/archive"
	"umbrella-station/feature/rental/coordinator"
	"umbrella-station/feature/rental/ledger"
	"umbrella-station/feature/rental/models"

	"go.uber.org/zap"
)

// Service is the presentation-facing surface of the rental core.
type Service struct {
	coord    *coordinator.Coordinator
	ledger   *ledger.Ledger
	journal  archive.Journal
	encoding reconcile.Encoding
	logger   *zap.Logger
}

// NewService creates a new rental service.
func NewService(coord *coordinator.Coordinator, l *ledger.Ledger, journal archive.Journal, encoding reconcile.Encoding, logger *zap.Logger) *Service {
	if journal == nil {
		journal = archive.Nop{}
	}
	return &Service{
		coord:    coord,
		ledger:   l,
		journal:  journal,
		encoding: encoding,
		logger:   logger,
	}
}

// Borrow dispenses a unit. An empty account consumes the pending identity.
func (s *Service) Borrow(ctx context.Context, unit int, account string) (*models.Receipt, error) {
	return s.coord.Borrow(ctx, unit, account)
}

// Return accepts a unit back; ledger.AnyUnit picks the oldest one held.
func (s *Service) Return(ctx context.Context, unit int, account string) (*models.Receipt, error) {
	return s.coord.Return(ctx, unit, account)
}

// Status returns the cached occupancy snapshot.
func (s *Service) Status(ctx context.Context) (*models.OccupancyReport, error) {
	snap, err := s.ledger.CurrentOccupancy(ctx)
	if err != nil {
		return nil, err
	}
	report := &models.OccupancyReport{
		Slots:   make([]models.SlotView, 0, len(snap)),
		Payload: s.encoding.Format(snap),
	}
	for i, st := range snap {
		report.Slots = append(report.Slots, models.SlotView{Slot: i + 1, State: st.String()})
	}
	return report, nil
}

// History returns the rental view of one account.
func (s *Service) History(ctx context.Context, account string) (*models.RentalView, error) {
	return s.ledger.HistoryFor(ctx, account)
}

// Active lists every outstanding loan.
func (s *Service) Active(ctx context.Context) ([]models.ActiveRental, error) {
	return s.ledger.AllActiveRentals(ctx)
}

// Events lists the journal for one day.
func (s *Service) Events(ctx context.Context, day time.Time) ([]archive.Event, error) {
	return s.journal.List(ctx, day)
}
