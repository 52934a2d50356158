package integrity

import (
	"context"
	"fmt"
	"time"

	"umbrella-station/core/reconcile"
	"umbrella-station/core/storage"
	"umbrella-station/feature/integrity/checks"
	"umbrella-station/feature/rental/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ledger is the read side of the rental ledger the checks need.
type Ledger interface {
	CurrentOccupancy(ctx context.Context) (reconcile.Snapshot, error)
	AllActiveRentals(ctx context.Context) ([]models.ActiveRental, error)
}

// Report combines every check. A failed check carries its error instead.
type Report struct {
	Consistency *checks.ConsistencyReport `json:"consistency,omitempty"`
	Schema      *checks.SchemaReport      `json:"schema,omitempty"`
	Storage     *checks.StorageReport     `json:"storage,omitempty"`
	Errors      map[string]string         `json:"errors,omitempty"`
	Healthy     bool                      `json:"healthy"`
}

// Service handles integrity checks.
type Service struct {
	ledger Ledger
	db     *gorm.DB
	client storage.Client
	bucket string
	region string
	policy reconcile.Policy
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a new integrity service. client is nil when the journal
// is disabled.
func NewService(l Ledger, db *gorm.DB, client storage.Client, cfg storage.Config, policy reconcile.Policy, logger *zap.Logger) *Service {
	return &Service{
		ledger: l,
		db:     db,
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		policy: policy,
		now:    time.Now,
		logger: logger,
	}
}

// CheckConsistency compares rentals with the cached snapshot.
func (s *Service) CheckConsistency(ctx context.Context) (*checks.ConsistencyReport, error) {
	snap, err := s.ledger.CurrentOccupancy(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	rentals, err := s.ledger.AllActiveRentals(ctx)
	if err != nil {
		return nil, err
	}
	return checks.CheckConsistency(snap, rentals, s.policy.SlotAfter(reconcile.ActionBorrow), s.now()), nil
}

// CheckSchema verifies the ledger tables.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db, models.RequiredColumns)
}

// CheckStorage verifies the journal bucket.
func (s *Service) CheckStorage(ctx context.Context) (*checks.StorageReport, error) {
	return checks.CheckStorage(ctx, s.client, s.bucket)
}

// FixStorage creates the journal bucket.
func (s *Service) FixStorage(ctx context.Context) error {
	return checks.FixStorage(ctx, s.client, s.bucket, s.region, s.logger)
}

// Run executes every check.
func (s *Service) Run(ctx context.Context) *Report {
	report := &Report{Errors: map[string]string{}}
	var err error

	if report.Consistency, err = s.CheckConsistency(ctx); err != nil {
		report.Errors["consistency"] = err.Error()
	}
	if report.Schema, err = s.CheckSchema(); err != nil {
		report.Errors["schema"] = err.Error()
	}
	if report.Storage, err = s.CheckStorage(ctx); err != nil {
		report.Errors["storage"] = err.Error()
	}

	report.Healthy = len(report.Errors) == 0 &&
		report.Consistency.Consistent &&
		report.Schema.Matched &&
		(!report.Storage.Enabled || report.Storage.Exists)
	return report
}
