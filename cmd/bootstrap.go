package cmd

import (
	"context"
	"fmt"

	"umbrella-station/core/config"
	"umbrella-station/core/database"
	"umbrella-station/core/logger"
	"umbrella-station/core/storage"
	"umbrella-station/feature/rental/archive"
	"umbrella-station/feature/rental/identity"
	"umbrella-station/feature/rental/ledger"
	"umbrella-station/feature/rental/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// station bundles the components every command needs.
type station struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	ledger   *ledger.Ledger
	resolver *identity.Resolver
	// client is nil when the journal is disabled.
	client  storage.Client
	journal archive.Journal
}

// bootstrap loads the configuration, connects the ledger database and builds
// the identity table and the journal.
func bootstrap(ctx context.Context) (*station, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := models.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate ledger tables: %w", err)
	}

	l := ledger.New(db,
		ledger.WithGracePeriod(cfg.Rental.GracePeriod),
		ledger.WithPolicy(cfg.Rental.Policy()),
		ledger.WithSlots(cfg.Rental.Slots),
		ledger.WithHistoryLimit(cfg.Rental.HistoryLimit),
		ledger.WithLogger(logg),
	)

	tags, err := l.AccountTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read account tags: %w", err)
	}
	resolver, err := identity.FromConfig(cfg.Identity, tags)
	if err != nil {
		return nil, fmt.Errorf("failed to build identity table: %w", err)
	}
	if err := l.EnsureAccounts(ctx, resolver.Accounts()); err != nil {
		return nil, fmt.Errorf("failed to register accounts: %w", err)
	}
	if err := l.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	logg.Info("Ledger ready", zap.Int("tags", resolver.Len()))

	s := &station{
		cfg:      cfg,
		logger:   logg,
		db:       db,
		ledger:   l,
		resolver: resolver,
		journal:  archive.Nop{},
	}

	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			// The journal is best effort; the station keeps running without it.
			logg.Warn("Journal bucket unavailable", zap.Error(err))
		}
		s.client = client
		s.journal = archive.NewStore(client, cfg.Storage.Bucket, logg)
	}

	return s, nil
}
