package scheduler

import (
	"context"

	"go.uber.org/zap"
)

// OverdueRefresher re-derives cached overdue flags.
type OverdueRefresher interface {
	RefreshOverdue(ctx context.Context) (int64, error)
}

// OverdueSweep returns a job that refreshes overdue flags and logs changes.
func OverdueSweep(r OverdueRefresher, logger *zap.Logger) Job {
	return func(ctx context.Context) error {
		n, err := r.RefreshOverdue(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("Overdue flags refreshed", zap.Int64("changed", n))
		}
		return nil
	}
}
