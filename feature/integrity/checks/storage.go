package checks

import (
	"context"
	"fmt"

	"umbrella-station/core/storage"

	"go.uber.org/zap"
)

// StorageReport is the result of the journal bucket check.
type StorageReport struct {
	Enabled bool   `json:"enabled"`
	Bucket  string `json:"bucket,omitempty"`
	Exists  bool   `json:"exists"`
}

// CheckStorage reports whether the journal bucket exists. A nil client means
// the journal is disabled.
func CheckStorage(ctx context.Context, client storage.Client, bucket string) (*StorageReport, error) {
	if client == nil {
		return &StorageReport{Enabled: false}, nil
	}
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	return &StorageReport{Enabled: true, Bucket: bucket, Exists: exists}, nil
}

// FixStorage creates the journal bucket.
func FixStorage(ctx context.Context, client storage.Client, bucket, region string, logger *zap.Logger) error {
	if client == nil {
		return fmt.Errorf("storage is disabled")
	}
	if err := storage.EnsureBucket(ctx, client, bucket, region); err != nil {
		logger.Error("Failed to create bucket", zap.String("bucket", bucket), zap.Error(err))
		return err
	}
	logger.Info("Journal bucket ready", zap.String("bucket", bucket))
	return nil
}
