// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/store/oauthstate"
	"go.uber.org/zap"
)

// OAuthStateCleanupJob removes expired OAuth state tokens. The TTL index
// does the same, but its monitor can lag.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// AuditRetentionJob deletes audit events older than keep, once a day.
func AuditRetentionJob(store *audit.Store, keep time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "audit-retention",
		Interval: 24 * time.Hour,
		Timeout:  5 * time.Minute,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-keep)
			count, err := store.DeleteBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("pruned audit events",
					zap.Int64("count", count),
					zap.Time("cutoff", cutoff))
			}
			return nil
		},
	}
}
