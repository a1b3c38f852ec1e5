package jobs

import (
	"context"
	"time"

	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
)

// CachePruner removes day-stamped cache files older than a cutoff
type CachePruner interface {
	Prune(before time.Time) (int, error)
}

// CacheCleanupJob removes stale CSV cache files
type CacheCleanupJob struct {
	cache    CachePruner
	keepDays int
	now      func() time.Time
	logger   *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job.
// Files stamped within the last keepDays days are kept.
func NewCacheCleanupJob(cache CachePruner, keepDays int, log *logger.Logger) *CacheCleanupJob {
	if keepDays < 1 {
		keepDays = 1
	}
	return &CacheCleanupJob{
		cache:    cache,
		keepDays: keepDays,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (daily at 03:00)
func (j *CacheCleanupJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cutoff := j.now().AddDate(0, 0, -(j.keepDays - 1))

	count, err := j.cache.Prune(cutoff)
	if err != nil {
		return err
	}
	if count > 0 {
		j.logger.WithField("removed", count).Info("Cache cleanup completed")
	}
	return nil
}
