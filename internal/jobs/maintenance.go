package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"pokerlog/internal/database"
	"pokerlog/internal/sessions"
)

const (
	orphanCleanupInterval = 24 * time.Hour
	checkpointInterval    = time.Hour
	orphanBatchSize       = 1000
)

// DeleteOrphanSessions removes sessions whose user no longer exists. Account
// deletion removes sessions itself; this catches rows left behind by direct
// store edits when SQLite foreign keys are off.
func DeleteOrphanSessions(ctx context.Context, db *gorm.DB, logger *slog.Logger) (int64, error) {
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		var affected int64
		err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
			result := tx.Where("id IN (?)",
				db.Model(&sessions.Session{}).
					Select("poker_sessions.id").
					Where("user_id NOT IN (?)", db.Table("users").Select("id")).
					Limit(orphanBatchSize),
			).Delete(&sessions.Session{})
			affected = result.RowsAffected
			return result.Error
		})
		if err != nil {
			return total, err
		}

		total += affected
		if affected < orphanBatchSize {
			break
		}
	}

	if total > 0 {
		logger.Info("Removed orphaned sessions", slog.Int64("deleted_count", total))
	}
	return total, nil
}

// MaintenanceJobs returns the jobs the server runs in the background.
func MaintenanceJobs(dbManager *database.DBManager, logger *slog.Logger) []Job {
	return []Job{
		{
			Name:     "orphan_session_cleanup",
			Interval: orphanCleanupInterval,
			Run: func(ctx context.Context) error {
				_, err := DeleteOrphanSessions(ctx, dbManager.GetConnection(), logger)
				return err
			},
		},
		{
			Name:     "wal_checkpoint",
			Interval: checkpointInterval,
			Run: func(context.Context) error {
				return dbManager.CheckpointWAL("PASSIVE")
			},
		},
	}
}

// NewJobs creates the maintenance scheduler for the server.
func NewJobs(dbManager *database.DBManager, logger *slog.Logger) *Scheduler {
	return NewScheduler(logger, MaintenanceJobs(dbManager, logger)...)
}
