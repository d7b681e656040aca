package validator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Casino-TAO/casino-tao-subnet/pkg/db"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/scoring"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/utils"
)

// Prune drops daily-volume partitions older than the retention horizon. The
// horizon never shrinks below the decay window: scoring must always find its
// full window on disk. Snapshots are an audit log and are never pruned.
func (e *Engine) Prune(ctx context.Context) error {
	retention := utils.EnvInt("VOLUME_RETENTION_DAYS", 30)
	if retention < scoring.WindowDays {
		retention = scoring.WindowDays
	}

	cutoff := db.DayOf(time.Now()).AddDate(0, 0, -(retention - 1))

	dropped, err := e.App.DB.DropDaysBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}

	if len(dropped) > 0 {
		e.App.Logger.Info("Pruned volume partitions",
			zap.Strings("partitions", dropped),
			zap.String("cutoff", cutoff.Format("2006-01-02")))
	}
	return nil
}
