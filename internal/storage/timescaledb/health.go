package timescaledb

import (
	"context"
	"time"

	"github.com/chrissnell/deepcut/internal/storage"
)

// CheckHealth pings the database and runs a trivial query
func (t *Storage) CheckHealth(ctx context.Context) storage.Health {
	if t.TimescaleDBConn == nil {
		return storage.Health{
			LastCheck: time.Now(),
			Status:    "unhealthy",
			Message:   "TimescaleDB connection is nil",
		}
	}

	sqlDB, err := t.TimescaleDBConn.DB()
	if err != nil {
		return storage.Health{
			LastCheck: time.Now(),
			Status:    "unhealthy",
			Message:   "could not get underlying connection",
			Error:     err.Error(),
		}
	}

	return storage.PingHealth(ctx, sqlDB.PingContext, func(ctx context.Context) error {
		var result int
		return t.TimescaleDBConn.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error
	}, "TimescaleDB")
}
