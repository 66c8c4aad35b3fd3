package cache

import (
	"context"
	"time"

	"github.com/aimd54/officecal/pkg/logger"
)

// MonthInvalidator drops the cached views of a month after any write that
// could change them (status writes, day overrides, locking).
type MonthInvalidator struct {
	cache Cache
	log   *logger.Logger
}

// NewMonthInvalidator creates a MonthInvalidator over the given cache.
func NewMonthInvalidator(c Cache, log *logger.Logger) *MonthInvalidator {
	return &MonthInvalidator{cache: c, log: log}
}

// InvalidateMonth removes every cached payload keyed on (year, month).
// Invalidation failures are logged, not surfaced: the cache is advisory and
// entries expire by TTL anyway.
func (i *MonthInvalidator) InvalidateMonth(ctx context.Context, year int, month time.Month) {
	if err := i.cache.Del(ctx, TeamViewKey(year, month)); err != nil {
		i.log.Warn().
			Err(err).
			Int("year", year).
			Int("month", int(month)).
			Msg("Failed to invalidate month cache")
	}
}
