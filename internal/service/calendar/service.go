// Package calendar provides the shared month calendar: lazy month
// generation, admin day overrides, and month locking.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aimd54/officecal/internal/auth"
	prommetrics "github.com/aimd54/officecal/internal/metrics"
	"github.com/aimd54/officecal/internal/models"
	"github.com/aimd54/officecal/internal/repository"
	"github.com/aimd54/officecal/pkg/dateutil"
	"github.com/aimd54/officecal/pkg/logger"
)

// Validation errors reported to the caller; never retried.
var (
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
	ErrDayNotFound  = errors.New("day not in month")
)

// CalendarRepository interface for month and day persistence.
type CalendarRepository interface {
	GetMonth(year int, month time.Month) (*models.CalendarMonth, error)
	GetOrCreateMonth(year int, month time.Month) (*models.CalendarMonth, bool, error)
	SetLocked(monthID uint, locked bool) error
	UpdateDayFlags(day *models.CalendarDay) error
}

// Invalidator drops cached views of a month after a write.
type Invalidator interface {
	InvalidateMonth(ctx context.Context, year int, month time.Month)
}

// Service handles calendar month operations.
type Service struct {
	calendarRepo CalendarRepository
	invalidator  Invalidator
	log          *logger.Logger
}

// NewService creates a new calendar service with concrete repository types.
func NewService(calendarRepo *repository.CalendarRepository, invalidator Invalidator, log *logger.Logger) *Service {
	return &Service{
		calendarRepo: calendarRepo,
		invalidator:  invalidator,
		log:          log,
	}
}

// NewServiceWithInterfaces creates a new calendar service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(calendarRepo CalendarRepository, invalidator Invalidator, log *logger.Logger) *Service {
	return &Service{
		calendarRepo: calendarRepo,
		invalidator:  invalidator,
		log:          log,
	}
}

// GetOrCreateMonth returns the calendar month for (year, month), generating
// day rows 1..N on first request. Existing override flags are never
// regenerated.
func (s *Service) GetOrCreateMonth(ctx context.Context, year, month int) (*models.CalendarMonth, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMonth, month)
	}

	m, created, err := s.calendarRepo.GetOrCreateMonth(year, time.Month(month))
	if err != nil {
		return nil, err
	}
	if created {
		prommetrics.MonthsCreatedTotal.Inc()
		s.log.Info().
			Int("year", year).
			Int("month", month).
			Int("days", len(m.Days)).
			Msg("Generated calendar month")
	}
	return m, nil
}

// SetLocked locks or unlocks a month. Admin only.
func (s *Service) SetLocked(ctx context.Context, actor auth.Actor, year, month int, locked bool) (*models.CalendarMonth, error) {
	if err := auth.CanAdministrate(actor); err != nil {
		return nil, err
	}
	m, err := s.GetOrCreateMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	if err := s.calendarRepo.SetLocked(m.ID, locked); err != nil {
		return nil, err
	}
	m.IsLocked = locked

	s.log.Info().
		Uint("actor_id", actor.ID).
		Int("year", year).
		Int("month", month).
		Bool("locked", locked).
		Msg("Changed month lock")
	return m, nil
}

// SetHoliday toggles the holiday flag on one day of a month. Admin only.
func (s *Service) SetHoliday(ctx context.Context, actor auth.Actor, year, month int, date time.Time, value bool) (*models.CalendarDay, error) {
	return s.setDayFlag(ctx, actor, year, month, date, func(day *models.CalendarDay) {
		day.IsHoliday = value
	})
}

// SetWorkdayOverride toggles the workday override flag on one day of a
// month. Admin only. On a weekend the override makes the day count as a
// working day; on a weekday it makes the day count as a day off.
func (s *Service) SetWorkdayOverride(ctx context.Context, actor auth.Actor, year, month int, date time.Time, value bool) (*models.CalendarDay, error) {
	return s.setDayFlag(ctx, actor, year, month, date, func(day *models.CalendarDay) {
		day.IsWorkdayOverride = value
	})
}

func (s *Service) setDayFlag(ctx context.Context, actor auth.Actor, year, month int, date time.Time, apply func(*models.CalendarDay)) (*models.CalendarDay, error) {
	if err := auth.CanAdministrate(actor); err != nil {
		return nil, err
	}
	m, err := s.GetOrCreateMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	day := m.DayByDate(dateutil.Normalize(date))
	if day == nil {
		return nil, fmt.Errorf("%w: %s not in %d-%02d", ErrDayNotFound, date.Format("2006-01-02"), year, month)
	}
	apply(day)
	if err := s.calendarRepo.UpdateDayFlags(day); err != nil {
		return nil, err
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateMonth(ctx, year, time.Month(month))
	}

	s.log.Info().
		Uint("actor_id", actor.ID).
		Str("date", date.Format("2006-01-02")).
		Bool("is_holiday", day.IsHoliday).
		Bool("is_workday_override", day.IsWorkdayOverride).
		Msg("Updated day override flags")
	return day, nil
}
