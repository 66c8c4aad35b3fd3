// Package planner computes a staged copy of the previous month's statuses
// onto the working days of a target month. The staged map is never
// persisted; the caller saves it with an explicit month replace.
package planner

import (
	"context"
	"errors"
	"time"

	"github.com/aimd54/officecal/internal/auth"
	prommetrics "github.com/aimd54/officecal/internal/metrics"
	"github.com/aimd54/officecal/internal/models"
	"github.com/aimd54/officecal/internal/repository"
	"github.com/aimd54/officecal/pkg/dateutil"
	"github.com/aimd54/officecal/pkg/logger"
)

// MonthService provides lazily generated calendar months.
type MonthService interface {
	GetOrCreateMonth(ctx context.Context, year, month int) (*models.CalendarMonth, error)
}

// CalendarRepository interface for reading an existing month without
// generating it.
type CalendarRepository interface {
	GetMonth(year int, month time.Month) (*models.CalendarMonth, error)
}

// StatusRepository interface for ledger reads.
type StatusRepository interface {
	GetForUserMonth(userID, monthID uint) ([]models.StatusEntry, error)
}

// Service stages previous-month copies.
type Service struct {
	months       MonthService
	calendarRepo CalendarRepository
	statusRepo   StatusRepository
	log          *logger.Logger
}

// NewService creates a new planner service with concrete repository types.
func NewService(months MonthService, calendarRepo *repository.CalendarRepository, statusRepo *repository.StatusRepository, log *logger.Logger) *Service {
	return &Service{
		months:       months,
		calendarRepo: calendarRepo,
		statusRepo:   statusRepo,
		log:          log,
	}
}

// NewServiceWithInterfaces creates a new planner service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(months MonthService, calendarRepo CalendarRepository, statusRepo StatusRepository, log *logger.Logger) *Service {
	return &Service{
		months:       months,
		calendarRepo: calendarRepo,
		statusRepo:   statusRepo,
		log:          log,
	}
}

// slotKey addresses a day by its 7-day week block within the month and its
// weekday, so "Monday of week 2" maps across months regardless of date.
type slotKey struct {
	week    int
	weekday time.Weekday
}

// CopyPreviousMonth builds the staged status map for (user, target month):
// the user's current target-month entries overlaid with the previous month's
// statuses copied by (week-of-month, weekday) slot onto working days.
// Non-working target days are skipped, unmatched slots keep their current
// value, and a previous month with no data leaves the map unchanged. The
// copy deliberately keeps the fixed 7-day slot heuristic even across months
// with different weekday alignment.
func (s *Service) CopyPreviousMonth(ctx context.Context, actor auth.Actor, userID uint, targetYear, targetMonth int) (map[string]models.DayStatus, error) {
	if err := auth.CanEditCalendar(actor, userID); err != nil {
		return nil, err
	}

	target, err := s.months.GetOrCreateMonth(ctx, targetYear, targetMonth)
	if err != nil {
		return nil, err
	}

	staged := make(map[string]models.DayStatus)
	current, err := s.statusRepo.GetForUserMonth(userID, target.ID)
	if err != nil {
		return nil, err
	}
	for _, entry := range current {
		staged[entry.Day.Date.Format("2006-01-02")] = entry.Status
	}

	prevYear, prevMonth := dateutil.PrevMonth(targetYear, time.Month(targetMonth))
	prev, err := s.calendarRepo.GetMonth(prevYear, prevMonth)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Nothing to copy from.
			return staged, nil
		}
		return nil, err
	}
	prevEntries, err := s.statusRepo.GetForUserMonth(userID, prev.ID)
	if err != nil {
		return nil, err
	}
	if len(prevEntries) == 0 {
		return staged, nil
	}

	bySlot := make(map[slotKey]models.DayStatus, len(prevEntries))
	for _, entry := range prevEntries {
		key := slotKey{
			week:    dateutil.WeekOfMonth(entry.Day.Date),
			weekday: entry.Day.Date.Weekday(),
		}
		bySlot[key] = entry.Status
	}

	copied := 0
	for i := range target.Days {
		day := &target.Days[i]
		if day.IsNonWorking() {
			continue
		}
		key := slotKey{
			week:    dateutil.WeekOfMonth(day.Date),
			weekday: day.Date.Weekday(),
		}
		if status, ok := bySlot[key]; ok {
			staged[day.Date.Format("2006-01-02")] = status
			copied++
		}
	}

	prommetrics.CopyPreviousRunsTotal.Inc()
	s.log.Info().
		Uint("actor_id", actor.ID).
		Uint("user_id", userID).
		Int("target_year", targetYear).
		Int("target_month", targetMonth).
		Int("copied", copied).
		Msg("Staged previous-month copy")
	return staged, nil
}
