// Package ledger is the per-user-per-date status store: at most one status
// entry exists per (user, date), and every write is an upsert or an explicit
// clear.
package ledger

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

// Ledger errors surfaced to the caller.
var (
	ErrMonthLocked      = errors.New("month is locked")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrNoteTooLong      = errors.New("note exceeds maximum length")
	ErrDateOutsideMonth = errors.New("date outside target month")
	ErrNoEntry          = errors.New("no status entry for date")
)

// MonthService provides lazily generated calendar months.
type MonthService interface {
	GetOrCreateMonth(ctx context.Context, year, month int) (*models.CalendarMonth, error)
}

// StatusRepository interface for ledger persistence.
type StatusRepository interface {
	GetByUserDay(userID, dayID uint) (*models.StatusEntry, error)
	Upsert(entry *models.StatusEntry) error
	Delete(userID, dayID uint) error
	GetForUserMonth(userID, monthID uint) ([]models.StatusEntry, error)
	ReplaceUserMonth(userID uint, dayIDs []uint, entries []models.StatusEntry) error
}

// UserRepository interface for user lookups.
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
}

// Invalidator drops cached views of a month after a write.
type Invalidator interface {
	InvalidateMonth(ctx context.Context, year int, month time.Month)
}

// Item is one (date, status) pair in a bulk month replace.
type Item struct {
	Date   time.Time
	Status models.DayStatus
	Note   *string
}

// Entry is a ledger row as reported to callers.
type Entry struct {
	Date   string           `json:"date"`
	Status models.DayStatus `json:"status"`
	Note   *string          `json:"note,omitempty"`
}

// Service is the status ledger.
type Service struct {
	months      MonthService
	statusRepo  StatusRepository
	userRepo    UserRepository
	invalidator Invalidator
	log         *logger.Logger
}

// NewService creates a new ledger service with concrete repository types.
func NewService(
	months MonthService,
	statusRepo *repository.StatusRepository,
	userRepo *repository.UserRepository,
	invalidator Invalidator,
	log *logger.Logger,
) *Service {
	return &Service{
		months:      months,
		statusRepo:  statusRepo,
		userRepo:    userRepo,
		invalidator: invalidator,
		log:         log,
	}
}

// NewServiceWithInterfaces creates a new ledger service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	months MonthService,
	statusRepo StatusRepository,
	userRepo UserRepository,
	invalidator Invalidator,
	log *logger.Logger,
) *Service {
	return &Service{
		months:      months,
		statusRepo:  statusRepo,
		userRepo:    userRepo,
		invalidator: invalidator,
		log:         log,
	}
}

// UpsertStatus replaces the entry for (user, date). The clear sentinel
// deletes the entry instead of storing it. Writes to a locked month require
// admin privilege.
func (s *Service) UpsertStatus(ctx context.Context, actor auth.Actor, userID uint, date time.Time, status models.DayStatus, note *string) (*Entry, error) {
	if err := auth.CanEditCalendar(actor, userID); err != nil {
		return nil, err
	}
	if !status.Valid() && status != models.StatusClear {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := validateNote(note); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(userID); err != nil {
		return nil, err
	}

	date = dateutil.Normalize(date)
	month, day, err := s.resolveDay(ctx, date)
	if err != nil {
		return nil, err
	}
	if err := s.checkLock(actor, month); err != nil {
		return nil, err
	}

	if status == models.StatusClear {
		if err := s.statusRepo.Delete(userID, day.ID); err != nil {
			return nil, err
		}
		prommetrics.StatusClearsTotal.Inc()
		s.invalidateMonth(ctx, month)
		s.log.Info().
			Uint("actor_id", actor.ID).
			Uint("user_id", userID).
			Str("date", date.Format("2006-01-02")).
			Msg("Cleared status entry")
		return nil, nil
	}

	entry := &models.StatusEntry{
		UserID: userID,
		DayID:  day.ID,
		Status: status,
		Note:   note,
	}
	if err := s.statusRepo.Upsert(entry); err != nil {
		return nil, err
	}
	prommetrics.StatusUpsertsTotal.WithLabelValues(string(status)).Inc()
	s.invalidateMonth(ctx, month)

	s.log.Info().
		Uint("actor_id", actor.ID).
		Uint("user_id", userID).
		Str("date", date.Format("2006-01-02")).
		Str("status", string(status)).
		Msg("Upserted status entry")
	return &Entry{Date: date.Format("2006-01-02"), Status: entry.Status, Note: entry.Note}, nil
}

// UpdateNote changes only the note of an existing entry. Used for note-only
// admin edits; the entry must already exist.
func (s *Service) UpdateNote(ctx context.Context, actor auth.Actor, userID uint, date time.Time, note *string) (*Entry, error) {
	if err := auth.CanEditCalendar(actor, userID); err != nil {
		return nil, err
	}
	if err := validateNote(note); err != nil {
		return nil, err
	}

	date = dateutil.Normalize(date)
	month, day, err := s.resolveDay(ctx, date)
	if err != nil {
		return nil, err
	}
	if err := s.checkLock(actor, month); err != nil {
		return nil, err
	}

	existing, err := s.statusRepo.GetByUserDay(userID, day.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoEntry, date.Format("2006-01-02"))
		}
		return nil, err
	}
	existing.Note = note
	if err := s.statusRepo.Upsert(existing); err != nil {
		return nil, err
	}
	s.invalidateMonth(ctx, month)
	return &Entry{Date: date.Format("2006-01-02"), Status: existing.Status, Note: existing.Note}, nil
}

// ReplaceMonth atomically replaces all of the user's entries in the target
// month with exactly the given set: listed dates are written, previously set
// dates absent from items are deleted, and dates outside the month fail the
// whole call.
func (s *Service) ReplaceMonth(ctx context.Context, actor auth.Actor, userID uint, year, monthNum int, items []Item) ([]Entry, error) {
	if err := auth.CanEditCalendar(actor, userID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(userID); err != nil {
		return nil, err
	}

	month, err := s.months.GetOrCreateMonth(ctx, year, monthNum)
	if err != nil {
		return nil, err
	}
	if err := s.checkLock(actor, month); err != nil {
		return nil, err
	}

	dayByDate := make(map[string]*models.CalendarDay, len(month.Days))
	dayIDs := make([]uint, 0, len(month.Days))
	for i := range month.Days {
		day := &month.Days[i]
		dayByDate[day.Date.Format("2006-01-02")] = day
		dayIDs = append(dayIDs, day.ID)
	}

	// Items repeating a date resolve last-wins, the same outcome as
	// upserting them one by one.
	byDay := make(map[uint]models.StatusEntry, len(items))
	order := make([]uint, 0, len(items))
	for _, item := range items {
		if !item.Status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, item.Status)
		}
		if err := validateNote(item.Note); err != nil {
			return nil, err
		}
		date := dateutil.Normalize(item.Date)
		day, ok := dayByDate[date.Format("2006-01-02")]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrDateOutsideMonth, date.Format("2006-01-02"))
		}
		if _, seen := byDay[day.ID]; !seen {
			order = append(order, day.ID)
		}
		byDay[day.ID] = models.StatusEntry{
			UserID: userID,
			DayID:  day.ID,
			Status: item.Status,
			Note:   item.Note,
		}
	}
	entries := make([]models.StatusEntry, 0, len(byDay))
	for _, dayID := range order {
		entries = append(entries, byDay[dayID])
	}

	if err := s.statusRepo.ReplaceUserMonth(userID, dayIDs, entries); err != nil {
		return nil, err
	}
	prommetrics.MonthReplacesTotal.Inc()
	s.invalidateMonth(ctx, month)

	s.log.Info().
		Uint("actor_id", actor.ID).
		Uint("user_id", userID).
		Int("year", year).
		Int("month", monthNum).
		Int("items", len(items)).
		Msg("Replaced month statuses")
	return s.collectMonth(userID, month)
}

// GetMonth returns the user's entries in (year, month). A month with no
// entries yields an empty list, not an error.
func (s *Service) GetMonth(ctx context.Context, actor auth.Actor, userID uint, year, monthNum int) ([]Entry, error) {
	if err := auth.CanViewCalendar(actor, userID); err != nil {
		return nil, err
	}
	month, err := s.months.GetOrCreateMonth(ctx, year, monthNum)
	if err != nil {
		return nil, err
	}
	return s.collectMonth(userID, month)
}

func (s *Service) collectMonth(userID uint, month *models.CalendarMonth) ([]Entry, error) {
	rows, err := s.statusRepo.GetForUserMonth(userID, month.ID)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			Date:   row.Day.Date.Format("2006-01-02"),
			Status: row.Status,
			Note:   row.Note,
		})
	}
	return entries, nil
}

// resolveDay loads the month covering the date and locates the day row.
func (s *Service) resolveDay(ctx context.Context, date time.Time) (*models.CalendarMonth, *models.CalendarDay, error) {
	month, err := s.months.GetOrCreateMonth(ctx, date.Year(), int(date.Month()))
	if err != nil {
		return nil, nil, err
	}
	day := month.DayByDate(date)
	if day == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrDateOutsideMonth, date.Format("2006-01-02"))
	}
	return month, day, nil
}

func (s *Service) checkLock(actor auth.Actor, month *models.CalendarMonth) error {
	if !month.IsLocked {
		return nil
	}
	if err := auth.CanWriteLockedMonth(actor); err != nil {
		prommetrics.LockedMonthRejectionsTotal.Inc()
		return fmt.Errorf("%w: %d-%02d", ErrMonthLocked, month.Year, month.Month)
	}
	return nil
}

func (s *Service) invalidateMonth(ctx context.Context, month *models.CalendarMonth) {
	if s.invalidator != nil {
		s.invalidator.InvalidateMonth(ctx, month.Year, time.Month(month.Month))
	}
}

func validateNote(note *string) error {
	if note != nil && len(*note) > models.MaxNoteLength {
		return fmt.Errorf("%w: %d > %d", ErrNoteTooLong, len(*note), models.MaxNoteLength)
	}
	return nil
}
