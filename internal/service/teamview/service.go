// Package teamview assembles the manager-facing month grid: every user's
// statuses and notes for a month plus their remote-day balances at the month
// boundaries.
package teamview

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aimd54/officecal/internal/cache"
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

// UserRepository interface for user listing.
type UserRepository interface {
	List() ([]models.User, error)
}

// StatusRepository interface for ledger reads.
type StatusRepository interface {
	GetForMonth(monthID uint) ([]models.StatusEntry, error)
	GetForDay(dayID uint) ([]models.StatusEntry, error)
}

// CounterService computes remote balances at month boundaries.
type CounterService interface {
	RemoteRemainingBounds(ctx context.Context, user *models.User, year int, monthStart, monthEnd time.Time) (start, end int, err error)
}

// Row is one user's line in the team grid.
type Row struct {
	User                 models.User                 `json:"user"`
	Statuses             map[string]models.DayStatus `json:"statuses"`
	Notes                map[string]string           `json:"notes"`
	RemoteRemainingStart int                         `json:"remote_remaining_start"`
	RemoteRemainingEnd   int                         `json:"remote_remaining_end"`
}

// View is the full team grid for one month.
type View struct {
	Month models.CalendarMonth `json:"month"`
	Rows  []Row                `json:"rows"`
}

// Presence groups users by status for a single date. Users without an entry
// default to office.
type Presence struct {
	Date     string                             `json:"date"`
	ByStatus map[models.DayStatus][]models.User `json:"by_status"`
}

// Service builds team views.
type Service struct {
	months     MonthService
	userRepo   UserRepository
	statusRepo StatusRepository
	counters   CounterService
	cache      cache.Cache
	cacheTTL   time.Duration
	log        *logger.Logger
}

// NewService creates a new teamview service with concrete repository types.
func NewService(
	months MonthService,
	userRepo *repository.UserRepository,
	statusRepo *repository.StatusRepository,
	counters CounterService,
	c cache.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *Service {
	return &Service{
		months:     months,
		userRepo:   userRepo,
		statusRepo: statusRepo,
		counters:   counters,
		cache:      c,
		cacheTTL:   cacheTTL,
		log:        log,
	}
}

// NewServiceWithInterfaces creates a new teamview service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	months MonthService,
	userRepo UserRepository,
	statusRepo StatusRepository,
	counters CounterService,
	c cache.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *Service {
	return &Service{
		months:     months,
		userRepo:   userRepo,
		statusRepo: statusRepo,
		counters:   counters,
		cache:      c,
		cacheTTL:   cacheTTL,
		log:        log,
	}
}

// TeamCalendar returns the month grid for all users. The payload is cached
// per (year, month) and invalidated by any write to that month.
func (s *Service) TeamCalendar(ctx context.Context, year, monthNum int) (*View, error) {
	key := cache.TeamViewKey(year, time.Month(monthNum))
	if cached, err := s.cache.Get(ctx, key); err != nil {
		prommetrics.CacheRequestsTotal.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Str("key", key).Msg("Team-view cache read failed")
	} else if cached != "" {
		var view View
		if err := json.Unmarshal([]byte(cached), &view); err == nil {
			prommetrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
			return &view, nil
		}
		s.log.Warn().Str("key", key).Msg("Discarding undecodable team-view cache entry")
	} else {
		prommetrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
	}

	month, err := s.months.GetOrCreateMonth(ctx, year, monthNum)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.List()
	if err != nil {
		return nil, err
	}
	entries, err := s.statusRepo.GetForMonth(month.ID)
	if err != nil {
		return nil, err
	}

	statusesByUser := make(map[uint]map[string]models.DayStatus)
	notesByUser := make(map[uint]map[string]string)
	for _, entry := range entries {
		date := entry.Day.Date.Format("2006-01-02")
		if statusesByUser[entry.UserID] == nil {
			statusesByUser[entry.UserID] = make(map[string]models.DayStatus)
		}
		statusesByUser[entry.UserID][date] = entry.Status
		if entry.Note != nil {
			if notesByUser[entry.UserID] == nil {
				notesByUser[entry.UserID] = make(map[string]string)
			}
			notesByUser[entry.UserID][date] = *entry.Note
		}
	}

	monthStart, monthEnd := dateutil.MonthRange(year, time.Month(monthNum))
	rows := make([]Row, 0, len(users))
	for i := range users {
		user := users[i]
		remStart, remEnd, err := s.counters.RemoteRemainingBounds(ctx, &user, year, monthStart, monthEnd)
		if err != nil {
			return nil, err
		}
		statuses := statusesByUser[user.ID]
		if statuses == nil {
			statuses = map[string]models.DayStatus{}
		}
		notes := notesByUser[user.ID]
		if notes == nil {
			notes = map[string]string{}
		}
		rows = append(rows, Row{
			User:                 user,
			Statuses:             statuses,
			Notes:                notes,
			RemoteRemainingStart: remStart,
			RemoteRemainingEnd:   remEnd,
		})
	}

	view := &View{Month: *month, Rows: rows}
	if payload, err := json.Marshal(view); err == nil {
		if err := s.cache.Set(ctx, key, string(payload), s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Team-view cache write failed")
		}
	}
	return view, nil
}

// WhoIsInOffice groups every user by their status on one date. Users with no
// entry count as in the office.
func (s *Service) WhoIsInOffice(ctx context.Context, date time.Time) (*Presence, error) {
	date = dateutil.Normalize(date)
	month, err := s.months.GetOrCreateMonth(ctx, date.Year(), int(date.Month()))
	if err != nil {
		return nil, err
	}
	day := month.DayByDate(date)
	if day == nil {
		return nil, repository.ErrNotFound
	}

	users, err := s.userRepo.List()
	if err != nil {
		return nil, err
	}
	entries, err := s.statusRepo.GetForDay(day.ID)
	if err != nil {
		return nil, err
	}
	statusByUser := make(map[uint]models.DayStatus, len(entries))
	for _, entry := range entries {
		statusByUser[entry.UserID] = entry.Status
	}

	byStatus := map[models.DayStatus][]models.User{
		models.StatusOffice:   {},
		models.StatusRemote:   {},
		models.StatusVacation: {},
		models.StatusNight:    {},
		models.StatusTrip:     {},
		models.StatusAbsent:   {},
	}
	for _, user := range users {
		status, ok := statusByUser[user.ID]
		if !ok {
			status = models.StatusOffice
		}
		byStatus[status] = append(byStatus[status], user)
	}

	return &Presence{Date: date.Format("2006-01-02"), ByStatus: byStatus}, nil
}
