// Package counters computes annual remote-day and vacation-day usage against
// per-user allowances.
package counters

import (
	"context"
	"time"

	"github.com/aimd54/officecal/internal/models"
	"github.com/aimd54/officecal/internal/repository"
	"github.com/aimd54/officecal/pkg/logger"
)

// StatusRepository interface for ledger count queries.
type StatusRepository interface {
	CountByStatusInYear(userID uint, year int, status models.DayStatus) (int64, error)
	CountByStatusUntil(userID uint, year int, status models.DayStatus, endDate time.Time) (int64, error)
}

// UserRepository interface for user lookups.
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
}

// RemoteCounter is a user's annual remote-day usage against their limit.
// Remaining is not clamped: an admin can retroactively push usage past the
// limit, and the UI decides how to warn about a negative balance.
type RemoteCounter struct {
	Year      int `json:"year"`
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// VacationCounter is a user's annual vacation usage against their allowance.
// The allowance is the sum of per-type allocations plus additional and
// carried-over days, full-year regardless of a mid-year start date.
// Remaining is not clamped.
type VacationCounter struct {
	Year      int `json:"year"`
	Used      int `json:"used"`
	Allowed   int `json:"allowed"`
	Remaining int `json:"remaining"`
}

// Service computes the annual counters.
type Service struct {
	statusRepo StatusRepository
	userRepo   UserRepository
	log        *logger.Logger
}

// NewService creates a new counters service with concrete repository types.
func NewService(statusRepo *repository.StatusRepository, userRepo *repository.UserRepository, log *logger.Logger) *Service {
	return &Service{
		statusRepo: statusRepo,
		userRepo:   userRepo,
		log:        log,
	}
}

// NewServiceWithInterfaces creates a new counters service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(statusRepo StatusRepository, userRepo UserRepository, log *logger.Logger) *Service {
	return &Service{
		statusRepo: statusRepo,
		userRepo:   userRepo,
		log:        log,
	}
}

// Remote computes the remote-day counter for a user and year.
func (s *Service) Remote(ctx context.Context, userID uint, year int) (*RemoteCounter, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	used, err := s.statusRepo.CountByStatusInYear(userID, year, models.StatusRemote)
	if err != nil {
		return nil, err
	}
	return &RemoteCounter{
		Year:      year,
		Used:      int(used),
		Limit:     user.AnnualRemoteLimit,
		Remaining: user.AnnualRemoteLimit - int(used),
	}, nil
}

// Vacation computes the vacation-day counter for a user and year.
func (s *Service) Vacation(ctx context.Context, userID uint, year int) (*VacationCounter, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	used, err := s.statusRepo.CountByStatusInYear(userID, year, models.StatusVacation)
	if err != nil {
		return nil, err
	}
	allowed := user.VacationAllowance()
	return &VacationCounter{
		Year:      year,
		Used:      int(used),
		Allowed:   allowed,
		Remaining: allowed - int(used),
	}, nil
}

// RemoteRemainingBounds computes a user's remaining remote-day balance at the
// start and at the end of a month: the balance before any entry of that
// month, and the balance after every entry through its last day.
func (s *Service) RemoteRemainingBounds(ctx context.Context, user *models.User, year int, monthStart, monthEnd time.Time) (start, end int, err error) {
	usedBefore, err := s.statusRepo.CountByStatusUntil(user.ID, year, models.StatusRemote, monthStart.AddDate(0, 0, -1))
	if err != nil {
		return 0, 0, err
	}
	usedThrough, err := s.statusRepo.CountByStatusUntil(user.ID, year, models.StatusRemote, monthEnd)
	if err != nil {
		return 0, 0, err
	}
	return user.AnnualRemoteLimit - int(usedBefore), user.AnnualRemoteLimit - int(usedThrough), nil
}
