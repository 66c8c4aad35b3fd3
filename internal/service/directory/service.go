// Package directory manages users and departments.
package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aimd54/officecal/internal/auth"
	"github.com/aimd54/officecal/internal/models"
	"github.com/aimd54/officecal/internal/repository"
	"github.com/aimd54/officecal/pkg/logger"
)

// ErrInvalidInput marks validation failures in user/department payloads.
var ErrInvalidInput = errors.New("invalid input")

// UserRepository interface for user persistence.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	List() ([]models.User, error)
	Update(user *models.User) error
	ReplaceVacationDays(userID uint, allocations map[string]int) error
	Delete(id uint) error
}

// DepartmentRepository interface for department persistence.
type DepartmentRepository interface {
	Create(dept *models.Department) error
	List() ([]models.Department, error)
}

// CreateUserInput is the payload for creating a user.
type CreateUserInput struct {
	DisplayName            string         `json:"display_name"`
	Email                  string         `json:"email"`
	Role                   models.Role    `json:"role"`
	AnnualRemoteLimit      *int           `json:"annual_remote_limit"`
	StartDate              *time.Time     `json:"start_date"`
	AdditionalVacationDays int            `json:"additional_vacation_days"`
	CarryoverVacationDays  int            `json:"carryover_vacation_days"`
	DepartmentID           *uint          `json:"department_id"`
	VacationDays           map[string]int `json:"vacation_days"`
}

// UpdateUserInput is the partial payload for an admin user edit; nil fields
// are left unchanged.
type UpdateUserInput struct {
	DisplayName            *string        `json:"display_name"`
	Email                  *string        `json:"email"`
	Role                   *models.Role   `json:"role"`
	AnnualRemoteLimit      *int           `json:"annual_remote_limit"`
	StartDate              *time.Time     `json:"start_date"`
	AdditionalVacationDays *int           `json:"additional_vacation_days"`
	CarryoverVacationDays  *int           `json:"carryover_vacation_days"`
	DepartmentID           *uint          `json:"department_id"`
	VacationDays           map[string]int `json:"vacation_days"`
}

// Service handles user and department administration.
type Service struct {
	userRepo           UserRepository
	deptRepo           DepartmentRepository
	defaultRemoteLimit int
	log                *logger.Logger
}

// NewService creates a new directory service with concrete repository types.
func NewService(userRepo *repository.UserRepository, deptRepo *repository.DepartmentRepository, defaultRemoteLimit int, log *logger.Logger) *Service {
	return &Service{
		userRepo:           userRepo,
		deptRepo:           deptRepo,
		defaultRemoteLimit: defaultRemoteLimit,
		log:                log,
	}
}

// NewServiceWithInterfaces creates a new directory service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(userRepo UserRepository, deptRepo DepartmentRepository, defaultRemoteLimit int, log *logger.Logger) *Service {
	return &Service{
		userRepo:           userRepo,
		deptRepo:           deptRepo,
		defaultRemoteLimit: defaultRemoteLimit,
		log:                log,
	}
}

// CreateUser creates a user with optional per-type vacation allocations.
// Admin only.
func (s *Service) CreateUser(ctx context.Context, actor auth.Actor, input CreateUserInput) (*models.User, error) {
	if err := auth.CanAdministrate(actor); err != nil {
		return nil, err
	}
	if input.DisplayName == "" {
		return nil, fmt.Errorf("%w: display_name is required", ErrInvalidInput)
	}
	if input.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	role := input.Role
	if role == "" {
		role = models.RoleEmployee
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
	}
	limit := s.defaultRemoteLimit
	if input.AnnualRemoteLimit != nil {
		limit = *input.AnnualRemoteLimit
	}

	user := &models.User{
		DisplayName:            input.DisplayName,
		Email:                  input.Email,
		Role:                   role,
		AnnualRemoteLimit:      limit,
		StartDate:              input.StartDate,
		AdditionalVacationDays: input.AdditionalVacationDays,
		CarryoverVacationDays:  input.CarryoverVacationDays,
		DepartmentID:           input.DepartmentID,
	}
	for vacationType, days := range input.VacationDays {
		user.VacationDays = append(user.VacationDays, models.UserVacationDays{
			VacationType: vacationType,
			DaysPerYear:  days,
		})
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("actor_id", actor.ID).
		Uint("user_id", user.ID).
		Str("email", user.Email).
		Msg("Created user")
	return s.userRepo.GetByID(user.ID)
}

// UpdateUser applies a partial update to a user. Admin only.
func (s *Service) UpdateUser(ctx context.Context, actor auth.Actor, userID uint, input UpdateUserInput) (*models.User, error) {
	if err := auth.CanAdministrate(actor); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *input.Role)
		}
		user.Role = *input.Role
	}
	if input.AnnualRemoteLimit != nil {
		user.AnnualRemoteLimit = *input.AnnualRemoteLimit
	}
	if input.StartDate != nil {
		user.StartDate = input.StartDate
	}
	if input.AdditionalVacationDays != nil {
		user.AdditionalVacationDays = *input.AdditionalVacationDays
	}
	if input.CarryoverVacationDays != nil {
		user.CarryoverVacationDays = *input.CarryoverVacationDays
	}
	if input.DepartmentID != nil {
		user.DepartmentID = input.DepartmentID
	}

	// Save without touching the association rows; allocations are replaced
	// explicitly below.
	user.VacationDays = nil
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	if input.VacationDays != nil {
		if err := s.userRepo.ReplaceVacationDays(userID, input.VacationDays); err != nil {
			return nil, err
		}
	}

	s.log.Info().
		Uint("actor_id", actor.ID).
		Uint("user_id", userID).
		Msg("Updated user")
	return s.userRepo.GetByID(userID)
}

// DeleteUser removes a user and all of their ledger entries. Admin only.
func (s *Service) DeleteUser(ctx context.Context, actor auth.Actor, userID uint) error {
	if err := auth.CanAdministrate(actor); err != nil {
		return err
	}
	if err := s.userRepo.Delete(userID); err != nil {
		return err
	}
	s.log.Info().
		Uint("actor_id", actor.ID).
		Uint("user_id", userID).
		Msg("Deleted user")
	return nil
}

// GetUser retrieves a user by id.
func (s *Service) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

// ListUsers retrieves all users ordered by display name.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List()
}

// CreateDepartment creates a department. Admin only.
func (s *Service) CreateDepartment(ctx context.Context, actor auth.Actor, name string) (*models.Department, error) {
	if err := auth.CanAdministrate(actor); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	dept := &models.Department{Name: name}
	if err := s.deptRepo.Create(dept); err != nil {
		return nil, err
	}
	return dept, nil
}

// ListDepartments retrieves all departments ordered by name.
func (s *Service) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return s.deptRepo.List()
}
