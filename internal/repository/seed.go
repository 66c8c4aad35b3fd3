package repository

import (
	"fmt"

	"github.com/aimd54/officecal/internal/models"
	"github.com/aimd54/officecal/pkg/logger"
)

var defaultDepartments = []string{
	"Accounting and law",
	"Cloud",
	"Development",
	"HR",
	"Integrations",
	"Marketing",
	"Office administrators",
	"Partner relationships",
	"Product owners",
	"Sales",
	"Security",
	"Support",
	"System administration",
	"Trainings",
}

// Seed ensures the default departments exist and, on an empty database,
// creates a demo admin/employee/manager trio. Safe to run on every start.
func Seed(db *DB, log *logger.Logger) error {
	deptRepo := NewDepartmentRepository(db)
	userRepo := NewUserRepository(db)

	depts := make(map[string]*models.Department, len(defaultDepartments))
	for _, name := range defaultDepartments {
		dept, err := deptRepo.GetOrCreate(name)
		if err != nil {
			return fmt.Errorf("failed to seed department %q: %w", name, err)
		}
		depts[name] = dept
	}

	count, err := userRepo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	demo := []models.User{
		{
			DisplayName:       "Admin User",
			Email:             "admin@example.com",
			Role:              models.RoleAdmin,
			AnnualRemoteLimit: 100,
			DepartmentID:      &depts["HR"].ID,
		},
		{
			DisplayName:       "Alice Employee",
			Email:             "alice@example.com",
			Role:              models.RoleEmployee,
			AnnualRemoteLimit: 100,
			DepartmentID:      &depts["Development"].ID,
		},
		{
			DisplayName:       "Bob Manager",
			Email:             "bob@example.com",
			Role:              models.RoleManager,
			AnnualRemoteLimit: 100,
			DepartmentID:      &depts["Development"].ID,
		},
	}
	for i := range demo {
		if err := userRepo.Create(&demo[i]); err != nil {
			return fmt.Errorf("failed to seed user %q: %w", demo[i].Email, err)
		}
	}

	log.Info().Int("users", len(demo)).Msg("Seeded demo data")
	return nil
}
