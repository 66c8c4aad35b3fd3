package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/aimd54/officecal/internal/models"
)

// DepartmentRepository handles department database operations.
type DepartmentRepository struct {
	db *DB
}

// NewDepartmentRepository creates a new department repository.
func NewDepartmentRepository(db *DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// Create creates a new department.
func (r *DepartmentRepository) Create(dept *models.Department) error {
	if err := r.db.Create(dept).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("department %q already exists: %w", dept.Name, err)
		}
		return fmt.Errorf("failed to create department: %w", err)
	}
	return nil
}

// List retrieves all departments ordered by name.
func (r *DepartmentRepository) List() ([]models.Department, error) {
	var depts []models.Department
	if err := r.db.Order("name").Find(&depts).Error; err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return depts, nil
}

// GetByName retrieves a department by its name.
func (r *DepartmentRepository) GetByName(name string) (*models.Department, error) {
	var dept models.Department
	err := r.db.Where("name = ?", name).First(&dept).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("department %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get department %q: %w", name, err)
	}
	return &dept, nil
}

// GetOrCreate returns the department with the given name, creating it if
// absent.
func (r *DepartmentRepository) GetOrCreate(name string) (*models.Department, error) {
	dept, err := r.GetByName(name)
	if err == nil {
		return dept, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	created := &models.Department{Name: name}
	if err := r.Create(created); err != nil {
		return nil, err
	}
	return created, nil
}
