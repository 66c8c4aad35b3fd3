package models

import (
	"time"
)

// Role is the access level of a user.
type Role string

// User roles.
const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User represents an employee account.
type User struct {
	ID                     uint               `gorm:"primaryKey" json:"id"`
	DisplayName            string             `gorm:"index;not null;size:160" json:"display_name"`
	Email                  string             `gorm:"uniqueIndex;not null;size:200" json:"email"`
	Role                   Role               `gorm:"size:50;default:employee" json:"role"`
	AnnualRemoteLimit      int                `gorm:"default:100" json:"annual_remote_limit"`
	StartDate              *time.Time         `gorm:"type:date" json:"start_date,omitempty"`
	AdditionalVacationDays int                `gorm:"default:0" json:"additional_vacation_days"`
	CarryoverVacationDays  int                `gorm:"default:0" json:"carryover_vacation_days"`
	DepartmentID           *uint              `gorm:"index" json:"department_id,omitempty"`
	Department             *Department        `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	VacationDays           []UserVacationDays `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"vacation_days,omitempty"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// VacationAllowance is the user's total vacation budget for a year: the sum
// of per-type allocations plus additional and carried-over days. Allowances
// are full-year regardless of a mid-year start date.
func (u *User) VacationAllowance() int {
	total := u.AdditionalVacationDays + u.CarryoverVacationDays
	for _, v := range u.VacationDays {
		total += v.DaysPerYear
	}
	return total
}

// Department groups users; membership is optional.
type Department struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null;size:120" json:"name"`
}

// TableName specifies the table name for Department model.
func (Department) TableName() string {
	return "departments"
}

// UserVacationDays is a per-type vacation allocation for a user, e.g.
// ("regular", 20) or ("seniority", 3). At most one row per (user, type).
type UserVacationDays struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UserID       uint   `gorm:"not null;uniqueIndex:uq_user_vacation_type" json:"user_id"`
	VacationType string `gorm:"not null;size:50;uniqueIndex:uq_user_vacation_type" json:"vacation_type"`
	DaysPerYear  int    `gorm:"default:0" json:"days_per_year"`
}

// TableName specifies the table name for UserVacationDays model.
func (UserVacationDays) TableName() string {
	return "user_vacation_days"
}
