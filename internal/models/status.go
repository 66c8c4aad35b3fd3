package models

import (
	"fmt"
	"time"
)

// DayStatus is the closed set of daily statuses a user can report.
type DayStatus string

// Daily statuses. StatusClear is a request-level sentinel meaning "remove
// the entry"; it is never stored.
const (
	StatusOffice   DayStatus = "office"
	StatusRemote   DayStatus = "remote"
	StatusVacation DayStatus = "vacation"
	StatusNight    DayStatus = "night"
	StatusTrip     DayStatus = "trip"
	StatusAbsent   DayStatus = "absent"

	StatusClear DayStatus = "clear"
)

// MaxNoteLength limits the free-text note attached to a status entry.
const MaxNoteLength = 500

// Valid reports whether the status is storable (the clear sentinel is not).
func (s DayStatus) Valid() bool {
	switch s {
	case StatusOffice, StatusRemote, StatusVacation, StatusNight, StatusTrip, StatusAbsent:
		return true
	}
	return false
}

// ParseDayStatus converts wire input into a DayStatus, accepting the clear
// sentinel. Anything else is a validation error.
func ParseDayStatus(raw string) (DayStatus, error) {
	s := DayStatus(raw)
	if s.Valid() || s == StatusClear {
		return s, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// StatusEntry is the per-(user, day) status record. At most one row exists
// per (user, day); writes are upserts, never appends.
type StatusEntry struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"not null;uniqueIndex:uq_user_day" json:"user_id"`
	User      User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	DayID     uint        `gorm:"not null;uniqueIndex:uq_user_day" json:"day_id"`
	Day       CalendarDay `gorm:"foreignKey:DayID" json:"day,omitempty"`
	Status    DayStatus   `gorm:"size:20;not null" json:"status"`
	Note      *string     `gorm:"size:500" json:"note,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName specifies the table name for StatusEntry model.
func (StatusEntry) TableName() string {
	return "user_day_statuses"
}
