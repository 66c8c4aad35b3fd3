package models

import (
	"time"
)

// CalendarMonth is the shared reference calendar for one (year, month).
// Created lazily on first request and immutable afterwards except for the
// lock flag and per-day override flags.
type CalendarMonth struct {
	ID       uint          `gorm:"primaryKey" json:"id"`
	Year     int           `gorm:"index;not null;uniqueIndex:uq_month" json:"year"`
	Month    int           `gorm:"index;not null;uniqueIndex:uq_month" json:"month"`
	IsLocked bool          `gorm:"default:false" json:"is_locked"`
	Days     []CalendarDay `gorm:"foreignKey:MonthID;constraint:OnDelete:CASCADE" json:"days,omitempty"`
}

// TableName specifies the table name for CalendarMonth model.
func (CalendarMonth) TableName() string {
	return "calendar_months"
}

// DayByDate returns the day row matching the given date, or nil.
func (m *CalendarMonth) DayByDate(date time.Time) *CalendarDay {
	for i := range m.Days {
		if m.Days[i].Date.Equal(date) {
			return &m.Days[i]
		}
	}
	return nil
}

// CalendarDay is one date of a CalendarMonth with its admin override flags.
type CalendarDay struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	MonthID           uint      `gorm:"not null;uniqueIndex:uq_day" json:"month_id"`
	Date              time.Time `gorm:"type:date;index;not null;uniqueIndex:uq_day" json:"date"`
	WeekdayName       string    `gorm:"size:12" json:"weekday_name"`
	IsWeekend         bool      `gorm:"default:false" json:"is_weekend"`
	IsHoliday         bool      `gorm:"default:false" json:"is_holiday"`
	IsWorkdayOverride bool      `gorm:"default:false" json:"is_workday_override"`
}

// TableName specifies the table name for CalendarDay model.
func (CalendarDay) TableName() string {
	return "calendar_days"
}

// IsNonWorking classifies the day. Holidays never count as working days.
// The workday override flips polarity with the weekend flag: on a weekend it
// forces the day to count as a working day, on a weekday it forces the day
// to count as a day off.
func (d *CalendarDay) IsNonWorking() bool {
	if d.IsHoliday {
		return true
	}
	if d.IsWeekend {
		return !d.IsWorkdayOverride
	}
	return d.IsWorkdayOverride
}
