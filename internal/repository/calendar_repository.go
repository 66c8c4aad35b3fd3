package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aimd54/officecal/internal/models"
	"github.com/aimd54/officecal/pkg/dateutil"
)

// CalendarRepository handles calendar month and day database operations.
type CalendarRepository struct {
	db *DB
}

// NewCalendarRepository creates a new calendar repository.
func NewCalendarRepository(db *DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// GetMonth retrieves the month row for (year, month) with its days in date
// order. Returns ErrNotFound when the month has never been generated.
func (r *CalendarRepository) GetMonth(year int, month time.Month) (*models.CalendarMonth, error) {
	var m models.CalendarMonth
	err := r.db.
		Preload("Days", func(db *gorm.DB) *gorm.DB { return db.Order("date") }).
		Where("year = ? AND month = ?", year, int(month)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("month %d-%02d: %w", year, int(month), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get month %d-%02d: %w", year, int(month), err)
	}
	return &m, nil
}

// GetOrCreateMonth returns the month row for (year, month), generating it and
// its day rows on first request. Generation is idempotent: an existing month
// is returned verbatim with its override flags intact. When two callers race
// on creation, the unique (year, month) constraint makes exactly one insert
// win; the loser detects the duplicate key and falls back to reading the
// winner's rows. The second return value reports whether this call created
// the month.
func (r *CalendarRepository) GetOrCreateMonth(year int, month time.Month) (*models.CalendarMonth, bool, error) {
	existing, err := r.GetMonth(year, month)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	createErr := r.db.Transaction(func(tx *gorm.DB) error {
		m := models.CalendarMonth{Year: year, Month: int(month)}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		days := make([]models.CalendarDay, 0, dateutil.DaysInMonth(year, month))
		for _, date := range dateutil.MonthDays(year, month) {
			days = append(days, models.CalendarDay{
				MonthID:     m.ID,
				Date:        date,
				WeekdayName: dateutil.WeekdayName(date),
				IsWeekend:   dateutil.IsWeekend(date),
			})
		}
		return tx.Create(&days).Error
	})
	if createErr != nil {
		if errors.Is(createErr, gorm.ErrDuplicatedKey) {
			// Lost the creation race; the other writer's rows are authoritative.
			m, err := r.GetMonth(year, month)
			return m, false, err
		}
		return nil, false, fmt.Errorf("failed to create month %d-%02d: %w", year, int(month), createErr)
	}

	m, err := r.GetMonth(year, month)
	return m, true, err
}

// SetLocked sets the lock flag on a month row.
func (r *CalendarRepository) SetLocked(monthID uint, locked bool) error {
	err := r.db.Model(&models.CalendarMonth{}).
		Where("id = ?", monthID).
		Update("is_locked", locked).Error
	if err != nil {
		return fmt.Errorf("failed to set lock on month %d: %w", monthID, err)
	}
	return nil
}

// UpdateDayFlags persists the override flags of a single day row.
func (r *CalendarRepository) UpdateDayFlags(day *models.CalendarDay) error {
	err := r.db.Model(&models.CalendarDay{}).
		Where("id = ?", day.ID).
		Updates(map[string]interface{}{
			"is_holiday":          day.IsHoliday,
			"is_workday_override": day.IsWorkdayOverride,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update day %d flags: %w", day.ID, err)
	}
	return nil
}

// GetDayByDate retrieves a single day row by its date.
func (r *CalendarRepository) GetDayByDate(date time.Time) (*models.CalendarDay, error) {
	var day models.CalendarDay
	err := r.db.Where("date = ?", dateutil.Normalize(date)).First(&day).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("day %s: %w", date.Format("2006-01-02"), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get day %s: %w", date.Format("2006-01-02"), err)
	}
	return &day, nil
}
