package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aimd54/officecal/internal/models"
	"github.com/aimd54/officecal/pkg/dateutil"
)

// StatusRepository handles status ledger database operations.
type StatusRepository struct {
	db *DB
}

// NewStatusRepository creates a new status repository.
func NewStatusRepository(db *DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// GetByUserDay retrieves the entry for (user, day), or ErrNotFound.
func (r *StatusRepository) GetByUserDay(userID, dayID uint) (*models.StatusEntry, error) {
	var entry models.StatusEntry
	err := r.db.Where("user_id = ? AND day_id = ?", userID, dayID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("status entry for user %d day %d: %w", userID, dayID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get status entry for user %d day %d: %w", userID, dayID, err)
	}
	return &entry, nil
}

// Upsert stores the entry for (user, day), replacing any existing one. At
// most one row per (user, day) ever exists.
func (r *StatusRepository) Upsert(entry *models.StatusEntry) error {
	var existing models.StatusEntry
	err := r.db.Where("user_id = ? AND day_id = ?", entry.UserID, entry.DayID).First(&existing).Error
	if err == nil {
		existing.Status = entry.Status
		existing.Note = entry.Note
		existing.UpdatedAt = time.Now()
		if err := r.db.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update status entry %d: %w", existing.ID, err)
		}
		*entry = existing
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up status entry for user %d day %d: %w", entry.UserID, entry.DayID, err)
	}
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create status entry for user %d day %d: %w", entry.UserID, entry.DayID, err)
	}
	return nil
}

// Delete removes the entry for (user, day). Deleting a missing entry is not
// an error; clearing is idempotent.
func (r *StatusRepository) Delete(userID, dayID uint) error {
	err := r.db.Where("user_id = ? AND day_id = ?", userID, dayID).Delete(&models.StatusEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete status entry for user %d day %d: %w", userID, dayID, err)
	}
	return nil
}

// GetForUserMonth retrieves the user's entries within a month, day preloaded,
// in date order.
func (r *StatusRepository) GetForUserMonth(userID, monthID uint) ([]models.StatusEntry, error) {
	var entries []models.StatusEntry
	err := r.db.
		Preload("Day").
		Joins("JOIN calendar_days ON calendar_days.id = user_day_statuses.day_id").
		Where("user_day_statuses.user_id = ? AND calendar_days.month_id = ?", userID, monthID).
		Order("calendar_days.date").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get statuses for user %d month %d: %w", userID, monthID, err)
	}
	return entries, nil
}

// GetForMonth retrieves all users' entries within a month, day preloaded.
func (r *StatusRepository) GetForMonth(monthID uint) ([]models.StatusEntry, error) {
	var entries []models.StatusEntry
	err := r.db.
		Preload("Day").
		Joins("JOIN calendar_days ON calendar_days.id = user_day_statuses.day_id").
		Where("calendar_days.month_id = ?", monthID).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get statuses for month %d: %w", monthID, err)
	}
	return entries, nil
}

// GetForDay retrieves all users' entries for a single day.
func (r *StatusRepository) GetForDay(dayID uint) ([]models.StatusEntry, error) {
	var entries []models.StatusEntry
	err := r.db.Where("day_id = ?", dayID).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get statuses for day %d: %w", dayID, err)
	}
	return entries, nil
}

// ReplaceUserMonth atomically replaces the user's entries inside the month
// identified by dayIDs with exactly the given set. The whole operation either
// commits or rolls back; a month replace is never partially applied.
func (r *StatusRepository) ReplaceUserMonth(userID uint, dayIDs []uint, entries []models.StatusEntry) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if len(dayIDs) > 0 {
			err := tx.Where("user_id = ? AND day_id IN ?", userID, dayIDs).
				Delete(&models.StatusEntry{}).Error
			if err != nil {
				return err
			}
		}
		for i := range entries {
			if err := tx.Create(&entries[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace month statuses for user %d: %w", userID, err)
	}
	return nil
}

// CountByStatusInYear counts the user's entries with the given status inside
// a calendar year.
func (r *StatusRepository) CountByStatusInYear(userID uint, year int, status models.DayStatus) (int64, error) {
	start := dateutil.Date(year, time.January, 1)
	end := dateutil.Date(year, time.December, 31)
	return r.countByStatusInRange(userID, status, start, end)
}

// CountByStatusUntil counts the user's entries with the given status from the
// start of the year through endDate inclusive. An endDate before the year
// start yields zero.
func (r *StatusRepository) CountByStatusUntil(userID uint, year int, status models.DayStatus, endDate time.Time) (int64, error) {
	start := dateutil.Date(year, time.January, 1)
	end := dateutil.Normalize(endDate)
	if end.Before(start) {
		return 0, nil
	}
	return r.countByStatusInRange(userID, status, start, end)
}

func (r *StatusRepository) countByStatusInRange(userID uint, status models.DayStatus, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.StatusEntry{}).
		Joins("JOIN calendar_days ON calendar_days.id = user_day_statuses.day_id").
		Where("user_day_statuses.user_id = ? AND user_day_statuses.status = ?", userID, status).
		Where("calendar_days.date BETWEEN ? AND ?", start, end).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count %s days for user %d: %w", status, userID, err)
	}
	return count, nil
}
