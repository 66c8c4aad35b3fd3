package ledger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aimd54/officecal/internal/auth"
	"github.com/aimd54/officecal/internal/models"
	"github.com/aimd54/officecal/internal/repository"
	"github.com/aimd54/officecal/internal/service/calendar"
	"github.com/aimd54/officecal/pkg/dateutil"
	"github.com/aimd54/officecal/pkg/logger"
)

type fixture struct {
	db       *repository.DB
	svc      *Service
	months   *calendar.Service
	employee auth.Actor
	admin    auth.Actor
	userID   uint
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	db := &repository.DB{DB: gormDB}
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	userRepo := repository.NewUserRepository(db)
	employee := &models.User{DisplayName: "Emp", Email: "emp@example.com", Role: models.RoleEmployee}
	require.NoError(t, userRepo.Create(employee))
	admin := &models.User{DisplayName: "Adm", Email: "adm@example.com", Role: models.RoleAdmin}
	require.NoError(t, userRepo.Create(admin))

	log := logger.Nop()
	months := calendar.NewService(repository.NewCalendarRepository(db), nil, log)
	svc := NewService(months, repository.NewStatusRepository(db), userRepo, nil, log)

	return &fixture{
		db:       db,
		svc:      svc,
		months:   months,
		employee: auth.ActorFromUser(employee),
		admin:    auth.ActorFromUser(admin),
		userID:   employee.ID,
	}
}

func TestUpsertStatus_CreateAndReplace(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	date := dateutil.Date(2026, time.March, 10)

	entry, err := f.svc.UpsertStatus(ctx, f.employee, f.userID, date, models.StatusOffice, nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", entry.Date)
	assert.Equal(t, models.StatusOffice, entry.Status)

	note := "client visit"
	entry, err = f.svc.UpsertStatus(ctx, f.employee, f.userID, date, models.StatusTrip, &note)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTrip, entry.Status)

	got, err := f.svc.GetMonth(ctx, f.employee, f.userID, 2026, 3)
	require.NoError(t, err)
	require.Len(t, got, 1, "second write replaces, never appends")
	assert.Equal(t, models.StatusTrip, got[0].Status)
	require.NotNil(t, got[0].Note)
	assert.Equal(t, "client visit", *got[0].Note)
}

func TestUpsertStatus_ClearSentinel(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	date := dateutil.Date(2026, time.March, 10)

	_, err := f.svc.UpsertStatus(ctx, f.employee, f.userID, date, models.StatusRemote, nil)
	require.NoError(t, err)

	entry, err := f.svc.UpsertStatus(ctx, f.employee, f.userID, date, models.StatusClear, nil)
	require.NoError(t, err)
	assert.Nil(t, entry)

	got, err := f.svc.GetMonth(ctx, f.employee, f.userID, 2026, 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Clearing an already-clear date stays a no-op.
	_, err = f.svc.UpsertStatus(ctx, f.employee, f.userID, date, models.StatusClear, nil)
	require.NoError(t, err)
}

func TestUpsertStatus_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	date := dateutil.Date(2026, time.March, 10)

	_, err := f.svc.UpsertStatus(ctx, f.employee, f.userID, date, "sabbatical", nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	longNote := strings.Repeat("x", models.MaxNoteLength+1)
	_, err = f.svc.UpsertStatus(ctx, f.employee, f.userID, date, models.StatusOffice, &longNote)
	assert.ErrorIs(t, err, ErrNoteTooLong)

	_, err = f.svc.UpsertStatus(ctx, f.employee, 9999, date, models.StatusOffice, nil)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = f.svc.UpsertStatus(ctx, f.admin, 9999, date, models.StatusOffice, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpsertStatus_LockedMonth(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	date := dateutil.Date(2026, time.March, 10)

	_, err := f.months.SetLocked(ctx, f.admin, 2026, 3, true)
	require.NoError(t, err)

	_, err = f.svc.UpsertStatus(ctx, f.employee, f.userID, date, models.StatusOffice, nil)
	assert.ErrorIs(t, err, ErrMonthLocked)

	// Admins may still write locked months.
	_, err = f.svc.UpsertStatus(ctx, f.admin, f.userID, date, models.StatusOffice, nil)
	require.NoError(t, err)

	_, err = f.months.SetLocked(ctx, f.admin, 2026, 3, false)
	require.NoError(t, err)
	_, err = f.svc.UpsertStatus(ctx, f.employee, f.userID, date, models.StatusRemote, nil)
	require.NoError(t, err)
}

func TestUpdateNote(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	date := dateutil.Date(2026, time.March, 10)

	note := "on call"
	_, err := f.svc.UpdateNote(ctx, f.employee, f.userID, date, &note)
	assert.ErrorIs(t, err, ErrNoEntry)

	_, err = f.svc.UpsertStatus(ctx, f.employee, f.userID, date, models.StatusNight, nil)
	require.NoError(t, err)

	entry, err := f.svc.UpdateNote(ctx, f.employee, f.userID, date, &note)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNight, entry.Status, "note edit keeps the status")
	require.NotNil(t, entry.Note)
	assert.Equal(t, "on call", *entry.Note)

	entry, err = f.svc.UpdateNote(ctx, f.employee, f.userID, date, nil)
	require.NoError(t, err)
	assert.Nil(t, entry.Note)
}

func TestReplaceMonth(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.UpsertStatus(ctx, f.employee, f.userID, dateutil.Date(2026, time.March, 2), models.StatusOffice, nil)
	require.NoError(t, err)
	_, err = f.svc.UpsertStatus(ctx, f.employee, f.userID, dateutil.Date(2026, time.March, 3), models.StatusOffice, nil)
	require.NoError(t, err)

	entries, err := f.svc.ReplaceMonth(ctx, f.employee, f.userID, 2026, 3, []Item{
		{Date: dateutil.Date(2026, time.March, 3), Status: models.StatusRemote},
		{Date: dateutil.Date(2026, time.March, 4), Status: models.StatusVacation},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2, "dates absent from the set are deleted")
	assert.Equal(t, "2026-03-03", entries[0].Date)
	assert.Equal(t, models.StatusRemote, entries[0].Status)
	assert.Equal(t, "2026-03-04", entries[1].Date)
	assert.Equal(t, models.StatusVacation, entries[1].Status)
}

func TestReplaceMonth_DuplicateDateLastWins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	note := "afternoon flight"
	entries, err := f.svc.ReplaceMonth(ctx, f.employee, f.userID, 2026, 3, []Item{
		{Date: dateutil.Date(2026, time.March, 3), Status: models.StatusOffice},
		{Date: dateutil.Date(2026, time.March, 4), Status: models.StatusRemote},
		{Date: dateutil.Date(2026, time.March, 3), Status: models.StatusTrip, Note: &note},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2026-03-03", entries[0].Date)
	assert.Equal(t, models.StatusTrip, entries[0].Status, "the later item for a repeated date wins")
	require.NotNil(t, entries[0].Note)
	assert.Equal(t, note, *entries[0].Note)
	assert.Equal(t, "2026-03-04", entries[1].Date)
	assert.Equal(t, models.StatusRemote, entries[1].Status)
}

func TestReplaceMonth_RejectsOutsideDates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.UpsertStatus(ctx, f.employee, f.userID, dateutil.Date(2026, time.March, 2), models.StatusOffice, nil)
	require.NoError(t, err)

	_, err = f.svc.ReplaceMonth(ctx, f.employee, f.userID, 2026, 3, []Item{
		{Date: dateutil.Date(2026, time.March, 5), Status: models.StatusRemote},
		{Date: dateutil.Date(2026, time.April, 1), Status: models.StatusRemote},
	})
	assert.ErrorIs(t, err, ErrDateOutsideMonth)

	// The failed replace must not have touched anything.
	got, err := f.svc.GetMonth(ctx, f.employee, f.userID, 2026, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2026-03-02", got[0].Date)
	assert.Equal(t, models.StatusOffice, got[0].Status)
}

func TestReplaceMonth_EmptySetClearsMonth(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.UpsertStatus(ctx, f.employee, f.userID, dateutil.Date(2026, time.March, 2), models.StatusOffice, nil)
	require.NoError(t, err)

	entries, err := f.svc.ReplaceMonth(ctx, f.employee, f.userID, 2026, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetMonth_EmptyIsNotAnError(t *testing.T) {
	f := setup(t)

	entries, err := f.svc.GetMonth(context.Background(), f.employee, f.userID, 2026, 7)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}
