package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/officecal/internal/auth"
	"github.com/aimd54/officecal/internal/config"
	"github.com/aimd54/officecal/internal/models"
	"github.com/aimd54/officecal/internal/repository"
	"github.com/aimd54/officecal/internal/service/counters"
	"github.com/aimd54/officecal/internal/service/directory"
	"github.com/aimd54/officecal/internal/service/ledger"
	"github.com/aimd54/officecal/internal/service/teamview"
	"github.com/aimd54/officecal/pkg/logger"
)

type mockUserProvider struct {
	users map[uint]*models.User
}

func (m *mockUserProvider) GetByID(id uint) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

type mockMonthService struct {
	getOrCreateFunc func(year, month int) (*models.CalendarMonth, error)
	setLockedFunc   func(actor auth.Actor, year, month int, locked bool) (*models.CalendarMonth, error)
}

func (m *mockMonthService) GetOrCreateMonth(_ context.Context, year, month int) (*models.CalendarMonth, error) {
	return m.getOrCreateFunc(year, month)
}

func (m *mockMonthService) SetLocked(_ context.Context, actor auth.Actor, year, month int, locked bool) (*models.CalendarMonth, error) {
	return m.setLockedFunc(actor, year, month, locked)
}

func (m *mockMonthService) SetHoliday(_ context.Context, actor auth.Actor, year, month int, date time.Time, value bool) (*models.CalendarDay, error) {
	return nil, errors.New("not implemented")
}

func (m *mockMonthService) SetWorkdayOverride(_ context.Context, actor auth.Actor, year, month int, date time.Time, value bool) (*models.CalendarDay, error) {
	return nil, errors.New("not implemented")
}

type mockLedgerService struct {
	upsertFunc  func(actor auth.Actor, userID uint, date time.Time, status models.DayStatus, note *string) (*ledger.Entry, error)
	noteFunc    func(actor auth.Actor, userID uint, date time.Time, note *string) (*ledger.Entry, error)
	replaceFunc func(actor auth.Actor, userID uint, year, month int, items []ledger.Item) ([]ledger.Entry, error)
	getFunc     func(actor auth.Actor, userID uint, year, month int) ([]ledger.Entry, error)
}

func (m *mockLedgerService) UpsertStatus(_ context.Context, actor auth.Actor, userID uint, date time.Time, status models.DayStatus, note *string) (*ledger.Entry, error) {
	return m.upsertFunc(actor, userID, date, status, note)
}

func (m *mockLedgerService) UpdateNote(_ context.Context, actor auth.Actor, userID uint, date time.Time, note *string) (*ledger.Entry, error) {
	return m.noteFunc(actor, userID, date, note)
}

func (m *mockLedgerService) ReplaceMonth(_ context.Context, actor auth.Actor, userID uint, year, month int, items []ledger.Item) ([]ledger.Entry, error) {
	return m.replaceFunc(actor, userID, year, month, items)
}

func (m *mockLedgerService) GetMonth(_ context.Context, actor auth.Actor, userID uint, year, month int) ([]ledger.Entry, error) {
	return m.getFunc(actor, userID, year, month)
}

type mockCounterService struct {
	remoteFunc   func(userID uint, year int) (*counters.RemoteCounter, error)
	vacationFunc func(userID uint, year int) (*counters.VacationCounter, error)
}

func (m *mockCounterService) Remote(_ context.Context, userID uint, year int) (*counters.RemoteCounter, error) {
	return m.remoteFunc(userID, year)
}

func (m *mockCounterService) Vacation(_ context.Context, userID uint, year int) (*counters.VacationCounter, error) {
	return m.vacationFunc(userID, year)
}

type mockPlannerService struct {
	copyFunc func(actor auth.Actor, userID uint, year, month int) (map[string]models.DayStatus, error)
}

func (m *mockPlannerService) CopyPreviousMonth(_ context.Context, actor auth.Actor, userID uint, year, month int) (map[string]models.DayStatus, error) {
	return m.copyFunc(actor, userID, year, month)
}

type mockTeamViewService struct {
	teamFunc     func(year, month int) (*teamview.View, error)
	presenceFunc func(date time.Time) (*teamview.Presence, error)
}

func (m *mockTeamViewService) TeamCalendar(_ context.Context, year, month int) (*teamview.View, error) {
	return m.teamFunc(year, month)
}

func (m *mockTeamViewService) WhoIsInOffice(_ context.Context, date time.Time) (*teamview.Presence, error) {
	return m.presenceFunc(date)
}

type mockDirectoryService struct {
	createFunc func(actor auth.Actor, input directory.CreateUserInput) (*models.User, error)
	getFunc    func(userID uint) (*models.User, error)
}

func (m *mockDirectoryService) CreateUser(_ context.Context, actor auth.Actor, input directory.CreateUserInput) (*models.User, error) {
	return m.createFunc(actor, input)
}

func (m *mockDirectoryService) UpdateUser(_ context.Context, actor auth.Actor, userID uint, input directory.UpdateUserInput) (*models.User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockDirectoryService) DeleteUser(_ context.Context, actor auth.Actor, userID uint) error {
	return errors.New("not implemented")
}

func (m *mockDirectoryService) GetUser(_ context.Context, userID uint) (*models.User, error) {
	return m.getFunc(userID)
}

func (m *mockDirectoryService) ListUsers(_ context.Context) ([]models.User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockDirectoryService) CreateDepartment(_ context.Context, actor auth.Actor, name string) (*models.Department, error) {
	return nil, errors.New("not implemented")
}

func (m *mockDirectoryService) ListDepartments(_ context.Context) ([]models.Department, error) {
	return nil, errors.New("not implemented")
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) Health() error { return m.err }

type testEnv struct {
	router    *gin.Engine
	months    *mockMonthService
	ledger    *mockLedgerService
	counters  *mockCounterService
	planner   *mockPlannerService
	teamView  *mockTeamViewService
	directory *mockDirectoryService
	health    *mockHealthChecker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		months:    &mockMonthService{},
		ledger:    &mockLedgerService{},
		counters:  &mockCounterService{},
		planner:   &mockPlannerService{},
		teamView:  &mockTeamViewService{},
		directory: &mockDirectoryService{},
		health:    &mockHealthChecker{},
	}
	log := logger.Nop()
	handler := NewHandler(env.months, env.ledger, env.counters, env.planner, env.teamView, env.directory, env.health, log)
	users := &mockUserProvider{users: map[uint]*models.User{
		1: {ID: 1, DisplayName: "Admin", Role: models.RoleAdmin},
		2: {ID: 2, DisplayName: "Emp", Role: models.RoleEmployee},
	}}
	cfg := &config.Config{}
	env.router = NewRouter(handler, users, cfg, log)
	return env
}

func (env *testEnv) request(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestActorMiddleware(t *testing.T) {
	env := newTestEnv(t)
	env.counters.remoteFunc = func(userID uint, year int) (*counters.RemoteCounter, error) {
		return &counters.RemoteCounter{Year: year, Limit: 100, Remaining: 100}, nil
	}

	w := env.request(t, http.MethodGet, "/me/remote-counter?year=2026", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "missing header")

	w = env.request(t, http.MethodGet, "/me/remote-counter?year=2026", "abc", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "malformed header")

	w = env.request(t, http.MethodGet, "/me/remote-counter?year=2026", "42", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "unknown user")

	w = env.request(t, http.MethodGet, "/me/remote-counter?year=2026", "2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	env.health.err = errors.New("db down")
	w = env.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUpsertDayNote(t *testing.T) {
	env := newTestEnv(t)

	var gotStatus models.DayStatus
	env.ledger.upsertFunc = func(actor auth.Actor, userID uint, date time.Time, status models.DayStatus, note *string) (*ledger.Entry, error) {
		gotStatus = status
		if status == models.StatusClear {
			return nil, nil
		}
		return &ledger.Entry{Date: date.Format("2006-01-02"), Status: status, Note: note}, nil
	}
	env.ledger.noteFunc = func(actor auth.Actor, userID uint, date time.Time, note *string) (*ledger.Entry, error) {
		return &ledger.Entry{Date: date.Format("2006-01-02"), Status: models.StatusOffice, Note: note}, nil
	}

	// Status present: upsert path.
	w := env.request(t, http.MethodPut, "/users/2/calendar/2026/3/2026-03-10/note", "2",
		map[string]interface{}{"status": "remote", "note": "from home"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusRemote, gotStatus)
	var entry ledger.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, "2026-03-10", entry.Date)

	// Clear sentinel: entry removed, null status reported.
	w = env.request(t, http.MethodPut, "/users/2/calendar/2026/3/2026-03-10/note", "2",
		map[string]interface{}{"status": "clear"})
	require.Equal(t, http.StatusOK, w.Code)
	var cleared map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cleared))
	assert.Nil(t, cleared["status"])

	// No status: note-only path.
	w = env.request(t, http.MethodPut, "/users/2/calendar/2026/3/2026-03-10/note", "2",
		map[string]interface{}{"note": "standup moved"})
	require.Equal(t, http.StatusOK, w.Code)

	// Unknown status is rejected before the service is called.
	w = env.request(t, http.MethodPut, "/users/2/calendar/2026/3/2026-03-10/note", "2",
		map[string]interface{}{"status": "sabbatical"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPut, "/users/2/calendar/2026/3/not-a-date/note", "2",
		map[string]interface{}{"status": "office"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReplaceUserCalendar(t *testing.T) {
	env := newTestEnv(t)

	var gotItems []ledger.Item
	env.ledger.replaceFunc = func(actor auth.Actor, userID uint, year, month int, items []ledger.Item) ([]ledger.Entry, error) {
		gotItems = items
		entries := make([]ledger.Entry, 0, len(items))
		for _, item := range items {
			entries = append(entries, ledger.Entry{Date: item.Date.Format("2006-01-02"), Status: item.Status})
		}
		return entries, nil
	}

	body := map[string]interface{}{"items": []map[string]interface{}{
		{"date": "2026-03-02", "status": "office"},
		{"date": "2026-03-03", "status": "remote", "note": "focus day"},
	}}
	w := env.request(t, http.MethodPut, "/users/2/calendar/2026/3", "2", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, gotItems, 2)
	assert.Equal(t, models.StatusOffice, gotItems[0].Status)
	require.NotNil(t, gotItems[1].Note)
	assert.Equal(t, "focus day", *gotItems[1].Note)

	w = env.request(t, http.MethodPut, "/users/2/calendar/2026/3", "2",
		map[string]interface{}{"items": []map[string]interface{}{{"date": "03/02", "status": "office"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPut, "/users/2/calendar/2026/3", "2",
		map[string]interface{}{"items": []map[string]interface{}{{"date": "2026-03-02", "status": "nope"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCopyPreviousMonth(t *testing.T) {
	env := newTestEnv(t)
	env.planner.copyFunc = func(actor auth.Actor, userID uint, year, month int) (map[string]models.DayStatus, error) {
		assert.Equal(t, uint(2), userID)
		return map[string]models.DayStatus{"2026-04-06": models.StatusOffice}, nil
	}

	w := env.request(t, http.MethodPost, "/users/2/calendar/2026/4/copy-previous", "2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Statuses map[string]models.DayStatus `json:"statuses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusOffice, resp.Statuses["2026-04-06"])
}

func TestGetRemoteCounter(t *testing.T) {
	env := newTestEnv(t)
	env.counters.remoteFunc = func(userID uint, year int) (*counters.RemoteCounter, error) {
		assert.Equal(t, uint(2), userID, "counter is computed for the actor")
		return &counters.RemoteCounter{Year: year, Used: 12, Limit: 100, Remaining: 88}, nil
	}

	w := env.request(t, http.MethodGet, "/me/remote-counter?year=2026", "2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var counter counters.RemoteCounter
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &counter))
	assert.Equal(t, counters.RemoteCounter{Year: 2026, Used: 12, Limit: 100, Remaining: 88}, counter)

	w = env.request(t, http.MethodGet, "/me/remote-counter", "2", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "year query is required")
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"forbidden", auth.ErrForbidden, http.StatusForbidden},
		{"locked month", fmt.Errorf("%w: 2026-03", ledger.ErrMonthLocked), http.StatusConflict},
		{"no entry", ledger.ErrNoEntry, http.StatusNotFound},
		{"not found", repository.ErrNotFound, http.StatusNotFound},
		{"note too long", ledger.ErrNoteTooLong, http.StatusBadRequest},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.ledger.upsertFunc = func(auth.Actor, uint, time.Time, models.DayStatus, *string) (*ledger.Entry, error) {
				return nil, tt.err
			}
			w := env.request(t, http.MethodPut, "/users/2/calendar/2026/3/2026-03-10/note", "2",
				map[string]interface{}{"status": "office"})
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestGetUserCalendar(t *testing.T) {
	env := newTestEnv(t)
	env.directory.getFunc = func(userID uint) (*models.User, error) {
		return &models.User{ID: userID, DisplayName: "Emp"}, nil
	}
	env.months.getOrCreateFunc = func(year, month int) (*models.CalendarMonth, error) {
		return &models.CalendarMonth{Year: year, Month: month}, nil
	}
	env.ledger.getFunc = func(actor auth.Actor, userID uint, year, month int) ([]ledger.Entry, error) {
		return []ledger.Entry{{Date: "2026-03-02", Status: models.StatusOffice}}, nil
	}

	w := env.request(t, http.MethodGet, "/users/2/calendar/2026/3", "2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		User  models.User          `json:"user"`
		Month models.CalendarMonth `json:"month"`
		Items []ledger.Entry       `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(2), resp.User.ID)
	assert.Equal(t, 3, resp.Month.Month)
	require.Len(t, resp.Items, 1)

	w = env.request(t, http.MethodGet, "/users/abc/calendar/2026/3", "2", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUserCalendar_ForbiddenBeforeLookups(t *testing.T) {
	env := newTestEnv(t)
	env.ledger.getFunc = func(actor auth.Actor, userID uint, year, month int) ([]ledger.Entry, error) {
		return nil, auth.ErrForbidden
	}
	env.directory.getFunc = func(userID uint) (*models.User, error) {
		t.Error("forbidden request must not look up the user")
		return nil, repository.ErrNotFound
	}
	env.months.getOrCreateFunc = func(year, month int) (*models.CalendarMonth, error) {
		t.Error("forbidden request must not create the month")
		return nil, repository.ErrNotFound
	}

	w := env.request(t, http.MethodGet, "/users/3/calendar/2026/3", "2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLockMonth(t *testing.T) {
	env := newTestEnv(t)

	env.months.setLockedFunc = func(actor auth.Actor, year, month int, locked bool) (*models.CalendarMonth, error) {
		if actor.Role != models.RoleAdmin {
			return nil, auth.ErrForbidden
		}
		return &models.CalendarMonth{Year: year, Month: month, IsLocked: locked}, nil
	}

	w := env.request(t, http.MethodPost, "/months/2026/3/lock", "2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodPost, "/months/2026/3/lock", "1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var m models.CalendarMonth
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.True(t, m.IsLocked)
}
