// Package calendar provides the REST API handlers for the office calendar:
// month views, status writes, counters, admin overrides, and the team grid.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/officecal/internal/auth"
	"github.com/aimd54/officecal/internal/models"
	"github.com/aimd54/officecal/internal/repository"
	calendarsvc "github.com/aimd54/officecal/internal/service/calendar"
	"github.com/aimd54/officecal/internal/service/counters"
	"github.com/aimd54/officecal/internal/service/directory"
	"github.com/aimd54/officecal/internal/service/ledger"
	"github.com/aimd54/officecal/internal/service/teamview"
	"github.com/aimd54/officecal/pkg/logger"
)

// MonthService interface for calendar month operations.
type MonthService interface {
	GetOrCreateMonth(ctx context.Context, year, month int) (*models.CalendarMonth, error)
	SetLocked(ctx context.Context, actor auth.Actor, year, month int, locked bool) (*models.CalendarMonth, error)
	SetHoliday(ctx context.Context, actor auth.Actor, year, month int, date time.Time, value bool) (*models.CalendarDay, error)
	SetWorkdayOverride(ctx context.Context, actor auth.Actor, year, month int, date time.Time, value bool) (*models.CalendarDay, error)
}

// LedgerService interface for status ledger operations.
type LedgerService interface {
	UpsertStatus(ctx context.Context, actor auth.Actor, userID uint, date time.Time, status models.DayStatus, note *string) (*ledger.Entry, error)
	UpdateNote(ctx context.Context, actor auth.Actor, userID uint, date time.Time, note *string) (*ledger.Entry, error)
	ReplaceMonth(ctx context.Context, actor auth.Actor, userID uint, year, month int, items []ledger.Item) ([]ledger.Entry, error)
	GetMonth(ctx context.Context, actor auth.Actor, userID uint, year, month int) ([]ledger.Entry, error)
}

// CounterService interface for annual counters.
type CounterService interface {
	Remote(ctx context.Context, userID uint, year int) (*counters.RemoteCounter, error)
	Vacation(ctx context.Context, userID uint, year int) (*counters.VacationCounter, error)
}

// PlannerService interface for staged previous-month copies.
type PlannerService interface {
	CopyPreviousMonth(ctx context.Context, actor auth.Actor, userID uint, targetYear, targetMonth int) (map[string]models.DayStatus, error)
}

// TeamViewService interface for team grid and presence views.
type TeamViewService interface {
	TeamCalendar(ctx context.Context, year, month int) (*teamview.View, error)
	WhoIsInOffice(ctx context.Context, date time.Time) (*teamview.Presence, error)
}

// DirectoryService interface for user and department administration.
type DirectoryService interface {
	CreateUser(ctx context.Context, actor auth.Actor, input directory.CreateUserInput) (*models.User, error)
	UpdateUser(ctx context.Context, actor auth.Actor, userID uint, input directory.UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, actor auth.Actor, userID uint) error
	GetUser(ctx context.Context, userID uint) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateDepartment(ctx context.Context, actor auth.Actor, name string) (*models.Department, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
}

// HealthChecker reports persistence health for the liveness endpoint.
type HealthChecker interface {
	Health() error
}

// Handler handles calendar API requests.
type Handler struct {
	months    MonthService
	ledger    LedgerService
	counters  CounterService
	planner   PlannerService
	teamView  TeamViewService
	directory DirectoryService
	health    HealthChecker
	log       *logger.Logger
}

// NewHandler creates a new calendar API handler.
func NewHandler(
	months MonthService,
	ledgerService LedgerService,
	counterService CounterService,
	plannerService PlannerService,
	teamViewService TeamViewService,
	directoryService DirectoryService,
	health HealthChecker,
	log *logger.Logger,
) *Handler {
	return &Handler{
		months:    months,
		ledger:    ledgerService,
		counters:  counterService,
		planner:   plannerService,
		teamView:  teamViewService,
		directory: directoryService,
		health:    health,
		log:       log,
	}
}

// Health returns liveness including a database ping.
// GET /health.
func (h *Handler) Health(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Health(); err != nil {
			h.log.Error().Err(err).Msg("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetMonth returns the shared calendar month, generating it on first request.
// GET /months/:year/:month.
func (h *Handler) GetMonth(c *gin.Context) {
	year, month, err := parseYearMonth(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.months.GetOrCreateMonth(c.Request.Context(), year, month)
	if err != nil {
		h.handleError(c, err, "Failed to get month")
		return
	}
	c.JSON(http.StatusOK, m)
}

// LockMonth locks a month against non-admin writes.
// POST /months/:year/:month/lock.
func (h *Handler) LockMonth(c *gin.Context) {
	h.setMonthLock(c, true)
}

// UnlockMonth reopens a month.
// POST /months/:year/:month/unlock.
func (h *Handler) UnlockMonth(c *gin.Context) {
	h.setMonthLock(c, false)
}

func (h *Handler) setMonthLock(c *gin.Context, locked bool) {
	year, month, err := parseYearMonth(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.months.SetLocked(c.Request.Context(), actorFrom(c), year, month, locked)
	if err != nil {
		h.handleError(c, err, "Failed to change month lock")
		return
	}
	c.JSON(http.StatusOK, m)
}

type dayFlagRequest struct {
	Value bool `json:"value"`
}

// SetHoliday toggles the holiday flag on one day.
// PUT /months/:year/:month/days/:date/holiday.
func (h *Handler) SetHoliday(c *gin.Context) {
	h.setDayFlag(c, h.months.SetHoliday)
}

// SetWorkdayOverride toggles the workday override flag on one day.
// PUT /months/:year/:month/days/:date/workday.
func (h *Handler) SetWorkdayOverride(c *gin.Context) {
	h.setDayFlag(c, h.months.SetWorkdayOverride)
}

func (h *Handler) setDayFlag(c *gin.Context, set func(context.Context, auth.Actor, int, int, time.Time, bool) (*models.CalendarDay, error)) {
	year, month, err := parseYearMonth(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(c.Param("date"))
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	var req dayFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "malformed request body")
		return
	}
	day, err := set(c.Request.Context(), actorFrom(c), year, month, date, req.Value)
	if err != nil {
		h.handleError(c, err, "Failed to update day flag")
		return
	}
	c.JSON(http.StatusOK, day)
}

// GetTeamCalendar returns the month grid for all users.
// GET /calendar/:year/:month.
func (h *Handler) GetTeamCalendar(c *gin.Context) {
	year, month, err := parseYearMonth(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	view, err := h.teamView.TeamCalendar(c.Request.Context(), year, month)
	if err != nil {
		h.handleError(c, err, "Failed to build team calendar")
		return
	}
	c.JSON(http.StatusOK, view)
}

// WhoIsInOffice groups users by status for one date.
// GET /who-is-in-office?date=2026-03-02.
func (h *Handler) WhoIsInOffice(c *gin.Context) {
	date, err := parseDate(c.Query("date"))
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	presence, err := h.teamView.WhoIsInOffice(c.Request.Context(), date)
	if err != nil {
		h.handleError(c, err, "Failed to build presence view")
		return
	}
	c.JSON(http.StatusOK, presence)
}

// GetUserCalendar returns one user's month together with the reference
// month.
// GET /users/:id/calendar/:year/:month.
func (h *Handler) GetUserCalendar(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	year, month, err := parseYearMonth(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	// The ledger call carries the authorization check; it has to come
	// first so a forbidden caller cannot trigger a user lookup or month
	// creation.
	items, err := h.ledger.GetMonth(c.Request.Context(), actorFrom(c), userID, year, month)
	if err != nil {
		h.handleError(c, err, "Failed to get user calendar")
		return
	}
	user, err := h.directory.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err, "Failed to get user")
		return
	}
	m, err := h.months.GetOrCreateMonth(c.Request.Context(), year, month)
	if err != nil {
		h.handleError(c, err, "Failed to get month")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"month": m,
		"items": items,
	})
}

type replaceMonthRequest struct {
	Items []struct {
		Date   string  `json:"date"`
		Status string  `json:"status"`
		Note   *string `json:"note"`
	} `json:"items"`
}

// ReplaceUserCalendar replaces all of a user's entries in a month.
// PUT /users/:id/calendar/:year/:month.
func (h *Handler) ReplaceUserCalendar(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	year, month, err := parseYearMonth(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	var req replaceMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "malformed request body")
		return
	}
	items := make([]ledger.Item, 0, len(req.Items))
	for _, raw := range req.Items {
		date, err := parseDate(raw.Date)
		if err != nil {
			h.errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		status, err := models.ParseDayStatus(raw.Status)
		if err != nil {
			h.errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		items = append(items, ledger.Item{Date: date, Status: status, Note: raw.Note})
	}
	entries, err := h.ledger.ReplaceMonth(c.Request.Context(), actorFrom(c), userID, year, month, items)
	if err != nil {
		h.handleError(c, err, "Failed to replace user calendar")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}

type noteRequest struct {
	Status *string `json:"status"`
	Note   *string `json:"note"`
}

// UpsertDayNote updates one day: with a status it upserts the entry (the
// clear sentinel removes it), without a status it is a note-only edit of an
// existing entry.
// PUT /users/:id/calendar/:year/:month/:date/note.
func (h *Handler) UpsertDayNote(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if _, _, err := parseYearMonth(c); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(c.Param("date"))
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "malformed request body")
		return
	}

	var entry *ledger.Entry
	if req.Status != nil {
		status, err := models.ParseDayStatus(*req.Status)
		if err != nil {
			h.errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		entry, err = h.ledger.UpsertStatus(c.Request.Context(), actorFrom(c), userID, date, status, req.Note)
		if err != nil {
			h.handleError(c, err, "Failed to upsert status")
			return
		}
	} else {
		entry, err = h.ledger.UpdateNote(c.Request.Context(), actorFrom(c), userID, date, req.Note)
		if err != nil {
			h.handleError(c, err, "Failed to update note")
			return
		}
	}
	if entry == nil {
		// Entry was cleared.
		c.JSON(http.StatusOK, gin.H{"date": date.Format("2006-01-02"), "status": nil})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// CopyPreviousMonth returns the staged status map copied from the previous
// month; nothing is persisted until the client saves it with a month
// replace.
// POST /users/:id/calendar/:year/:month/copy-previous.
func (h *Handler) CopyPreviousMonth(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	year, month, err := parseYearMonth(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	staged, err := h.planner.CopyPreviousMonth(c.Request.Context(), actorFrom(c), userID, year, month)
	if err != nil {
		h.handleError(c, err, "Failed to stage previous-month copy")
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": staged})
}

// GetRemoteCounter returns the actor's annual remote-day counter.
// GET /me/remote-counter?year=2026.
func (h *Handler) GetRemoteCounter(c *gin.Context) {
	year, err := parseYearQuery(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	counter, err := h.counters.Remote(c.Request.Context(), actorFrom(c).ID, year)
	if err != nil {
		h.handleError(c, err, "Failed to compute remote counter")
		return
	}
	c.JSON(http.StatusOK, counter)
}

// GetVacationCounter returns the actor's annual vacation counter.
// GET /me/vacation-counter?year=2026.
func (h *Handler) GetVacationCounter(c *gin.Context) {
	year, err := parseYearQuery(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	counter, err := h.counters.Vacation(c.Request.Context(), actorFrom(c).ID, year)
	if err != nil {
		h.handleError(c, err, "Failed to compute vacation counter")
		return
	}
	c.JSON(http.StatusOK, counter)
}

type createUserRequest struct {
	DisplayName            string         `json:"display_name"`
	Email                  string         `json:"email"`
	Role                   string         `json:"role"`
	AnnualRemoteLimit      *int           `json:"annual_remote_limit"`
	StartDate              *string        `json:"start_date"`
	AdditionalVacationDays int            `json:"additional_vacation_days"`
	CarryoverVacationDays  int            `json:"carryover_vacation_days"`
	DepartmentID           *uint          `json:"department_id"`
	VacationDays           map[string]int `json:"vacation_days"`
}

// CreateUser creates a user. Admin only.
// POST /users.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "malformed request body")
		return
	}
	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.directory.CreateUser(c.Request.Context(), actorFrom(c), directory.CreateUserInput{
		DisplayName:            req.DisplayName,
		Email:                  req.Email,
		Role:                   models.Role(req.Role),
		AnnualRemoteLimit:      req.AnnualRemoteLimit,
		StartDate:              startDate,
		AdditionalVacationDays: req.AdditionalVacationDays,
		CarryoverVacationDays:  req.CarryoverVacationDays,
		DepartmentID:           req.DepartmentID,
		VacationDays:           req.VacationDays,
	})
	if err != nil {
		h.handleError(c, err, "Failed to create user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

type updateUserRequest struct {
	DisplayName            *string        `json:"display_name"`
	Email                  *string        `json:"email"`
	Role                   *string        `json:"role"`
	AnnualRemoteLimit      *int           `json:"annual_remote_limit"`
	StartDate              *string        `json:"start_date"`
	AdditionalVacationDays *int           `json:"additional_vacation_days"`
	CarryoverVacationDays  *int           `json:"carryover_vacation_days"`
	DepartmentID           *uint          `json:"department_id"`
	VacationDays           map[string]int `json:"vacation_days"`
}

// UpdateUser applies a partial user update. Admin only.
// PUT /users/:id.
func (h *Handler) UpdateUser(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "malformed request body")
		return
	}
	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	input := directory.UpdateUserInput{
		DisplayName:            req.DisplayName,
		Email:                  req.Email,
		AnnualRemoteLimit:      req.AnnualRemoteLimit,
		StartDate:              startDate,
		AdditionalVacationDays: req.AdditionalVacationDays,
		CarryoverVacationDays:  req.CarryoverVacationDays,
		DepartmentID:           req.DepartmentID,
		VacationDays:           req.VacationDays,
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		input.Role = &role
	}
	user, err := h.directory.UpdateUser(c.Request.Context(), actorFrom(c), userID, input)
	if err != nil {
		h.handleError(c, err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser removes a user and their ledger entries. Admin only.
// DELETE /users/:id.
func (h *Handler) DeleteUser(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.directory.DeleteUser(c.Request.Context(), actorFrom(c), userID); err != nil {
		h.handleError(c, err, "Failed to delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetUser returns a single user.
// GET /users/:id.
func (h *Handler) GetUser(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.directory.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err, "Failed to get user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers returns all users ordered by display name.
// GET /users.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.directory.ListUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, err, "Failed to list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

type createDepartmentRequest struct {
	Name string `json:"name"`
}

// CreateDepartment creates a department. Admin only.
// POST /departments.
func (h *Handler) CreateDepartment(c *gin.Context) {
	var req createDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "malformed request body")
		return
	}
	dept, err := h.directory.CreateDepartment(c.Request.Context(), actorFrom(c), req.Name)
	if err != nil {
		h.handleError(c, err, "Failed to create department")
		return
	}
	c.JSON(http.StatusCreated, dept)
}

// ListDepartments returns all departments ordered by name.
// GET /departments.
func (h *Handler) ListDepartments(c *gin.Context) {
	depts, err := h.directory.ListDepartments(c.Request.Context())
	if err != nil {
		h.handleError(c, err, "Failed to list departments")
		return
	}
	c.JSON(http.StatusOK, depts)
}

// handleError maps domain errors onto HTTP status codes. Validation errors
// are 400, authorization 403, locked months 409, missing entities 404;
// anything else is logged and reported as 500.
func (h *Handler) handleError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		h.errorResponse(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, ledger.ErrMonthLocked):
		h.errorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, ledger.ErrNoEntry):
		h.errorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, calendarsvc.ErrInvalidMonth),
		errors.Is(err, calendarsvc.ErrDayNotFound),
		errors.Is(err, ledger.ErrInvalidStatus),
		errors.Is(err, ledger.ErrNoteTooLong),
		errors.Is(err, ledger.ErrDateOutsideMonth),
		errors.Is(err, directory.ErrInvalidInput):
		h.errorResponse(c, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg(logMsg)
		h.errorResponse(c, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func parseUserID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q", c.Param("id"))
	}
	return uint(id), nil
}

func parseYearMonth(c *gin.Context) (int, int, error) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q", c.Param("year"))
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q", c.Param("month"))
	}
	return year, month, nil
}

func parseYearQuery(c *gin.Context) (int, error) {
	raw := c.Query("year")
	if raw == "" {
		return 0, fmt.Errorf("year query parameter is required")
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return year, nil
}

func parseDate(raw string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return date, nil
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	date, err := parseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &date, nil
}
