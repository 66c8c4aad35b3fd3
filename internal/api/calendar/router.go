package calendar

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aimd54/officecal/internal/config"
	"github.com/aimd54/officecal/pkg/logger"
)

// NewRouter builds the gin engine with all application routes. The health
// and metrics endpoints are public; everything else requires a resolved
// actor.
func NewRouter(h *Handler, users UserProvider, cfg *config.Config, log *logger.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), MetricsMiddleware())

	router.GET("/health", h.Health)
	if cfg.Metrics.Prometheus.Enabled {
		router.GET(cfg.Metrics.Prometheus.Path, gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/", ActorMiddleware(users, log))

	api.POST("/departments", h.CreateDepartment)
	api.GET("/departments", h.ListDepartments)

	api.POST("/users", h.CreateUser)
	api.GET("/users", h.ListUsers)
	api.GET("/users/:id", h.GetUser)
	api.PUT("/users/:id", h.UpdateUser)
	api.DELETE("/users/:id", h.DeleteUser)

	api.GET("/months/:year/:month", h.GetMonth)
	api.POST("/months/:year/:month/lock", h.LockMonth)
	api.POST("/months/:year/:month/unlock", h.UnlockMonth)
	api.PUT("/months/:year/:month/days/:date/holiday", h.SetHoliday)
	api.PUT("/months/:year/:month/days/:date/workday", h.SetWorkdayOverride)

	api.GET("/calendar/:year/:month", h.GetTeamCalendar)
	api.GET("/who-is-in-office", h.WhoIsInOffice)

	api.GET("/users/:id/calendar/:year/:month", h.GetUserCalendar)
	api.PUT("/users/:id/calendar/:year/:month", h.ReplaceUserCalendar)
	api.PUT("/users/:id/calendar/:year/:month/:date/note", h.UpsertDayNote)
	api.POST("/users/:id/calendar/:year/:month/copy-previous", h.CopyPreviousMonth)

	api.GET("/me/remote-counter", h.GetRemoteCounter)
	api.GET("/me/vacation-counter", h.GetVacationCounter)

	return router
}
