package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"efficio-api/stream"
)

// Options tunes route registration.
type Options struct {
	// Heartbeat is the stream keep-alive interval; defaults to 15s.
	Heartbeat time.Duration
	// DebugEndpoints exposes the non-production stream debug surface.
	DebugEndpoints bool
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, auth Authenticator, deduper Deduper, events Events, registry *stream.Registry, logger *log.Logger, opts Options) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	heartbeat := opts.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}

	e.GET("/healthz", healthz())

	e.GET("/api/stream", streamEvents(registry, auth, heartbeat, logger))

	e.POST("/api/users", provisionUser(store, auth))
	e.GET("/api/users/me", getMe(store, auth))
	e.PATCH("/api/users/me", updateMe(store, auth))

	e.GET("/api/tasks", getTasks(store, auth))
	e.POST("/api/tasks", postTask(store, auth, deduper, events))
	e.PATCH("/api/tasks/:id", patchTask(store, auth, events))
	e.DELETE("/api/tasks/:id", deleteTask(store, auth, events))

	e.POST("/api/groups", postGroup(store, auth))
	e.GET("/api/groups", getGroups(store, auth))
	e.GET("/api/groups/:tag/members", getMembers(store, auth))
	e.POST("/api/groups/:tag/invitations", postInvitation(store, auth, events))
	e.POST("/api/groups/:tag/invitations/respond", respondInvitation(store, auth, events))

	e.GET("/api/activities", getActivities(store, auth))
	e.POST("/api/activities", postActivity(store, auth, events))

	e.GET("/api/notifications", getNotifications(store, auth))
	e.DELETE("/api/notifications/:id", dismissNotification(store, auth))

	e.GET("/api/time-entries", getTimeEntries(store, auth))
	e.POST("/api/time-entries/start", startTimeEntry(store, auth))
	e.POST("/api/time-entries/stop", stopTimeEntry(store, auth))

	if opts.DebugEndpoints {
		registerDebug(e, registry)
	}
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}
