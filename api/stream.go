package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"efficio-api/domain"
	"efficio-api/stream"
)

const defaultHeartbeat = 15 * time.Second

// streamEvents serves the long-lived push connection. Stream clients often
// cannot set headers, so a bearer token arriving as the "token" query
// parameter is promoted into an Authorization header before auth runs.
func streamEvents(registry *stream.Registry, auth Authenticator, heartbeat time.Duration, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		metrics := newStreamMetrics(logger)

		token := c.QueryParam("token")
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" && token != "" {
			authHeader = "Bearer " + token
		}
		userID, err := auth.UserIDFromAuthHeader(authHeader)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}
		c.Response().WriteHeader(http.StatusOK)

		ch := stream.NewChannel(userID, c.Response(), flusher.Flush)

		// Confirm the connection to this channel only, before it becomes
		// eligible for fan-out.
		data, _ := json.Marshal(map[string]string{"userId": userID})
		if err := ch.Send(domain.EventConnected, data); err != nil {
			return nil
		}

		registry.Register(userID, ch)
		// Teardown runs exactly once regardless of which path ends the
		// connection: Close and Unregister are both idempotent.
		defer func() {
			ch.Close()
			registry.Unregister(userID, ch)
			metrics.Log(userID)
		}()

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		ctx := c.Request().Context()
		for {
			select {
			case <-ctx.Done():
				metrics.SetReason("client_disconnect")
				return nil
			case <-ch.Done():
				// The publisher dropped this channel after a failed write.
				metrics.SetReason("channel_closed")
				return nil
			case <-ticker.C:
				if err := ch.Comment("keepalive"); err != nil {
					metrics.SetReason("heartbeat_failed")
					return nil
				}
				metrics.ObserveHeartbeat()
			}
		}
	}
}

type streamMetrics struct {
	logger     *log.Logger
	start      time.Time
	heartbeats int
	reason     string
}

func newStreamMetrics(logger *log.Logger) *streamMetrics {
	return &streamMetrics{logger: logger, start: time.Now()}
}

func (m *streamMetrics) ObserveHeartbeat() { m.heartbeats++ }

func (m *streamMetrics) SetReason(reason string) {
	if reason == "" {
		return
	}
	m.reason = reason
}

func (m *streamMetrics) Log(userID string) {
	if m == nil || m.logger == nil {
		return
	}
	m.logger.WithFields(log.Fields{
		"route":       "/api/stream",
		"user":        userID,
		"duration_ms": float64(time.Since(m.start)) / float64(time.Millisecond),
		"heartbeats":  m.heartbeats,
		"reason":      m.reason,
	}).Info("stream.connection.closed")
}
