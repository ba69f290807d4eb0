package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"efficio-api/stream"
)

// Debug-only surface, excluded from the production contract. Gated behind
// DEBUG_ENDPOINTS at registration time.

type testEventRequest struct {
	UserID  string         `json:"userId"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
}

func registerDebug(e *echo.Echo, registry *stream.Registry) {
	e.GET("/debug/stream/users", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"users": registry.Users()})
	})
	e.POST("/debug/stream/test", func(c echo.Context) error {
		var req testEventRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if req.UserID == "" || req.Event == "" {
			return c.String(http.StatusBadRequest, "userId and event are required")
		}
		delivered := registry.Publish(req.UserID, req.Event, req.Payload)
		return c.JSON(http.StatusOK, map[string]bool{"delivered": delivered})
	})
}
