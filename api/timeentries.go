package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"efficio-api/domain"
	"efficio-api/storage"
)

type timeEntryRequest struct {
	TaskID string `json:"taskId"`
	Note   string `json:"note"`
}

func getTimeEntries(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		entries, err := store.FetchTimeEntries(ctx, userID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]any{"entries": entries})
	}
}

// startTimeEntry opens a new running entry; at most one may run per user.
func startTimeEntry(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req timeEntryRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if _, err := store.ActiveTimeEntry(ctx, userID); err == nil {
			return c.String(http.StatusConflict, "an entry is already running")
		} else if !errors.Is(err, storage.ErrNotFound) {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		entry := domain.TimeEntry{
			ID:      uuid.NewString(),
			UserID:  userID,
			TaskID:  req.TaskID,
			Note:    req.Note,
			Started: nextTimestamp(),
		}
		if err := store.UpsertTimeEntry(ctx, entry); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusCreated, entry)
	}
}

func stopTimeEntry(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		entry, err := store.ActiveTimeEntry(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.String(http.StatusNotFound, "no running entry")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		entry.Stopped = nextTimestamp()
		if err := store.UpsertTimeEntry(ctx, entry); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, entry)
	}
}
