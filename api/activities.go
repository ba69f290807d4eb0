package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"efficio-api/domain"
	"efficio-api/notify"
)

type activityRequest struct {
	Text     string `json:"text"`
	Kind     string `json:"kind"`
	GroupTag string `json:"groupTag"`
}

func postActivity(store Storage, auth Authenticator, events Events) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req activityRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if req.Text == "" {
			return c.String(http.StatusBadRequest, "text is required")
		}
		if req.GroupTag != "" {
			if err := requireMember(ctx, store, req.GroupTag, userID); err != nil {
				return c.String(http.StatusForbidden, err.Error())
			}
		}
		activity := domain.Activity{
			ID:       uuid.NewString(),
			GroupTag: req.GroupTag,
			UserID:   userID,
			Text:     req.Text,
			Kind:     req.Kind,
			Created:  nextTimestamp(),
		}
		if err := store.InsertActivity(ctx, activity); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}

		events.Emit(notify.Event{
			Kind:     domain.EventActivity,
			Activity: &activity,
			GroupTag: activity.GroupTag,
		}, userID)

		return c.JSON(http.StatusCreated, activity)
	}
}

func getActivities(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		tag := c.QueryParam("group")
		if tag == "" {
			activities, err := store.FetchPersonalActivities(ctx, userID)
			if err != nil {
				c.Logger().Error(err)
				return c.String(http.StatusInternalServerError, err.Error())
			}
			return c.JSON(http.StatusOK, map[string]any{"activities": activities})
		}
		if err := requireMember(ctx, store, tag, userID); err != nil {
			return c.String(http.StatusForbidden, err.Error())
		}
		activities, err := store.FetchGroupActivities(ctx, tag)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]any{"activities": activities})
	}
}
