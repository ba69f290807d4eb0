package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"efficio-api/domain"
	"efficio-api/storage"
)

type profileRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

type profilePatch struct {
	Name    *string `json:"name"`
	Picture *string `json:"picture"`
}

// provisionUser creates the caller's profile on first login. The operation
// is idempotent: concurrent first logins and client retries converge on one
// record.
func provisionUser(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req profileRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		profile := domain.UserProfile{
			ID:      userID,
			Name:    req.Name,
			Email:   req.Email,
			Picture: req.Picture,
		}
		stored, err := store.ProvisionUser(ctx, profile)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, stored)
	}
}

func getMe(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		profile, err := store.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.String(http.StatusNotFound, "not provisioned")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, profile)
	}
}

// updateMe edits the caller's profile. Setting a picture here marks it as an
// explicit customization, which changes how the actor projection treats it.
func updateMe(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		profile, err := store.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.String(http.StatusNotFound, "not provisioned")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		var patch profilePatch
		if err := decodeBody(c, &patch); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if patch.Name != nil {
			profile.Name = *patch.Name
		}
		if patch.Picture != nil {
			profile.Picture = *patch.Picture
			profile.CustomPicture = *patch.Picture != ""
		}
		if err := store.UpdateUser(ctx, profile); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, profile)
	}
}
