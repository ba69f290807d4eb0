package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"efficio-api/domain"
	"efficio-api/notify"
	"efficio-api/storage"
)

type groupRequest struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

type invitationRequest struct {
	UserID string `json:"userId"`
}

type invitationResponse struct {
	Accept bool `json:"accept"`
}

func postGroup(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req groupRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if !strings.HasPrefix(req.Tag, "@") || len(req.Tag) < 2 {
			return c.String(http.StatusBadRequest, "tag must start with @")
		}
		group := domain.Group{Tag: req.Tag, Name: req.Name, Owner: userID, Created: nextTimestamp()}
		if err := store.CreateGroup(ctx, group); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return c.String(http.StatusConflict, "tag already taken")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		owner := domain.Membership{GroupTag: group.Tag, UserID: userID, Status: domain.MembershipAccepted, Updated: nextTimestamp()}
		if err := store.UpsertMembership(ctx, owner); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusCreated, group)
	}
}

func getGroups(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		memberships, err := store.FetchUserGroups(ctx, userID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]any{"memberships": memberships})
	}
}

func getMembers(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		tag := c.Param("tag")
		if err := requireMember(ctx, store, tag, userID); err != nil {
			return c.String(http.StatusForbidden, err.Error())
		}
		members, err := store.FetchMembers(ctx, tag, domain.MembershipAccepted)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]any{"members": members})
	}
}

// postInvitation invites one user into the group. Only the invited pending
// user is notified, never the whole group.
func postInvitation(store Storage, auth Authenticator, events Events) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		tag := c.Param("tag")
		group, err := store.GetGroup(ctx, tag)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.String(http.StatusNotFound, "group not found")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		if group.Owner != userID {
			return c.String(http.StatusForbidden, "only the owner can invite")
		}
		var req invitationRequest
		if err := decodeBody(c, &req); err != nil || req.UserID == "" {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if _, err := store.GetMembership(ctx, tag, req.UserID); err == nil {
			return c.String(http.StatusConflict, "already invited")
		} else if !errors.Is(err, storage.ErrNotFound) {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}

		m := domain.Membership{GroupTag: tag, UserID: req.UserID, Status: domain.MembershipPending, InvitedBy: userID, Updated: nextTimestamp()}
		if err := store.UpsertMembership(ctx, m); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}

		n := domain.Notification{
			ID:       uuid.NewString(),
			UserID:   req.UserID,
			Kind:     "group_invitation",
			GroupTag: tag,
			Message:  group.Name,
			Created:  nextTimestamp(),
		}
		if err := store.InsertNotification(ctx, n); err != nil {
			c.Logger().Error(err)
		} else {
			events.Emit(notify.Event{
				Kind:         domain.EventNotification,
				Notification: &n,
				GroupTag:     tag,
				Affected:     []string{req.UserID},
			}, userID)
		}
		return c.JSON(http.StatusCreated, m)
	}
}

func respondInvitation(store Storage, auth Authenticator, events Events) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		tag := c.Param("tag")
		m, err := store.GetMembership(ctx, tag, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.String(http.StatusNotFound, "no invitation")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		if m.Status != domain.MembershipPending {
			return c.String(http.StatusConflict, "invitation already resolved")
		}
		var req invitationResponse
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if req.Accept {
			m.Status = domain.MembershipAccepted
		} else {
			m.Status = domain.MembershipDeclined
		}
		m.Updated = nextTimestamp()
		if err := store.UpsertMembership(ctx, m); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}

		group, err := store.GetGroup(ctx, tag)
		if err == nil && group.Owner != userID {
			n := domain.Notification{
				ID:       uuid.NewString(),
				UserID:   group.Owner,
				Kind:     "invitation_" + m.Status,
				GroupTag: tag,
				Created:  nextTimestamp(),
			}
			if err := store.InsertNotification(ctx, n); err != nil {
				c.Logger().Error(err)
			} else {
				events.Emit(notify.Event{
					Kind:         domain.EventNotification,
					Notification: &n,
					GroupTag:     tag,
					Affected:     []string{group.Owner},
				}, userID)
			}
		}
		return c.JSON(http.StatusOK, m)
	}
}

var errNotAMember = errors.New("not a group member")

func requireMember(ctx context.Context, store Storage, tag, userID string) error {
	group, err := store.GetGroup(ctx, tag)
	if err != nil {
		return errNotAMember
	}
	if group.Owner == userID {
		return nil
	}
	m, err := store.GetMembership(ctx, tag, userID)
	if err != nil || m.Status != domain.MembershipAccepted {
		return errNotAMember
	}
	return nil
}
