package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"efficio-api/domain"
	"efficio-api/notify"
	"efficio-api/storage"
)

type taskRequest struct {
	Title     string   `json:"title"`
	Notes     string   `json:"notes"`
	GroupTag  string   `json:"groupTag"`
	Assignees []string `json:"assignees"`
	Order     int      `json:"order"`
}

type taskPatch struct {
	Title     *string   `json:"title"`
	Notes     *string   `json:"notes"`
	Assignees *[]string `json:"assignees"`
	Order     *int      `json:"order"`
	Done      *bool     `json:"done"`
}

type tasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

func getTasks(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		tasks, err := store.FetchTasks(ctx, userID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, tasksResponse{Tasks: tasks})
	}
}

func postTask(store Storage, auth Authenticator, deduper Deduper, events Events) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req taskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if req.Title == "" {
			return c.String(http.StatusBadRequest, "title is required")
		}

		if key := c.Request().Header.Get("Idempotency-Key"); key != "" && deduper != nil {
			added, err := deduper.Add(ctx, userID, key)
			if err != nil {
				c.Logger().Error(err)
			} else if !added {
				return c.JSON(http.StatusOK, okResponse{OK: true, Duplicate: true})
			}
		}

		task := domain.Task{
			ID:        uuid.NewString(),
			Title:     req.Title,
			Notes:     req.Notes,
			GroupTag:  req.GroupTag,
			Owner:     userID,
			Assignees: dedupe(req.Assignees),
			Order:     req.Order,
			Updated:   nextTimestamp(),
		}
		if err := store.UpsertTask(ctx, task); err != nil {
			if key := c.Request().Header.Get("Idempotency-Key"); key != "" && deduper != nil {
				_ = deduper.Remove(ctx, userID, key)
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}

		notifyAssigned(ctx, c, store, events, task, task.Assignees, userID)
		return c.JSON(http.StatusCreated, task)
	}
}

func patchTask(store Storage, auth Authenticator, events Events) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		task, err := store.GetTask(ctx, userID, c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.String(http.StatusNotFound, "task not found")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}

		var patch taskPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}

		before := task.Assignees
		if patch.Title != nil {
			task.Title = *patch.Title
		}
		if patch.Notes != nil {
			task.Notes = *patch.Notes
		}
		if patch.Assignees != nil {
			task.Assignees = dedupe(*patch.Assignees)
		}
		if patch.Order != nil {
			task.Order = *patch.Order
		}
		if patch.Done != nil {
			task.Done = *patch.Done
		}
		task.Updated = nextTimestamp()

		if err := store.UpsertTask(ctx, task); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}

		added, removed := diffAssignees(before, task.Assignees)
		notifyAssigned(ctx, c, store, events, task, added, userID)
		notifyUnassigned(ctx, c, store, events, task, removed, userID)
		events.Emit(notify.Event{Kind: domain.EventTaskUpdated, Task: &task, GroupTag: task.GroupTag}, userID)

		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(store Storage, auth Authenticator, events Events) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		task, err := store.GetTask(ctx, userID, c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.String(http.StatusNotFound, "task not found")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		if err := store.DeleteTask(ctx, userID, task.ID); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}

		notifyUnassigned(ctx, c, store, events, task, task.Assignees, userID)
		events.Emit(notify.Event{Kind: domain.EventTaskDeleted, Task: &task, GroupTag: task.GroupTag}, userID)

		return c.JSON(http.StatusOK, okResponse{OK: true})
	}
}

// notifyAssigned writes a durable notification per newly-added assignee and
// emits the matching push event to each one individually, never as a single
// broadcast.
func notifyAssigned(ctx context.Context, c echo.Context, store Storage, events Events, task domain.Task, assignees []string, actorID string) {
	for _, uid := range assignees {
		if uid == actorID {
			continue
		}
		n := domain.Notification{
			ID:       uuid.NewString(),
			UserID:   uid,
			Kind:     "task_assigned",
			TaskID:   task.ID,
			GroupTag: task.GroupTag,
			Message:  task.Title,
			Created:  nextTimestamp(),
		}
		if err := store.InsertNotification(ctx, n); err != nil {
			c.Logger().Error(err)
			continue
		}
		events.Emit(notify.Event{
			Kind:         domain.EventNotification,
			Notification: &n,
			GroupTag:     task.GroupTag,
			Affected:     []string{uid},
		}, actorID)
	}
}

// notifyUnassigned clears durable task notifications for each removed
// assignee and pushes a removal event to them.
func notifyUnassigned(ctx context.Context, c echo.Context, store Storage, events Events, task domain.Task, assignees []string, actorID string) {
	for _, uid := range assignees {
		if uid == actorID {
			continue
		}
		if err := store.DeleteTaskNotifications(ctx, uid, task.ID); err != nil {
			c.Logger().Error(err)
		}
		n := domain.Notification{
			UserID:   uid,
			Kind:     "task_unassigned",
			TaskID:   task.ID,
			GroupTag: task.GroupTag,
		}
		events.Emit(notify.Event{
			Kind:         domain.EventNotificationRemoved,
			Notification: &n,
			GroupTag:     task.GroupTag,
			Affected:     []string{uid},
		}, actorID)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func diffAssignees(before, after []string) (added, removed []string) {
	old := make(map[string]struct{}, len(before))
	for _, id := range before {
		old[id] = struct{}{}
	}
	cur := make(map[string]struct{}, len(after))
	for _, id := range after {
		cur[id] = struct{}{}
		if _, ok := old[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if _, ok := cur[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}
